package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// webAppKeyPrefix is the constant Telegram mixes into the bot token to derive
// the init-data signing key.
const webAppKeyPrefix = "WebAppData"

var ErrEmptyBotToken = errors.New("bot token is empty")

// GenerateToken builds a bearer credential for one suite run: a signed
// Telegram-style init-data payload for the given user, base64url-encoded.
// The engine only checks the signature, so a fresh query_id per run keeps
// tokens distinct without any server-side coordination.
func GenerateToken(botToken string, userID int64) (string, error) {
	if botToken == "" {
		return "", ErrEmptyBotToken
	}

	authDate := strconv.FormatInt(time.Now().Unix(), 10)
	queryID := uuid.NewString()
	user := fmt.Sprintf(`{"id":%d}`, userID)

	// Keys must be sorted for the data-check string.
	checkString := "auth_date=" + authDate + "\nquery_id=" + queryID + "\nuser=" + user
	hash := Sign(botToken, checkString)

	values := url.Values{}
	values.Set("auth_date", authDate)
	values.Set("query_id", queryID)
	values.Set("user", user)
	values.Set("hash", hash)

	return base64.RawURLEncoding.EncodeToString([]byte(values.Encode())), nil
}

// Sign computes the hex HMAC-SHA256 of the data-check string under the key
// derived from the bot token.
func Sign(botToken, checkString string) string {
	key := hmac.New(sha256.New, []byte(webAppKeyPrefix))
	key.Write([]byte(botToken))

	mac := hmac.New(sha256.New, key.Sum(nil))
	mac.Write([]byte(checkString))
	return hex.EncodeToString(mac.Sum(nil))
}
