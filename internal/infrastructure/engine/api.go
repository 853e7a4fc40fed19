package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/simplespot/invest-engine-e2e/internal/config"
	"github.com/simplespot/invest-engine-e2e/internal/domain"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/grpcpool"
)

// Logical service names resolved through the connection pool.
const (
	serviceHelper         = "helper"
	serviceInvest         = "invest"
	servicePositionAction = "positionAction"
)

// Full method names from the engine's proto packages.
const (
	methodStringToDecimal     = "/MyJetWallet.Sdk.GrpcSchema.GrpcHelperService/StringToDecimal"
	methodMakePrice           = "/Service.InvestEngine.Prices.Grpc.PriceManagerService/MakePrice"
	methodRecalculateRollOver = "/Service.InvestEngine.Positions.Grpc.PositionActionService/RecalculatePositionRollOver"
)

// API is the gateway to the external trading engine. Position actions go
// over HTTP with a bearer token; price injection and rollover recalculation
// go over gRPC through the shared connection pool.
type API struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	endpoints  config.Endpoints

	pool          *grpcpool.Pool
	retryAttempts int
	retryDelay    time.Duration

	logger *zap.Logger
}

func New(cfg *config.Config, authToken string, pool *grpcpool.Pool, logger *zap.Logger) *API {
	return &API{
		httpClient:    &http.Client{Timeout: cfg.HTTPTimeout()},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		authToken:     authToken,
		endpoints:     cfg.Endpoints,
		pool:          pool,
		retryAttempts: cfg.Retry.Attempts,
		retryDelay:    cfg.RetryDelay(),
		logger:        logger,
	}
}

// --- gRPC operations ---

func (a *API) invoke(ctx context.Context, service, method string, req, resp wireMessage) error {
	conn, err := a.pool.Get(service)
	if err != nil {
		return err
	}
	return callWithRetry(ctx, a.logger, a.retryAttempts, a.retryDelay, method, func(ctx context.Context) error {
		return conn.Invoke(ctx, method, req, resp, grpc.ForceCodec(rawCodec{}))
	})
}

// SetupInstrumentPrice converts price to the engine's decimal wire type via
// the helper service, then pushes an ask=bid=last tick for the symbol.
func (a *API) SetupInstrumentPrice(ctx context.Context, symbol string, price float64) error {
	quote := &stringToDecimalResponse{}
	req := &stringToDecimalRequest{Value: strconv.FormatFloat(price, 'f', -1, 64)}
	if err := a.invoke(ctx, serviceHelper, methodStringToDecimal, req, quote); err != nil {
		return fmt.Errorf("string to decimal: %w", err)
	}

	tick := &makePriceRequest{
		Symbol: symbol,
		Ask:    quote.Value,
		Bid:    quote.Value,
		Last:   quote.Value,
	}
	if err := a.invoke(ctx, serviceInvest, methodMakePrice, tick, &emptyAck{}); err != nil {
		return fmt.Errorf("make price: %w", err)
	}

	a.logger.Info("instrument price set",
		zap.String("symbol", symbol),
		zap.Float64("price", price))
	return nil
}

func (a *API) RecalculateRollover(ctx context.Context, positionID string) error {
	req := &recalcRollOverRequest{PositionID: positionID}
	if err := a.invoke(ctx, servicePositionAction, methodRecalculateRollOver, req, &emptyAck{}); err != nil {
		return fmt.Errorf("recalculate rollover for %s: %w", positionID, err)
	}
	a.logger.Info("rollover recalculated", zap.String("position_id", positionID))
	return nil
}

// --- HTTP operations ---

// post sends one JSON request. Statuses below 500 come back in the result
// so scenario helpers can assert on them; 5xx and transport failures are
// errors. A 200 body is decoded strictly into a position projection.
func (a *API) post(ctx context.Context, path string, payload any) (*domain.CallResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("post %s: read response: %w", path, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("post %s: engine returned %d: %s", path, resp.StatusCode, raw)
	}

	result := &domain.CallResult{StatusCode: resp.StatusCode, Body: raw}
	if resp.StatusCode == http.StatusOK {
		pos, err := domain.DecodePosition(raw)
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", path, err)
		}
		result.Position = pos
	}
	return result, nil
}

func (a *API) OpenMarketPosition(ctx context.Context, req *domain.OpenPositionRequest) (*domain.CallResult, error) {
	res, err := a.post(ctx, a.endpoints.OpenPosition, req)
	if err != nil {
		a.logger.Error("failed to open position", zap.Error(err))
		return nil, err
	}
	a.logger.Info("creation of position",
		zap.String("url", a.endpoints.OpenPosition),
		zap.String("symbol", req.Symbol),
		zap.Stringer("direction", req.Direction),
		zap.Int("status_code", res.StatusCode))
	return res, nil
}

func (a *API) OpenPendingLimitPosition(ctx context.Context, req *domain.OpenPositionRequest) (*domain.CallResult, error) {
	res, err := a.post(ctx, a.endpoints.OpenPendingLimit, req)
	if err != nil {
		a.logger.Error("failed to open pending limit position", zap.Error(err))
		return nil, err
	}
	a.logger.Info("creation of pending limit position",
		zap.String("url", a.endpoints.OpenPendingLimit),
		zap.String("symbol", req.Symbol),
		zap.Float64("target_price", req.TargetPrice),
		zap.Int("status_code", res.StatusCode))
	return res, nil
}

func (a *API) OpenPendingStopPosition(ctx context.Context, req *domain.OpenPositionRequest) (*domain.CallResult, error) {
	res, err := a.post(ctx, a.endpoints.OpenPendingStop, req)
	if err != nil {
		a.logger.Error("failed to open pending stop position", zap.Error(err))
		return nil, err
	}
	a.logger.Info("creation of pending stop position",
		zap.String("url", a.endpoints.OpenPendingStop),
		zap.String("symbol", req.Symbol),
		zap.Float64("target_price", req.TargetPrice),
		zap.Int("status_code", res.StatusCode))
	return res, nil
}

func (a *API) CloseMarketPosition(ctx context.Context, positionID string, clientClosePrice float64) (*domain.CallResult, error) {
	payload := &domain.ClosePositionRequest{
		PositionID:       positionID,
		ClientClosePrice: clientClosePrice,
	}
	res, err := a.post(ctx, a.endpoints.ClosePosition, payload)
	if err != nil {
		a.logger.Error("failed to close position", zap.String("position_id", positionID), zap.Error(err))
		return nil, err
	}
	a.logger.Info("close of position",
		zap.String("position_id", positionID),
		zap.Int("status_code", res.StatusCode))
	return res, nil
}

func (a *API) GetPositionByID(ctx context.Context, positionID string) (*domain.CallResult, error) {
	// The engine wants the id both in the query string and the body.
	path := fmt.Sprintf("%s?positionId=%s", a.endpoints.GetPosition, url.QueryEscape(positionID))
	res, err := a.post(ctx, path, &domain.GetPositionRequest{PositionID: positionID})
	if err != nil {
		a.logger.Error("failed to get position", zap.String("position_id", positionID), zap.Error(err))
		return nil, err
	}
	a.logger.Debug("got position",
		zap.String("position_id", positionID),
		zap.Int("status_code", res.StatusCode))
	return res, nil
}
