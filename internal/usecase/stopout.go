package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/simplespot/invest-engine-e2e/internal/domain"
)

// priceScale matches the instrument's price-tick precision.
const priceScale = 4

// RolloverIncrement is the fixed financing charge the engine accrues per
// recalculation call.
var RolloverIncrement = decimal.NewFromFloat(0.5)

// StopOutPrice re-derives the liquidation trigger price from raw position
// fields, independently of the engine's own computation. Liquidation fires
// when unrealized loss consumes (1-fraction) of the margin volume/mult; the
// price adjustment is signed by direction because losses accrue oppositely
// for long and short.
//
//	stopOutPnL = -(volume / mult) * (1 - fraction)
//	price      = openPrice * (1 + sign * (stopOutPnL + openFee - rollOver + closeFee) / volume)
//
// The result is rounded to 4 decimal places. The formula is reproduced from
// observed engine behavior; a mismatch against the backend is a finding,
// not proof the backend is wrong.
func StopOutPrice(p *domain.Position, fraction float64) float64 {
	volume := decimal.NewFromFloat(p.Volume)
	mult := decimal.NewFromFloat(p.Multiplicator)
	openPrice := decimal.NewFromFloat(p.OpenPrice)
	openFee := decimal.NewFromFloat(p.OpenFee)
	closeFee := decimal.NewFromFloat(p.CloseFee)
	rollOver := decimal.NewFromFloat(p.RollOver)

	remaining := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(fraction))
	stopOutPnL := volume.Div(mult).Mul(remaining).Neg()

	sign := decimal.NewFromInt(1)
	if p.Direction != domain.DirectionBuy {
		sign = decimal.NewFromInt(-1)
	}

	adjustment := stopOutPnL.Add(openFee).Sub(rollOver).Add(closeFee).Div(volume)
	price := openPrice.Mul(decimal.NewFromInt(1).Add(sign.Mul(adjustment)))

	return price.Round(priceScale).InexactFloat64()
}
