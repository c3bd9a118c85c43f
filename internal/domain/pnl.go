package domain

import "fmt"

// PositionSize calcula la cantidad para una posición nueva.
//
// Fórmula: quantity = (balance × leverage) / price
func PositionSize(balance, price float64, leverage Leverage) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("domain.PositionSize: price %v: %w", price, ErrInvalidPrice)
	}
	if err := ValidateLeverage(leverage); err != nil {
		return 0, fmt.Errorf("domain.PositionSize: %w", err)
	}
	return balance * float64(leverage) / price, nil
}

// UnrealizedPnL devuelve el P&L de la posición al precio actual y su porcentaje
// sobre el margen invertido (notional / leverage).
//
//	priceDiff = current - entry (long) | entry - current (short)
//	pnl       = priceDiff × quantity
//	pnl%      = pnl / (quantity × entry / leverage) × 100
func UnrealizedPnL(pos Position, currentPrice float64) (pnl, pnlPercent float64) {
	priceDiff := currentPrice - pos.EntryPrice
	if pos.Side == SideShort {
		priceDiff = pos.EntryPrice - currentPrice
	}
	pnl = priceDiff * pos.Quantity

	initialInvestment := pos.Quantity * pos.EntryPrice / float64(pos.Leverage)
	if initialInvestment > 0 {
		pnlPercent = pnl / initialInvestment * 100
	}
	return pnl, pnlPercent
}

// Drawdown devuelve la caída fraccional (0..1) del equity respecto a su pico.
// 0 si el pico no es positivo o el equity está por encima del pico.
func Drawdown(currentEquity, peakEquity float64) float64 {
	if peakEquity <= 0 {
		return 0
	}
	return max(0, (peakEquity-currentEquity)/peakEquity)
}

// IsLiquidated indica si el equity efectivo llegó a cero o menos.
func IsLiquidated(balance, openPnL float64) bool {
	return balance+openPnL <= 0
}
