package backtest

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfork/chainsignal/internal/types"
)

// Portfolio is the mutable state of one backtest run: cash, open lots, and
// the append-only equity curve. All mutation happens on the single engine
// goroutine.
type Portfolio struct {
	cash  decimal.Decimal
	lots  map[string]*types.PositionLot
	curve []types.EquityPoint
	peak  decimal.Decimal
	phase types.Phase

	feesPaid      decimal.Decimal
	stopLossExits int
}

// NewPortfolio creates a cash-only portfolio in the initialized phase.
func NewPortfolio(initialCapital float64) *Portfolio {
	cash := decimal.NewFromFloat(initialCapital)

	return &Portfolio{
		cash:  cash,
		lots:  make(map[string]*types.PositionLot),
		peak:  cash,
		phase: types.PhaseInitialized,
	}
}

// Phase returns the current loop state.
func (p *Portfolio) Phase() types.Phase {
	return p.phase
}

// Cash returns the uninvested cash balance.
func (p *Portfolio) Cash() float64 {
	return p.cash.InexactFloat64()
}

// FeesPaid returns the cumulative trading fees.
func (p *Portfolio) FeesPaid() float64 {
	return p.feesPaid.InexactFloat64()
}

// StopLossExits returns how many positions the stop-loss closed.
func (p *Portfolio) StopLossExits() int {
	return p.stopLossExits
}

// Tickers returns the open position tickers in ascending order.
func (p *Portfolio) Tickers() []string {
	tickers := make([]string, 0, len(p.lots))
	for ticker := range p.lots {
		tickers = append(tickers, ticker)
	}

	sort.Strings(tickers)

	return tickers
}

// Lot returns the open lot for a ticker, if any.
func (p *Portfolio) Lot(ticker string) (types.PositionLot, bool) {
	lot, ok := p.lots[ticker]
	if !ok {
		return types.PositionLot{}, false
	}

	return *lot, true
}

// Equity values the portfolio at the given prices. A ticker with no quote
// falls back to its entry price, so a missing date never zeroes a position.
func (p *Portfolio) Equity(prices map[string]float64) float64 {
	equity := p.cash

	for ticker, lot := range p.lots {
		price, ok := prices[ticker]
		if !ok {
			price = lot.EntryPrice
		}

		equity = equity.Add(decimal.NewFromFloat(lot.Quantity).Mul(decimal.NewFromFloat(price)))
	}

	return equity.InexactFloat64()
}

// MarkToMarket appends one equity observation and advances the running peak.
// The curve is append-only; no rewrite of history ever happens.
func (p *Portfolio) MarkToMarket(at time.Time, prices map[string]float64) float64 {
	equity := p.Equity(prices)

	p.curve = append(p.curve, types.EquityPoint{Time: at, Equity: equity})

	if d := decimal.NewFromFloat(equity); d.GreaterThan(p.peak) {
		p.peak = d
	}

	return equity
}

// Drawdown returns the current drawdown from the running peak as a positive
// fraction.
func (p *Portfolio) Drawdown(prices map[string]float64) float64 {
	if p.peak.IsZero() {
		return 0
	}

	equity := decimal.NewFromFloat(p.Equity(prices))

	return p.peak.Sub(equity).Div(p.peak).InexactFloat64()
}

// EquityCurve returns a copy of the equity curve.
func (p *Portfolio) EquityCurve() []types.EquityPoint {
	curve := make([]types.EquityPoint, len(p.curve))
	copy(curve, p.curve)

	return curve
}

// Peak returns the highest marked equity so far.
func (p *Portfolio) Peak() float64 {
	return p.peak.InexactFloat64()
}

// ApplyTargets trades from the current positions to the target weights.
// Weights are fractions of current equity; fees apply to the traded notional
// on both buys and sells. Positions absent from the targets are closed.
func (p *Portfolio) ApplyTargets(at time.Time, targets map[string]float64, prices map[string]float64, feeRate float64) {
	p.phase = types.PhaseRebalancing

	equity := decimal.NewFromFloat(p.Equity(prices))
	fee := decimal.NewFromFloat(feeRate)

	// close positions that fell out of the selection
	for _, ticker := range p.Tickers() {
		if _, keep := targets[ticker]; !keep {
			p.closeLot(ticker, prices, fee)
		}
	}

	// trade remaining positions to their target notional, ticker ascending
	// for determinism
	tickers := make([]string, 0, len(targets))
	for ticker := range targets {
		tickers = append(tickers, ticker)
	}

	sort.Strings(tickers)

	for _, ticker := range tickers {
		price, ok := prices[ticker]
		if !ok || price <= 0 {
			continue
		}

		priceD := decimal.NewFromFloat(price)
		targetNotional := equity.Mul(decimal.NewFromFloat(targets[ticker]))

		currentNotional := decimal.Zero
		if lot, held := p.lots[ticker]; held {
			currentNotional = decimal.NewFromFloat(lot.Quantity).Mul(priceD)
		}

		deltaNotional := targetNotional.Sub(currentNotional)
		tradeFee := deltaNotional.Abs().Mul(fee)

		p.cash = p.cash.Sub(deltaNotional).Sub(tradeFee)
		p.feesPaid = p.feesPaid.Add(tradeFee)

		quantity := targetNotional.Div(priceD).InexactFloat64()
		if quantity <= 0 {
			delete(p.lots, ticker)

			continue
		}

		if lot, held := p.lots[ticker]; held {
			lot.Quantity = quantity
		} else {
			p.lots[ticker] = &types.PositionLot{
				Ticker:     ticker,
				Quantity:   quantity,
				EntryPrice: price,
				OpenedAt:   at,
			}
		}
	}

	p.phase = types.PhaseHolding
}

// CheckStopLoss closes every position whose drawdown from entry exceeds the
// threshold, at the current price. Returns the closed tickers in ascending
// order.
func (p *Portfolio) CheckStopLoss(prices map[string]float64, threshold, feeRate float64) []string {
	fee := decimal.NewFromFloat(feeRate)

	var closed []string

	for _, ticker := range p.Tickers() {
		lot := p.lots[ticker]

		price, ok := prices[ticker]
		if !ok || lot.EntryPrice <= 0 {
			continue
		}

		loss := (lot.EntryPrice - price) / lot.EntryPrice
		if loss > threshold {
			p.closeLot(ticker, prices, fee)
			p.stopLossExits++

			closed = append(closed, ticker)
		}
	}

	return closed
}

// Liquidate closes every position and enters the terminal liquidated phase.
// No rebalance runs after this transition.
func (p *Portfolio) Liquidate(prices map[string]float64, feeRate float64) {
	fee := decimal.NewFromFloat(feeRate)

	for _, ticker := range p.Tickers() {
		p.closeLot(ticker, prices, fee)
	}

	p.phase = types.PhaseLiquidated
}

func (p *Portfolio) closeLot(ticker string, prices map[string]float64, fee decimal.Decimal) {
	lot, ok := p.lots[ticker]
	if !ok {
		return
	}

	price, ok := prices[ticker]
	if !ok {
		price = lot.EntryPrice
	}

	notional := decimal.NewFromFloat(lot.Quantity).Mul(decimal.NewFromFloat(price))
	tradeFee := notional.Abs().Mul(fee)

	p.cash = p.cash.Add(notional).Sub(tradeFee)
	p.feesPaid = p.feesPaid.Add(tradeFee)

	delete(p.lots, ticker)
}
