package types

import "time"

// Phase is the backtest loop state.
type Phase string

const (
	// PhaseInitialized means the portfolio holds cash only and no rebalance has run.
	PhaseInitialized Phase = "initialized"
	// PhaseRebalancing means target weights are being applied.
	PhaseRebalancing Phase = "rebalancing"
	// PhaseHolding means positions are held and marked to market daily.
	PhaseHolding Phase = "holding"
	// PhaseLiquidated is the terminal state after the drawdown kill-switch fired.
	// No further rebalancing happens for the remainder of the run.
	PhaseLiquidated Phase = "liquidated"
)

// ScoredTicker pairs a ticker with its composite ranking score.
type ScoredTicker struct {
	Ticker string  `json:"ticker" yaml:"ticker"`
	Score  float64 `json:"score" yaml:"score"`
}

// RebalanceSnapshot captures one rebalance decision: the full ranking and the
// selected tickers with target weights. Consumed immediately by the backtest
// loop; retained only for reporting.
type RebalanceSnapshot struct {
	Time time.Time `json:"time" yaml:"time"`
	// Ranking is the full ordered ranking as of this date.
	Ranking []ScoredTicker `json:"ranking" yaml:"ranking"`
	// Selected maps the chosen tickers to their target portfolio weights.
	// Weights sum to at most 1.0.
	Selected map[string]float64 `json:"selected" yaml:"selected"`
}

// EquityPoint is one observation of the append-only equity curve.
type EquityPoint struct {
	Time   time.Time `json:"time" yaml:"time"`
	Equity float64   `json:"equity" yaml:"equity"`
}

// PositionLot is an open holding of one ticker.
type PositionLot struct {
	Ticker string `json:"ticker" yaml:"ticker"`
	// Quantity is a fractional share count derived from weights; no literal
	// order book exists in a backtest.
	Quantity float64 `json:"quantity" yaml:"quantity"`
	// EntryPrice is the adjusted close at which the lot was opened, used for
	// the per-position stop-loss check.
	EntryPrice float64 `json:"entry_price" yaml:"entry_price"`
	// OpenedAt is the rebalance date that opened the lot.
	OpenedAt time.Time `json:"opened_at" yaml:"opened_at"`
}
