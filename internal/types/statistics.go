package types

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BacktestStats summarizes a completed backtest run.
type BacktestStats struct {
	StartEquity     float64 `yaml:"start_equity"`
	FinalEquity     float64 `yaml:"final_equity"`
	TotalReturn     float64 `yaml:"total_return"`
	PeakEquity      float64 `yaml:"peak_equity"`
	MaxDrawdown     float64 `yaml:"max_drawdown"`
	SharpeRatio     float64 `yaml:"sharpe_ratio"`
	TotalFees       float64 `yaml:"total_fees"`
	Rebalances      int     `yaml:"rebalances"`
	WinningPeriods  int     `yaml:"winning_periods"`
	LosingPeriods   int     `yaml:"losing_periods"`
	PeriodWinRate   float64 `yaml:"period_win_rate"`
	StopLossExits   int     `yaml:"stop_loss_exits"`
	KillSwitchFired bool    `yaml:"kill_switch_fired"`
	FinalPhase      Phase   `yaml:"final_phase"`
}

// WriteBacktestStats writes the stats summary to a YAML file.
func WriteBacktestStats(path string, stats BacktestStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest stats to file: %w", err)
	}

	return nil
}
