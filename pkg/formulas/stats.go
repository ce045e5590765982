// Package formulas provides small numeric helpers shared by the indicator
// engine and the backtest statistics.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}

	return stat.StdDev(data, nil)
}

// CalculateReturns converts a price series to simple percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i].
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)

	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// SharpeRatio computes the annualized Sharpe ratio from daily returns,
// assuming a zero risk-free rate and 252 trading days per year.
func SharpeRatio(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}

	sd := StdDev(dailyReturns)
	if sd == 0 {
		return 0
	}

	return Mean(dailyReturns) / sd * math.Sqrt(252)
}

// MaxDrawdown returns the largest peak-to-trough decline of an equity series
// as a positive fraction (0.15 means a 15% drawdown).
func MaxDrawdown(equity []float64) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)

	for _, v := range equity {
		if v > peak {
			peak = v
		}

		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// Clip bounds v to the closed interval [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
