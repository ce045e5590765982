package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/quantfork/chainsignal/internal/types"
)

// DataGenerator produces synthetic daily OHLCV series for testing and
// benchmarking. Prices follow geometric Brownian motion; weekends are
// skipped so the series looks like an equity trading calendar.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a generator. Use a fixed seed for reproducible
// results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures one generated price series.
type GeneratorConfig struct {
	// Ticker is the symbol stamped on every bar.
	Ticker string
	// StartTime is the first bar date. Weekend starts roll forward to Monday.
	StartTime time.Time
	// Count is the number of trading days to generate.
	Count int
	// InitialPrice is the starting price.
	InitialPrice float64
	// Volatility controls daily price movement (0.01 is a 1% typical day).
	Volatility float64
	// Trend is the total drift over the whole series, distributed per bar.
	Trend float64
	// VolumeBase is the average daily volume.
	VolumeBase float64
	// VolumeVariance is the relative variance in volume, 0 to 1.
	VolumeVariance float64
}

// DefaultGeneratorConfig returns a neutral one-year daily series.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Ticker:         "TEST",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:          252,
		InitialPrice:   100.0,
		Volatility:     0.01,
		Trend:          0.0,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.3,
	}
}

// Generate creates the bar series described by the configuration.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.PriceBar {
	bars := make([]types.PriceBar, 0, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for len(bars) < config.Count {
		for currentTime.Weekday() == time.Saturday || currentTime.Weekday() == time.Sunday {
			currentTime = currentTime.AddDate(0, 0, 1)
		}

		open := currentPrice

		// Box-Muller transform for a normal daily return
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + priceChange + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, closePrice) + highExtension

		low := math.Min(open, closePrice) - lowExtension
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance

		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars = append(bars, types.PriceBar{
			Time:   currentTime,
			Ticker: config.Ticker,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(volume, 0),
		})

		currentPrice = closePrice
		currentTime = currentTime.AddDate(0, 0, 1)
	}

	return bars
}

// GenerateMultiTicker generates series for several tickers, varying initial
// price and volatility per ticker.
func (g *DataGenerator) GenerateMultiTicker(tickers []string, baseConfig GeneratorConfig) []types.PriceBar {
	var allBars []types.PriceBar

	for _, ticker := range tickers {
		config := baseConfig
		config.Ticker = ticker
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		allBars = append(allBars, g.Generate(config)...)
	}

	return allBars
}

func roundToDecimals(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))

	return math.Round(value*factor) / factor
}
