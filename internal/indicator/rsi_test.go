package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/quantfork/chainsignal/internal/types"
	"github.com/stretchr/testify/suite"
)

type RSITestSuite struct {
	suite.Suite
}

func TestRSISuite(t *testing.T) {
	suite.Run(t, new(RSITestSuite))
}

func closesToBars(closes []float64) []types.PriceBar {
	bars := make([]types.PriceBar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, c := range closes {
		bars[i] = types.PriceBar{
			Time:   base.AddDate(0, 0, i),
			Ticker: "TEST",
			Open:   c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		}
	}

	return bars
}

func (suite *RSITestSuite) TestInsufficientHistoryIsNaN() {
	rsi := NewRSI()
	raw := rsi.Compute(closesToBars([]float64{100, 101, 102}))

	for i, v := range raw {
		suite.True(math.IsNaN(v), "index %d should be NaN", i)
	}
}

func (suite *RSITestSuite) TestPerfectUptrendIsHundred() {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	raw := NewRSI().Compute(closesToBars(closes))

	suite.True(math.IsNaN(raw[13]))
	suite.InDelta(100.0, raw[14], 1e-9)
	suite.InDelta(100.0, raw[29], 1e-9)
}

func (suite *RSITestSuite) TestPerfectDowntrendIsZero() {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}

	raw := NewRSI().Compute(closesToBars(closes))

	suite.InDelta(0.0, raw[29], 1e-9)
}

func (suite *RSITestSuite) TestStaysWithinOscillatorRange() {
	closes := []float64{
		100, 102, 99, 104, 101, 97, 105, 103, 99, 108,
		104, 101, 110, 106, 103, 112, 108, 105, 114, 110,
	}

	raw := NewRSI().Compute(closesToBars(closes))

	for i := 15; i < len(raw); i++ {
		suite.GreaterOrEqual(raw[i], 0.0)
		suite.LessOrEqual(raw[i], 100.0)
	}
}
