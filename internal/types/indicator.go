package types

// IndicatorType identifies a technical indicator.
type IndicatorType string

const (
	IndicatorTypeRSI                  IndicatorType = "rsi"
	IndicatorTypeMACD                 IndicatorType = "macd"
	IndicatorTypeTrendStrength        IndicatorType = "trend_strength"
	IndicatorTypeStochasticOscillator IndicatorType = "stochastic_oscillator"
	IndicatorTypeWilliamsR            IndicatorType = "williams_r"
	IndicatorTypeROC                  IndicatorType = "roc"
	IndicatorTypeMomentum             IndicatorType = "momentum"
	IndicatorTypeVolumeRatio          IndicatorType = "volume_ratio"
	IndicatorTypeAccumulation         IndicatorType = "accumulation"
	IndicatorTypeATR                  IndicatorType = "atr"
	IndicatorTypeChannelPosition      IndicatorType = "channel_position"
)

// IndicatorCategory groups indicators for the category score aggregation.
type IndicatorCategory string

const (
	CategoryTrend      IndicatorCategory = "trend"
	CategoryMomentum   IndicatorCategory = "momentum"
	CategoryVolume     IndicatorCategory = "volume"
	CategoryVolatility IndicatorCategory = "volatility"
)

// AllCategories lists the four indicator categories in reporting order.
var AllCategories = []IndicatorCategory{
	CategoryTrend,
	CategoryMomentum,
	CategoryVolume,
	CategoryVolatility,
}
