package backtest

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/quantfork/chainsignal/internal/combiner"
	"github.com/quantfork/chainsignal/internal/score"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// CombinerMode selects the ranking strategy.
type CombinerMode string

const (
	CombinerModeWeighted CombinerMode = "weighted"
	CombinerModeModel    CombinerMode = "model"
)

// SizingMode selects how target weights are derived from the ranking.
type SizingMode string

const (
	// SizingEqualWeight splits capital evenly across the selected tickers.
	SizingEqualWeight SizingMode = "equal_weight"
	// SizingScoreWeighted sizes positions proportionally to ranking score.
	SizingScoreWeighted SizingMode = "score_weighted"
)

// Config is the full configuration surface of one backtest run. All knobs the
// pipeline consumes live here; there is no process-wide mutable state.
type Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting cash in USD,minimum=0"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the backtest period"`

	// UniverseSize is the number of tickers in the investable universe.
	// PoolMultiplier scales it to the candidate pool handed to the ranker.
	UniverseSize   int `yaml:"universe_size" json:"universe_size" validate:"gt=0" jsonschema:"title=Universe Size,minimum=1"`
	PoolMultiplier int `yaml:"pool_multiplier" json:"pool_multiplier" validate:"gte=1" jsonschema:"title=Pool Multiplier,description=Candidate pool size as a multiple of the universe size,minimum=1"`

	// TopN is the number of positions held after each rebalance.
	TopN int `yaml:"top_n" json:"top_n" validate:"gt=0" jsonschema:"title=Top N,description=Positions held after each rebalance,minimum=1"`

	// RebalanceWeekday is the weekly rebalance trigger day.
	RebalanceWeekday time.Weekday `yaml:"rebalance_weekday" json:"rebalance_weekday" validate:"gte=0,lte=6" jsonschema:"title=Rebalance Weekday,description=0=Sunday through 6=Saturday"`

	SizingMode SizingMode `yaml:"sizing_mode" json:"sizing_mode" validate:"oneof=equal_weight score_weighted" jsonschema:"title=Sizing Mode"`

	// FeeRate is the trading fee as a fraction of traded notional.
	FeeRate float64 `yaml:"fee_rate" json:"fee_rate" validate:"gte=0,lt=1" jsonschema:"title=Fee Rate,minimum=0"`

	// StopLossThreshold closes a position whose drawdown from entry exceeds
	// this positive fraction.
	StopLossThreshold float64 `yaml:"stop_loss_threshold" json:"stop_loss_threshold" validate:"gt=0,lt=1" jsonschema:"title=Stop Loss Threshold"`

	// KillSwitchThreshold force-liquidates the portfolio when equity falls
	// more than this positive fraction from its running peak.
	KillSwitchThreshold float64 `yaml:"kill_switch_threshold" json:"kill_switch_threshold" validate:"gt=0,lt=1" jsonschema:"title=Kill Switch Threshold"`

	// RollingWindow is the trailing window length for unbounded indicator
	// normalization, in trading days.
	RollingWindow int `yaml:"rolling_window" json:"rolling_window" validate:"gt=1" jsonschema:"title=Rolling Window,minimum=2"`

	CategoryWeights score.CategoryWeights  `yaml:"category_weights" json:"category_weights" jsonschema:"title=Category Weights"`
	SignalWeights   combiner.SignalWeights `yaml:"signal_weights" json:"signal_weights" jsonschema:"title=Signal Weights"`

	CombinerMode CombinerMode `yaml:"combiner_mode" json:"combiner_mode" validate:"oneof=weighted model" jsonschema:"title=Combiner Mode"`

	// TrainStart and TrainEnd bound the learned-model training window. Both
	// are required in model mode; TrainEnd must precede the backtest start.
	TrainStart optional.Option[time.Time] `yaml:"train_start" json:"train_start" jsonschema:"title=Train Start"`
	TrainEnd   optional.Option[time.Time] `yaml:"train_end" json:"train_end" jsonschema:"title=Train End"`
}

// DefaultConfig returns the standard run configuration.
func DefaultConfig() Config {
	return Config{
		InitialCapital:      100000,
		StartTime:           optional.None[time.Time](),
		EndTime:             optional.None[time.Time](),
		UniverseSize:        20,
		PoolMultiplier:      3,
		TopN:                10,
		RebalanceWeekday:    time.Monday,
		SizingMode:          SizingEqualWeight,
		FeeRate:             0.001,
		StopLossThreshold:   0.08,
		KillSwitchThreshold: 0.15,
		RollingWindow:       252,
		CategoryWeights:     score.DefaultCategoryWeights(),
		SignalWeights:       combiner.DefaultSignalWeights(),
		CombinerMode:        CombinerModeWeighted,
		TrainStart:          optional.None[time.Time](),
		TrainEnd:            optional.None[time.Time](),
	}
}

// UnmarshalYAML implements custom unmarshaling so optional times accept plain
// YAML timestamps.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plainConfig struct {
		InitialCapital      float64                 `yaml:"initial_capital"`
		StartTime           *time.Time              `yaml:"start_time"`
		EndTime             *time.Time              `yaml:"end_time"`
		UniverseSize        int                     `yaml:"universe_size"`
		PoolMultiplier      int                     `yaml:"pool_multiplier"`
		TopN                int                     `yaml:"top_n"`
		RebalanceWeekday    *int                    `yaml:"rebalance_weekday"`
		SizingMode          SizingMode              `yaml:"sizing_mode"`
		FeeRate             float64                 `yaml:"fee_rate"`
		StopLossThreshold   float64                 `yaml:"stop_loss_threshold"`
		KillSwitchThreshold float64                 `yaml:"kill_switch_threshold"`
		RollingWindow       int                     `yaml:"rolling_window"`
		CategoryWeights     *score.CategoryWeights  `yaml:"category_weights"`
		SignalWeights       *combiner.SignalWeights `yaml:"signal_weights"`
		CombinerMode        CombinerMode            `yaml:"combiner_mode"`
		TrainStart          *time.Time              `yaml:"train_start"`
		TrainEnd            *time.Time              `yaml:"train_end"`
	}

	defaults := DefaultConfig()

	plain := plainConfig{
		InitialCapital:      defaults.InitialCapital,
		UniverseSize:        defaults.UniverseSize,
		PoolMultiplier:      defaults.PoolMultiplier,
		TopN:                defaults.TopN,
		SizingMode:          defaults.SizingMode,
		FeeRate:             defaults.FeeRate,
		StopLossThreshold:   defaults.StopLossThreshold,
		KillSwitchThreshold: defaults.KillSwitchThreshold,
		RollingWindow:       defaults.RollingWindow,
		CombinerMode:        defaults.CombinerMode,
	}

	if err := value.Decode(&plain); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	c.InitialCapital = plain.InitialCapital
	c.UniverseSize = plain.UniverseSize
	c.PoolMultiplier = plain.PoolMultiplier
	c.TopN = plain.TopN
	c.SizingMode = plain.SizingMode
	c.FeeRate = plain.FeeRate
	c.StopLossThreshold = plain.StopLossThreshold
	c.KillSwitchThreshold = plain.KillSwitchThreshold
	c.RollingWindow = plain.RollingWindow
	c.CombinerMode = plain.CombinerMode

	c.RebalanceWeekday = defaults.RebalanceWeekday
	if plain.RebalanceWeekday != nil {
		c.RebalanceWeekday = time.Weekday(*plain.RebalanceWeekday)
	}

	c.CategoryWeights = defaults.CategoryWeights
	if plain.CategoryWeights != nil {
		c.CategoryWeights = *plain.CategoryWeights
	}

	c.SignalWeights = defaults.SignalWeights
	if plain.SignalWeights != nil {
		c.SignalWeights = *plain.SignalWeights
	}

	c.StartTime = optional.None[time.Time]()
	if plain.StartTime != nil {
		c.StartTime = optional.Some(*plain.StartTime)
	}

	c.EndTime = optional.None[time.Time]()
	if plain.EndTime != nil {
		c.EndTime = optional.Some(*plain.EndTime)
	}

	c.TrainStart = optional.None[time.Time]()
	if plain.TrainStart != nil {
		c.TrainStart = optional.Some(*plain.TrainStart)
	}

	c.TrainEnd = optional.None[time.Time]()
	if plain.TrainEnd != nil {
		c.TrainEnd = optional.Some(*plain.TrainEnd)
	}

	return nil
}

// ParseConfig parses and validates a YAML config document.
func ParseConfig(raw []byte) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(raw, &config); err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks structural constraints and the cross-field invariants that
// must be rejected before any computation starts.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if err := c.CategoryWeights.Validate(); err != nil {
		return err
	}

	if err := c.SignalWeights.Validate(); err != nil {
		return err
	}

	if c.TopN > c.UniverseSize {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"top_n %d exceeds universe size %d", c.TopN, c.UniverseSize)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "start_time must precede end_time")
	}

	if c.CombinerMode == CombinerModeModel {
		if c.TrainStart.IsNone() || c.TrainEnd.IsNone() {
			return errors.New(errors.ErrCodeInvalidConfiguration, "model mode requires train_start and train_end")
		}

		if !c.TrainStart.Unwrap().Before(c.TrainEnd.Unwrap()) {
			return errors.New(errors.ErrCodeInvalidConfiguration, "train_start must precede train_end")
		}

		if c.StartTime.IsSome() && !c.TrainEnd.Unwrap().Before(c.StartTime.Unwrap()) {
			return errors.Newf(errors.ErrCodeTemporalLeakage,
				"train_end %s must precede backtest start %s",
				c.TrainEnd.Unwrap().Format(time.DateOnly), c.StartTime.Unwrap().Format(time.DateOnly))
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the run configuration.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for a backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON renders the schema as indented JSON.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
