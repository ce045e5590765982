package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/quantfork/chainsignal/internal/backtest"
	"github.com/quantfork/chainsignal/internal/combiner"
	"github.com/quantfork/chainsignal/internal/score"
)

// sampleConfig mirrors backtest.Config with plain pointer times so the
// generated YAML round-trips through ParseConfig. Optional times marshal as
// omitted keys instead of empty sequences.
type sampleConfig struct {
	InitialCapital      float64                `yaml:"initial_capital"`
	StartTime           *time.Time             `yaml:"start_time,omitempty"`
	EndTime             *time.Time             `yaml:"end_time,omitempty"`
	UniverseSize        int                    `yaml:"universe_size"`
	PoolMultiplier      int                    `yaml:"pool_multiplier"`
	TopN                int                    `yaml:"top_n"`
	RebalanceWeekday    int                    `yaml:"rebalance_weekday"`
	SizingMode          backtest.SizingMode    `yaml:"sizing_mode"`
	FeeRate             float64                `yaml:"fee_rate"`
	StopLossThreshold   float64                `yaml:"stop_loss_threshold"`
	KillSwitchThreshold float64                `yaml:"kill_switch_threshold"`
	RollingWindow       int                    `yaml:"rolling_window"`
	CategoryWeights     score.CategoryWeights  `yaml:"category_weights"`
	SignalWeights       combiner.SignalWeights `yaml:"signal_weights"`
	CombinerMode        backtest.CombinerMode  `yaml:"combiner_mode"`
	TrainStart          *time.Time             `yaml:"train_start,omitempty"`
	TrainEnd            *time.Time             `yaml:"train_end,omitempty"`
}

func toSample(c backtest.Config) sampleConfig {
	return sampleConfig{
		InitialCapital:      c.InitialCapital,
		StartTime:           optTime(c.StartTime),
		EndTime:             optTime(c.EndTime),
		UniverseSize:        c.UniverseSize,
		PoolMultiplier:      c.PoolMultiplier,
		TopN:                c.TopN,
		RebalanceWeekday:    int(c.RebalanceWeekday),
		SizingMode:          c.SizingMode,
		FeeRate:             c.FeeRate,
		StopLossThreshold:   c.StopLossThreshold,
		KillSwitchThreshold: c.KillSwitchThreshold,
		RollingWindow:       c.RollingWindow,
		CategoryWeights:     c.CategoryWeights,
		SignalWeights:       c.SignalWeights,
		CombinerMode:        c.CombinerMode,
		TrainStart:          optTime(c.TrainStart),
		TrainEnd:            optTime(c.TrainEnd),
	}
}

func optTime(o optional.Option[time.Time]) *time.Time {
	if o.IsNone() {
		return nil
	}

	t := o.Unwrap()

	return &t
}

// Generates the JSON schema for the backtest config, plus a sample config
// pointing at it, under ./config.
func main() {
	config := backtest.DefaultConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	schemaName := "backtest-config.json"
	schemaPath := filepath.Join("./config", schemaName)
	sampleConfigPath := filepath.Join("./config", "backtest-config.yaml")

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		log.Fatalf("Failed to write schema to file: %v", err)
	}

	if _, err := os.Stat(sampleConfigPath); os.IsNotExist(err) {
		yamlBytes, err := yaml.Marshal(toSample(config))
		if err != nil {
			log.Fatalf("Failed to marshal sample config to yaml: %v", err)
		}

		yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)

		if err := os.WriteFile(sampleConfigPath, yamlBytes, 0644); err != nil {
			log.Fatalf("Failed to write sample config to file: %v", err)
		}

		log.Printf("Sample config successfully generated at %s", sampleConfigPath)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)
}
