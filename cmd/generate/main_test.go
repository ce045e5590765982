package main

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/quantfork/chainsignal/internal/backtest"
)

func TestSampleConfigRoundTrips(t *testing.T) {
	raw, err := yaml.Marshal(toSample(backtest.DefaultConfig()))
	require.NoError(t, err)

	// optional times must marshal as omitted keys, not empty sequences
	assert.NotContains(t, string(raw), "start_time")
	assert.NotContains(t, string(raw), "[]")

	parsed, err := backtest.ParseConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, backtest.DefaultConfig(), parsed)
}

func TestSampleConfigKeepsExplicitTimes(t *testing.T) {
	config := backtest.DefaultConfig()
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	config.StartTime = optional.Some(start)
	config.EndTime = optional.Some(end)

	raw, err := yaml.Marshal(toSample(config))
	require.NoError(t, err)

	parsed, err := backtest.ParseConfig(raw)
	require.NoError(t, err)
	require.True(t, parsed.StartTime.IsSome())
	assert.True(t, parsed.StartTime.Unwrap().Equal(start))
	require.True(t, parsed.EndTime.IsSome())
	assert.True(t, parsed.EndTime.Unwrap().Equal(end))
}
