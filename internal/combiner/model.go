package combiner

import (
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// featureCount is the dimensionality of the feature vector.
const featureCount = 4

// TrainingSample is one observation for model fitting: the features observed
// at a historical date and the realized forward return that followed.
type TrainingSample struct {
	Features      Features
	ForwardReturn float64
}

// ModelCombiner ranks by a linear regression of forward returns on the
// feature vector. The training window must end strictly before the backtest
// window begins; a configuration violating that is rejected at construction,
// never silently accepted.
//
// Per-ticker prediction failures (incomplete features) fall back to the
// weighted-sum score for that ticker only.
type ModelCombiner struct {
	fallback *WeightedCombiner
	logger   *logger.Logger

	trainEnd      time.Time
	backtestStart time.Time

	// beta holds the fitted coefficients: intercept followed by one weight
	// per feature component. Nil until Train succeeds.
	beta []float64
}

// NewModelCombiner creates a learned-model combiner guarding the temporal
// boundary between training and backtest windows.
func NewModelCombiner(fallback *WeightedCombiner, trainEnd, backtestStart time.Time, log *logger.Logger) (*ModelCombiner, error) {
	if fallback == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "model combiner requires a weighted fallback")
	}

	if !trainEnd.Before(backtestStart) {
		return nil, errors.Newf(errors.ErrCodeTemporalLeakage,
			"training window ends at %s, on or after backtest start %s",
			trainEnd.Format(time.DateOnly), backtestStart.Format(time.DateOnly))
	}

	return &ModelCombiner{
		fallback:      fallback,
		logger:        log,
		trainEnd:      trainEnd,
		backtestStart: backtestStart,
	}, nil
}

// Train fits the regression by ordinary least squares over the sample set.
// Samples observed at or after the training boundary are rejected.
func (m *ModelCombiner) Train(samples []TrainingSample, observedAt []time.Time) error {
	if len(samples) <= featureCount {
		return errors.Wrap(errors.ErrCodeModelFitFailed, "training set too small",
			errors.NewInsufficientDataErrorf(featureCount+1, len(samples), "",
				"need at least %d samples to fit %d coefficients, got %d",
				featureCount+1, featureCount+1, len(samples)))
	}

	if len(observedAt) != len(samples) {
		return errors.New(errors.ErrCodeModelFitFailed, "observation dates must align with samples")
	}

	for _, at := range observedAt {
		if at.After(m.trainEnd) {
			return errors.Newf(errors.ErrCodeTemporalLeakage,
				"training sample observed at %s, after training end %s",
				at.Format(time.DateOnly), m.trainEnd.Format(time.DateOnly))
		}
	}

	rows := 0

	design := make([]float64, 0, len(samples)*(featureCount+1))
	target := make([]float64, 0, len(samples))

	for _, sample := range samples {
		if !sample.Features.Complete() {
			continue
		}

		design = append(design, 1)
		design = append(design, sample.Features.vector()...)
		target = append(target, sample.ForwardReturn)
		rows++
	}

	if rows <= featureCount {
		return errors.Wrap(errors.ErrCodeModelFitFailed, "training set too small after filtering",
			errors.NewInsufficientDataErrorf(featureCount+1, rows, "",
				"only %d complete samples after filtering, need more than %d", rows, featureCount))
	}

	x := mat.NewDense(rows, featureCount+1, design)
	y := mat.NewVecDense(rows, target)

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return errors.Wrap(errors.ErrCodeModelFitFailed, "least squares solve failed", err)
	}

	m.beta = make([]float64, featureCount+1)
	for i := range m.beta {
		m.beta[i] = beta.AtVec(i)
	}

	m.logger.Info("regression model trained",
		zap.Int("samples", rows),
		zap.Float64s("coefficients", m.beta),
	)

	return nil
}

// Trained reports whether coefficients are available.
func (m *ModelCombiner) Trained() bool {
	return m.beta != nil
}

// Predict returns the predicted forward return for one ticker's features.
func (m *ModelCombiner) Predict(f Features) (float64, error) {
	if !m.Trained() {
		return 0, errors.New(errors.ErrCodeModelNotTrained, "model has not been trained")
	}

	if !f.Complete() {
		return 0, errors.Newf(errors.ErrCodeMissingFeatures, "incomplete features for %s", f.Ticker)
	}

	prediction := m.beta[0]
	for i, component := range f.vector() {
		prediction += m.beta[i+1] * component
	}

	return prediction, nil
}

// Rank implements Combiner. Tickers whose prediction fails use the weighted
// fallback score instead of dropping out of the ranking.
func (m *ModelCombiner) Rank(features []Features, asOf time.Time) []types.ScoredTicker {
	scored := make([]types.ScoredTicker, len(features))

	for i, f := range features {
		score, err := m.Predict(f)
		if err != nil {
			m.logger.Warn("model prediction failed, using weighted fallback",
				zap.String("ticker", f.Ticker),
				zap.Time("as_of", asOf),
				zap.Error(err),
			)

			score = m.fallback.Score(f)
		}

		scored[i] = types.ScoredTicker{Ticker: f.Ticker, Score: score}
	}

	return rankByScore(scored)
}
