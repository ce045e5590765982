package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidWeights       ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105
	ErrCodeInvalidType          ErrorCode = 106

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeHistoricalDataFailed  ErrorCode = 203
	ErrCodeDataGap               ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Classifier/extraction errors (400-499)
	ErrCodeClassifierUnavailable ErrorCode = 400
	ErrCodeClassifierTimeout     ErrorCode = 401
	ErrCodeClassifierResponse    ErrorCode = 402
	ErrCodeExtractionCacheFailed ErrorCode = 403

	// Ranking/combiner errors (500-599)
	ErrCodeRankingDegraded  ErrorCode = 500
	ErrCodeTemporalLeakage  ErrorCode = 501
	ErrCodeModelNotTrained  ErrorCode = 502
	ErrCodeModelFitFailed   ErrorCode = 503
	ErrCodeMissingFeatures  ErrorCode = 504
	ErrCodeUniverseTooSmall ErrorCode = 505

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil     ErrorCode = 600
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestConfigError  ErrorCode = 602
	ErrCodeBacktestNoUniverse   ErrorCode = 603
	ErrCodeBacktestNoDatasource ErrorCode = 604
	ErrCodeResultWriteFailed    ErrorCode = 605
)
