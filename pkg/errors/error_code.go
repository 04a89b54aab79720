package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidSchedule      ErrorCode = 101
	ErrCodeInvalidTimezone      ErrorCode = 102
	ErrCodeInvalidParameter     ErrorCode = 103

	// Snapshot/data errors (200-299)
	ErrCodeNoDataAtTimestamp     ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeUnsupportedDataFormat ErrorCode = 203

	// Selection errors (300-399)
	ErrCodeNoValidExpiry     ErrorCode = 300
	ErrCodeNoValidStrikePair ErrorCode = 301
	ErrCodeStaleQuote        ErrorCode = 302

	// Sizing/accounting errors (400-499)
	ErrCodeDegenerateSizing ErrorCode = 400

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil     ErrorCode = 600
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestNoDatasource ErrorCode = 602
	ErrCodeBacktestNoResultsDir ErrorCode = 603
	ErrCodeBacktestRunFailed    ErrorCode = 604
)
