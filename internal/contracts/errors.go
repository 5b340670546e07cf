package contracts

import "fmt"

// Error taxonomy. Per-symbol failures are caught at the orchestration
// boundary (CLI, API, scheduler) and converted into per-symbol status;
// the quantitative core always fails fast with a symbol-tagged error
// rather than silently returning degraded data.

// DataError reports insufficient or low-quality input data. Training and
// backtesting for the symbol are skipped; not fatal to a batch.
type DataError struct {
	Symbol string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error for %s: %s", e.Symbol, e.Reason)
}

// NewDataError creates a symbol-tagged DataError.
func NewDataError(symbol, format string, args ...interface{}) *DataError {
	return &DataError{Symbol: symbol, Reason: fmt.Sprintf(format, args...)}
}

// ModelError reports a forecaster that is not trained or not initialized.
// Fatal to that symbol's operation only.
type ModelError struct {
	Symbol string
	Reason string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error for %s: %s", e.Symbol, e.Reason)
}

// NewModelError creates a symbol-tagged ModelError.
func NewModelError(symbol, format string, args ...interface{}) *ModelError {
	return &ModelError{Symbol: symbol, Reason: fmt.Sprintf(format, args...)}
}

// PredictionError reports a failed prediction call (insufficient context,
// untrained model). Fatal to that call only.
type PredictionError struct {
	Symbol string
	Reason string
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction error for %s: %s", e.Symbol, e.Reason)
}

// NewPredictionError creates a symbol-tagged PredictionError.
func NewPredictionError(symbol, format string, args ...interface{}) *PredictionError {
	return &PredictionError{Symbol: symbol, Reason: fmt.Sprintf(format, args...)}
}
