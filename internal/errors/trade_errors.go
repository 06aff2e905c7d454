package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies trading errors by how the caller should react.
type ErrorCategory string

const (
	// Fatal errors halt the owning ledger pending operator intervention.
	ErrorCategoryInvariant ErrorCategory = "INVARIANT"

	// Recoverable outcomes: periodic tasks log these and continue.
	ErrorCategoryData     ErrorCategory = "DATA"
	ErrorCategoryRiskGate ErrorCategory = "RISK_GATE"
	ErrorCategoryFunds    ErrorCategory = "FUNDS"
	ErrorCategoryHoldings ErrorCategory = "HOLDINGS"
	ErrorCategoryStale    ErrorCategory = "STALE"
	ErrorCategoryConflict ErrorCategory = "CONFLICT"
	ErrorCategoryBacktest ErrorCategory = "BACKTEST"
	ErrorCategoryConfig   ErrorCategory = "CONFIG"
)

// Sentinel errors for errors.Is matching across packages.
var (
	ErrInsufficientData     = errors.New("insufficient signal data")
	ErrRiskGateDenied       = errors.New("risk gate denied")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrStaleDecision        = errors.New("decision expired")
	ErrConcurrentMutation   = errors.New("concurrent mutation conflict")
	ErrLedgerHalted         = errors.New("ledger halted")
	ErrInvariantViolation   = errors.New("ledger invariant violation")
)

// TradeError is a categorized error with component context, modeled on
// the trading error taxonomy: every expected outcome is typed and
// recoverable, only invariant violations are fatal.
type TradeError struct {
	Category   ErrorCategory
	Component  string
	Message    string
	Underlying error
}

func (e *TradeError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Component, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Component, e.Message)
}

func (e *TradeError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether this error must halt the owning ledger.
func (e *TradeError) IsFatal() bool {
	return e.Category == ErrorCategoryInvariant
}

func newError(category ErrorCategory, component string, sentinel error, format string, args ...interface{}) *TradeError {
	return &TradeError{
		Category:   category,
		Component:  component,
		Message:    fmt.Sprintf(format, args...),
		Underlying: sentinel,
	}
}

// NewInsufficientData reports that the signal engine lacked enough
// score sources to produce a decision.
func NewInsufficientData(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryData, component, ErrInsufficientData, format, args...)
}

// NewRiskGateDenied reports a decision refused by the risk gate.
func NewRiskGateDenied(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryRiskGate, component, ErrRiskGateDenied, format, args...)
}

func NewInsufficientFunds(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryFunds, component, ErrInsufficientFunds, format, args...)
}

func NewInsufficientHoldings(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryHoldings, component, ErrInsufficientHoldings, format, args...)
}

func NewStaleDecision(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryStale, component, ErrStaleDecision, format, args...)
}

// NewConcurrentMutation reports lock contention resolved to a no-op.
func NewConcurrentMutation(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryConflict, component, ErrConcurrentMutation, format, args...)
}

// NewInvariantViolation reports an unrecoverable ledger state. The
// ledger halts itself when it returns one of these.
func NewInvariantViolation(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryInvariant, component, ErrInvariantViolation, format, args...)
}

func NewBacktestError(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryBacktest, component, nil, format, args...)
}

func NewConfigError(component, format string, args ...interface{}) *TradeError {
	return newError(ErrorCategoryConfig, component, nil, format, args...)
}

// IsRecoverable reports whether err is one of the expected trading
// outcomes a periodic task should log and skip.
func IsRecoverable(err error) bool {
	var te *TradeError
	if errors.As(err, &te) {
		return !te.IsFatal()
	}
	return false
}
