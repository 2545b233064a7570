package domain

import "fmt"

// The error taxonomy below is the contract between the analytics core and the
// HTTP layer. Every error is recoverable at the request boundary; the core
// never retries internally.

// InsufficientDataError is returned when fewer than two aligned return periods
// exist for an asset, leaving variance undefined.
type InsufficientDataError struct {
	Symbol  string
	Periods int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %d aligned periods (need at least 2)", e.Symbol, e.Periods)
}

// SymbolMismatchError is returned when a requested symbol has no historical series.
type SymbolMismatchError struct {
	Symbol string
}

func (e *SymbolMismatchError) Error() string {
	return fmt.Sprintf("no historical series for symbol %s", e.Symbol)
}

// InvalidPortfolioError is returned for weight vectors that are negative or do
// not sum to 1 within tolerance, and for holdings with no positive value.
type InvalidPortfolioError struct {
	Reason string
}

func (e *InvalidPortfolioError) Error() string {
	return fmt.Sprintf("invalid portfolio: %s", e.Reason)
}

// OptimizationInfeasibleError is returned when the weight bounds make the
// full-investment constraint unsatisfiable.
type OptimizationInfeasibleError struct {
	Reason string
}

func (e *OptimizationInfeasibleError) Error() string {
	return fmt.Sprintf("optimization infeasible: %s", e.Reason)
}

// InsufficientHistoryError is returned when a series is too short to fit
// drift and volatility for trend prediction.
type InsufficientHistoryError struct {
	Symbol       string
	Observations int
	Required     int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s: %d observations (need at least %d)",
		e.Symbol, e.Observations, e.Required)
}
