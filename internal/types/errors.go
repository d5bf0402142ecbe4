package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSearchUnavailable   = errors.New("search unavailable")
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	ErrSynthesisImpossible = errors.New("synthesis impossible")
	ErrPersistence         = errors.New("persistence error")
	ErrUnparsableResponse  = errors.New("unparsable reasoning response")
	ErrNotFound            = errors.New("not found")
	ErrInvalidSymbol       = errors.New("invalid symbol")
)

// AnalysisError reports one or more signals that could not be produced for a symbol.
type AnalysisError struct {
	Symbol  string
	Missing []SignalKind
	Err     error
}

func (e *AnalysisError) Error() string {
	names := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		names[i] = string(k)
	}
	msg := fmt.Sprintf("analysis unavailable for %s (missing: %s)", e.Symbol, strings.Join(names, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AnalysisError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAnalysisUnavailable}
	}
	return []error{ErrAnalysisUnavailable, e.Err}
}

// SynthesisError is returned when fewer than two signals are present.
type SynthesisError struct {
	Symbol  string
	Present int
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis impossible for %s: %d signal(s) present, need at least 2", e.Symbol, e.Present)
}

func (e *SynthesisError) Unwrap() error { return ErrSynthesisImpossible }

// PersistenceError carries the computed recommendation so the caller can retry the save.
type PersistenceError struct {
	Op             string
	Symbol         string
	Recommendation *Recommendation
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed for %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// MissingSignals extracts the missing signal kinds from err, if any.
func MissingSignals(err error) []SignalKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Missing
	}
	return nil
}
