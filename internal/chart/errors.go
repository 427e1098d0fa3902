package chart

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyData is returned when no valid price point survives normalization.
	ErrEmptyData = errors.New("no valid price points")
	// ErrInvalidConfiguration is returned when Options fail validation.
	ErrInvalidConfiguration = errors.New("invalid chart configuration")
)

// Stage names a step of the render pipeline.
type Stage string

const (
	StageConfigure Stage = "configure"
	StageNormalize Stage = "normalize"
	StageSmooth    Stage = "smooth"
)

// StageError reports which pipeline stage failed for which symbol.
type StageError struct {
	Stage  Stage
	Symbol string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("chart %s: %s: %v", e.Symbol, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// InsufficientDataWarning reports fewer trading days than requested.
// It is informational: rendering proceeds with the data available.
type InsufficientDataWarning struct {
	Symbol    string
	Days      int
	Requested int
}

func (w *InsufficientDataWarning) Error() string {
	return fmt.Sprintf("%s: only %d trading days available (requested %d)", w.Symbol, w.Days, w.Requested)
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
