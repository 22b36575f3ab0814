package model

import "fmt"

// CatalogLoadError indicates a reference catalog could not be loaded.
// It is fatal to the whole run: without catalogs no row can be mapped safely.
type CatalogLoadError struct {
	Kind string
	Err  error
}

func (e *CatalogLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s: load failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("catalog %s: no entries returned", e.Kind)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// NormalizationError indicates a required field was absent or unparseable.
// Fatal to the row, not the run.
type NormalizationError struct {
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// EntityNotFoundError indicates a normalized identifier matched no catalog
// entry by exact, secondary, or substring lookup. Fatal to the row.
type EntityNotFoundError struct {
	Field string
	Value string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("field %q: no catalog entry matches %q", e.Field, e.Value)
}

// ReconciliationError indicates the declared total does not match the total
// recomputed from its components within tolerance. Fatal to the row.
type ReconciliationError struct {
	Computed float64
	Declared float64
	Inputs   map[string]float64
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("declared total %.4f does not match computed total %.4f", e.Declared, e.Computed)
}

// SubmissionError indicates the API rejected a payload or the call failed at
// the transport level. Fatal to the row, independent of sibling rows.
type SubmissionError struct {
	Status int
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("submission failed with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
