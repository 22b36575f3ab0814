package model

import "time"

// OutcomeKind is the terminal classification of one spreadsheet row.
type OutcomeKind string

const (
	OutcomeProcessed       OutcomeKind = "processed"
	OutcomeMappingError    OutcomeKind = "mapping_error"
	OutcomeSubmissionError OutcomeKind = "submission_error"
)

// RowOutcome is created once per row and never mutated. Processed rows carry
// the API response id; error rows carry the failure message. The original
// raw row travels with every variant so reports can reproduce the source.
type RowOutcome struct {
	Kind    OutcomeKind
	Raw     RawRow
	Payload any    // the API-bound record, nil for mapping errors
	APIID   int64  // id returned by the API, processed rows only
	Err     string // failure message, error rows only
}

// Processed builds a success outcome.
func Processed(raw RawRow, payload any, apiID int64) RowOutcome {
	return RowOutcome{Kind: OutcomeProcessed, Raw: raw, Payload: payload, APIID: apiID}
}

// MappingFailed builds a mapping-error outcome from a row-fatal error.
func MappingFailed(raw RawRow, err error) RowOutcome {
	return RowOutcome{Kind: OutcomeMappingError, Raw: raw, Err: err.Error()}
}

// SubmissionFailed builds a submission-error outcome. The payload is kept so
// the error artifact can be re-submitted with the retry command.
func SubmissionFailed(raw RawRow, payload any, err error) RowOutcome {
	return RowOutcome{Kind: OutcomeSubmissionError, Raw: raw, Payload: payload, Err: err.Error()}
}

// RunStatus represents the state of an import run in the journal.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one journal entry: a single invocation of an import command over
// one source file.
type Run struct {
	ID               string    `json:"id"`
	Command          string    `json:"command"`
	Source           string    `json:"source"`
	Status           RunStatus `json:"status"`
	Processed        int       `json:"processed"`
	MappingErrors    int       `json:"mapping_errors"`
	SubmissionErrors int       `json:"submission_errors"`
	Artifacts        []string  `json:"artifacts,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}
