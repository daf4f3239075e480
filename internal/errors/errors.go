package errors

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable identifier for a pipeline failure
// class. Codes appear in log entries and in the run report; they are
// part of the operational contract and must not be renamed casually.
type Code string

const (
	// CodeSourceUnavailable: the source file is missing or unreadable.
	// Recovered locally; the source is skipped and the run continues.
	CodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"

	// CodeSchemaMismatch: a required column is absent from the input.
	// Recovered locally; the source's downstream stages are skipped.
	CodeSchemaMismatch Code = "SCHEMA_MISMATCH"

	// CodeRowRejected: a row failed coercion, null, or negative checks.
	// Never surfaced per-row, only as an aggregate count per file.
	CodeRowRejected Code = "ROW_REJECTED"

	// CodeUnresolvedForeignKey: a fact row references a natural key
	// absent from its dimension. The row is dropped and counted.
	CodeUnresolvedForeignKey Code = "UNRESOLVED_FOREIGN_KEY"

	// CodeStoreWriteFailure: the persistence layer failed while loading
	// a table. The table is marked failed; remaining tables still load.
	CodeStoreWriteFailure Code = "STORE_WRITE_FAILURE"

	// CodeStructural: a declared column is missing from a table handed
	// to the scrubber, or a similar configuration fault.
	CodeStructural Code = "STRUCTURAL_ERROR"
)

// PipelineError is the structured error type used across all stages.
// Stage and Source identify where the condition arose; Err carries the
// underlying cause when one exists.
type PipelineError struct {
	Code   Code
	Stage  string
	Source string
	Msg    string
	Err    error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Msg)
	if e.Source != "" {
		msg = fmt.Sprintf("%s (source=%s)", msg, e.Source)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches another *PipelineError by code, so callers can test
// errors.Is(err, &PipelineError{Code: CodeSchemaMismatch}).
func (e *PipelineError) Is(target error) bool {
	var pe *PipelineError
	if !errors.As(target, &pe) {
		return false
	}
	return pe.Code == e.Code
}

// NewSourceUnavailable reports a missing or unreadable source file.
func NewSourceUnavailable(stage, source string, err error) *PipelineError {
	return &PipelineError{
		Code:   CodeSourceUnavailable,
		Stage:  stage,
		Source: source,
		Msg:    "source file missing or unreadable",
		Err:    err,
	}
}

// NewSchemaMismatch reports required columns absent from a source.
func NewSchemaMismatch(stage, source string, missing []string) *PipelineError {
	return &PipelineError{
		Code:   CodeSchemaMismatch,
		Stage:  stage,
		Source: source,
		Msg:    fmt.Sprintf("required columns missing: %v", missing),
	}
}

// NewStoreWriteFailure reports a failed table load.
func NewStoreWriteFailure(table string, err error) *PipelineError {
	return &PipelineError{
		Code:   CodeStoreWriteFailure,
		Stage:  "load",
		Source: table,
		Msg:    "table load failed",
		Err:    err,
	}
}

// NewStructural reports a configuration or programming fault, such as a
// scrubbing option naming a column the table does not declare.
func NewStructural(stage, source, msg string) *PipelineError {
	return &PipelineError{
		Code:   CodeStructural,
		Stage:  stage,
		Source: source,
		Msg:    msg,
	}
}

// CodeOf extracts the pipeline code from an error chain, or "" if the
// error is not a PipelineError.
func CodeOf(err error) Code {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsCode reports whether err carries the given pipeline code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
