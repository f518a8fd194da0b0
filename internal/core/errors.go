package core

import "errors"

var (
	// ErrNotFound is returned when no record exists for a message id
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateMessageID is returned by RecordTx.Create when the message id is taken
	ErrDuplicateMessageID = errors.New("duplicate message id")
	// ErrInvalidRequest is returned for requests that fail validation
	ErrInvalidRequest = errors.New("invalid analysis request")
)

// AnalysisError wraps a failure of one orchestrator step
type AnalysisError struct {
	Op     string
	Detail string
	Err    error
}

func (e *AnalysisError) Error() string {
	msg := e.Op
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// WrapError wraps err with the failing operation name. A nil err stays nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AnalysisError{Op: op, Err: err}
}
