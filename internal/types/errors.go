package types

import (
	"fmt"
	"strings"
)

// ValidationError reports a missing field or a rejected value in a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports a stored file that does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Name)
}

// TranscodeError reports a failed media tool invocation. Output carries the
// tool's diagnostic text verbatim.
type TranscodeError struct {
	Op     string
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	out := strings.TrimSpace(e.Output)
	switch {
	case out != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v\n%s", e.Op, e.Err, out)
	case out != "":
		return fmt.Sprintf("%s: %s", e.Op, out)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": failed"
	}
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// Diagnostic returns the text surfaced to clients.
func (e *TranscodeError) Diagnostic() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	return e.Error()
}

// RecognitionError wraps any failure raised by the speech recognizer.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	if e.Err == nil {
		return "speech recognition failed"
	}
	return e.Err.Error()
}

func (e *RecognitionError) Unwrap() error { return e.Err }
