package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptyMessage is returned when the incoming message is blank.
var ErrEmptyMessage = errors.New("message is empty")

// ErrInvalidInput is returned when the incoming message is rejected by sanitization.
var ErrInvalidInput = errors.New("invalid input")

// ErrProcessingFailed is returned when the pipeline fails unexpectedly.
var ErrProcessingFailed = errors.New("processing failed")

// ErrToolNotFound is returned when a request names an unregistered tool.
var ErrToolNotFound = errors.New("tool not found")

var (
	ErrToolUnavailable = errors.New("tool unavailable")
	ErrToolStatus      = errors.New("tool returned error status")
	ErrToolRemote      = errors.New("tool reported error")
	ErrToolInvalid     = errors.New("invalid tool request")
)

// ToolErrorKind classifies a tool failure.
type ToolErrorKind string

const (
	// KindUnavailable: transport failure or every candidate endpoint failed.
	KindUnavailable ToolErrorKind = "unavailable"
	// KindStatus: non-200 response from a single-endpoint tool.
	KindStatus ToolErrorKind = "status"
	// KindRemote: the service answered but reported a failure in its payload.
	KindRemote ToolErrorKind = "remote"
	// KindInvalid: the request could not be built or was rejected locally.
	KindInvalid ToolErrorKind = "invalid"
)

// ToolError is a failure returned by a backend tool.
type ToolError struct {
	Tool    string
	Kind    ToolErrorKind
	Status  int
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP error: %d - %s", e.Tool, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Tool, msg)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is matches the sentinel corresponding to the error kind.
func (e *ToolError) Is(target error) bool {
	switch e.Kind {
	case KindUnavailable:
		return target == ErrToolUnavailable
	case KindStatus:
		return target == ErrToolStatus
	case KindRemote:
		return target == ErrToolRemote
	case KindInvalid:
		return target == ErrToolInvalid
	}
	return false
}

// Detail returns the failure description without the tool prefix.
func (e *ToolError) Detail() string {
	if e.Status != 0 {
		return fmt.Sprintf("HTTP error: %d - %s", e.Status, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// NewToolError builds a ToolError of the given kind.
func NewToolError(tool string, kind ToolErrorKind, msg string, err error) *ToolError {
	return &ToolError{Tool: tool, Kind: kind, Message: msg, Err: err}
}
