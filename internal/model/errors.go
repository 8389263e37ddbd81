package model

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation  Kind = "validation"
	KindTransport   Kind = "transport"
	KindApplication Kind = "application"
)

var (
	ErrEmptyAsset         error = errors.New("please select an image first")
	ErrEmptyBatch         error = errors.New("please select at least one image")
	ErrAssetTooLarge      error = errors.New("image exceeds the upload size limit")
	ErrIndexOutOfRange    error = errors.New("batch index out of range")
	ErrSubmissionInFlight error = errors.New("previous submission is still in progress")
	ErrDownloadFailed     error = errors.New("failed to download image. Please check CORS or file URL")
	ErrRecordNotFound     error = errors.New("history record doesn't exist")
	ErrIncorrectID        error = errors.New("incorrect record UUID")
	ErrHistoryDisabled    error = errors.New("result history is not configured")
	ErrCommon500          error = errors.New("something went wrong. Try again later")
)

// ValidationError is raised before anything reaches the network.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

func (e *ValidationError) Kind() Kind { return KindValidation }

// TransportError covers non-2xx statuses and failures to reach the backend at all.
type TransportError struct {
	Capability Capability
	StatusCode int
	Status     string
	Cause      error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API error: %v", e.Cause)
	}
	return "API error: " + e.Status
}

func (e *TransportError) Unwrap() error { return e.Cause }

func (e *TransportError) Kind() Kind { return KindTransport }

// ApplicationError means the backend answered but refused or returned no data.
type ApplicationError struct {
	Capability Capability
	Message    string
	Detail     string
	Cause      error
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func (e *ApplicationError) Unwrap() error { return e.Cause }

func (e *ApplicationError) Kind() Kind { return KindApplication }

type kinded interface {
	Kind() Kind
}

// IsKind reports whether the first typed error in the chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind() == kind
	}
	return false
}
