package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// fatalCodes are API error codes that mean the credentials themselves are
// unusable. Every later call would fail the same way, so a function run is
// aborted instead of skipping the resource.
var fatalCodes = map[string]struct{}{
	"ExpiredToken":                {},
	"ExpiredTokenException":       {},
	"UnrecognizedClientException": {},
	"InvalidClientTokenId":        {},
	"AuthFailure":                 {},
	"SignatureDoesNotMatch":       {},
}

// DependencyError is a failed call to an AWS API, tagged with enough context
// to log it and a verdict on whether the caller may skip the resource and
// continue.
type DependencyError struct {
	Service     string
	Operation   string
	Resource    string
	Code        string
	Recoverable bool
	Err         error
}

func (e *DependencyError) Error() string {
	msg := e.Service + " " + e.Operation
	if e.Resource != "" {
		msg += " " + e.Resource
	}
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Classify wraps err in a DependencyError. It returns nil for a nil err and
// passes an existing DependencyError through unchanged.
//
// Context cancellation and credential failures are fatal. Every other API
// error (not found, dependency violation, invalid state, throttling after
// retries, access denied on one resource) is recoverable.
func Classify(service, operation, resource string, err error) error {
	if err == nil {
		return nil
	}
	var de *DependencyError
	if errors.As(err, &de) {
		return err
	}

	code := ErrorCode(err)
	recoverable := true
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		recoverable = false
	} else if _, fatal := fatalCodes[code]; fatal {
		recoverable = false
	}

	return &DependencyError{
		Service:     service,
		Operation:   operation,
		Resource:    resource,
		Code:        code,
		Recoverable: recoverable,
		Err:         err,
	}
}

// IsRecoverable reports whether err is a DependencyError the caller may skip.
// Errors that were never classified are treated as fatal.
func IsRecoverable(err error) bool {
	var de *DependencyError
	if errors.As(err, &de) {
		return de.Recoverable
	}
	return false
}

// ErrorCode returns the AWS API error code carried by err, or "".
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
