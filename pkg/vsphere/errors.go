package vsphere

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of vCenter call failures.
type ErrorClass string

const (
	// ErrorClassNotFound represents missing inventory objects.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassAuth represents login and permission failures.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassNetwork represents transport and timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassServer represents server-side faults.
	ErrorClassServer ErrorClass = "server"
)

// ClientError wraps a vCenter call failure with its classification.
type ClientError struct {
	Op    string
	Class ErrorClass
	Err   error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vsphere %s error in %s: %v", e.Class, e.Op, e.Err)
	}
	return fmt.Sprintf("vsphere %s error in %s", e.Class, e.Op)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a missing-object lookup failure.
func IsNotFound(err error) bool {
	return classify(err) == ErrorClassNotFound
}

// classify categorizes an error for retry decisions and observability.
func classify(err error) ErrorClass {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Class
	}

	var nfe *find.NotFoundError
	if errors.As(err, &nfe) {
		return ErrorClassNotFound
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassNetwork
	}

	if soap.IsSoapFault(err) {
		switch soap.ToSoapFault(err).VimFault().(type) {
		case types.InvalidLogin, types.NoPermission, types.NotAuthenticated:
			return ErrorClassAuth
		case types.ManagedObjectNotFound:
			return ErrorClassNotFound
		default:
			return ErrorClassServer
		}
	}

	return ErrorClassNetwork
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassNotFound:
		// Missing objects don't appear by retrying
		return false
	case ErrorClassAuth:
		// Credentials don't improve by retrying
		return false
	case ErrorClassServer:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}
