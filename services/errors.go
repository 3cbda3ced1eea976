package services

import (
	"errors"
	"fmt"

	"github.com/kendall-kelly/tableside-api/repository"
)

// ErrorKind classifies failures reported by the lifecycle services
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindValidation          ErrorKind = "VALIDATION_FAILURE"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
	KindTransactionFailure  ErrorKind = "TRANSACTION_FAILURE"
)

// ServiceError is returned by every service operation that fails
type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func notFoundError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Code: code, Message: message}
}

func validationError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Code: code, Message: message}
}

// KindOf returns the kind of a service error, or TransactionFailure for anything else
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransactionFailure
}

// classify converts repository and driver errors into service errors
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return &ServiceError{
			Kind:    KindConcurrencyConflict,
			Code:    "CONCURRENCY_CONFLICT",
			Message: "The record was changed by someone else, please retry",
			Err:     err,
		}
	case errors.Is(err, repository.ErrNotFound):
		return &ServiceError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Record not found", Err: err}
	default:
		return &ServiceError{
			Kind:    KindTransactionFailure,
			Code:    "TRANSACTION_FAILED",
			Message: "The operation could not be completed, please try again",
			Err:     err,
		}
	}
}

// lookup turns a repository not-found into a NotFound error with a specific code
func lookup(err error, code, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundError(code, message)
	}
	return err
}
