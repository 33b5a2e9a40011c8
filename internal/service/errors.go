package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services. The API layer maps them onto
// HTTP status codes; everything else becomes a 500.
var (
	// ErrNotOwned indicates the resource belongs to a different user than the
	// one making the request. Maps to 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrLabelNotOwned indicates a referenced label is missing or belongs to
	// another user. It is a validation failure of the request, not a 403.
	ErrLabelNotOwned = errors.New("label does not belong to the task owner")
)

// ServiceError adds service and operation context to an unexpected failure.
// Expected conditions (validation, not found, not owned) stay reachable
// through errors.Is and errors.As.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func taskError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return NewServiceError("task", operation, message, err)
}
