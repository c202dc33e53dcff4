package smartsearch

import (
	"errors"
	"fmt"
)

// ValidationError is bad local input. It is raised before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PreconditionError means an upstream artifact the action depends on is absent,
// i.e. the caller invoked actions out of stage order.
type PreconditionError struct {
	Action  string
	Missing string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Action, e.Missing)
}

// DuplicateQueryError is a history ledger uniqueness violation.
type DuplicateQueryError struct {
	Query string
}

func (e *DuplicateQueryError) Error() string {
	return fmt.Sprintf("query already tested: %q", e.Query)
}

// GatewayError wraps a remote failure. Error returns the remote message verbatim
// so it can be shown to the user as-is.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// StaleResponseError is returned when a response arrives after the workflow was
// resumed or reset underneath the in-flight action. The response is discarded.
type StaleResponseError struct {
	Action string
}

func (e *StaleResponseError) Error() string {
	return fmt.Sprintf("%s response discarded: workflow was reset while the request was in flight", e.Action)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

func IsDuplicateQuery(err error) bool {
	var target *DuplicateQueryError
	return errors.As(err, &target)
}

func IsGateway(err error) bool {
	var target *GatewayError
	return errors.As(err, &target)
}

func IsStale(err error) bool {
	var target *StaleResponseError
	return errors.As(err, &target)
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func preconditionErr(action, missing string) error {
	return &PreconditionError{Action: action, Missing: missing}
}
