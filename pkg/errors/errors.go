package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrNoSigner is returned when a write operation is attempted without
	// a configured signer.
	ErrNoSigner = errors.New("no signer configured")

	// ErrNoStorageBackend is returned when every configured storage backend
	// failed or none could be constructed.
	ErrNoStorageBackend = errors.New("no storage backend available")

	// ErrPaymentRequired is returned when payment proof is missing or invalid.
	ErrPaymentRequired = errors.New("payment required")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// ConfigError represents a client misconfiguration for the requested
// operation, such as a signing call without a private key.
type ConfigError struct {
	*BaseError
	Option string
}

// NewConfigError creates a new configuration error.
func NewConfigError(option, message string) *ConfigError {
	if message == "" {
		message = fmt.Sprintf("missing or invalid option %q", option)
	}
	return &ConfigError{
		BaseError: &BaseError{
			code:    CodeConfig,
			message: message,
			stack:   captureStack(1),
		},
		Option: option,
	}
}

// PaymentError represents a payment quoting or settlement failure.
type PaymentError struct {
	*BaseError
	Currency string
	Network  string
}

// NewPaymentError creates a new payment error.
func NewPaymentError(message string, cause error) *PaymentError {
	if message == "" {
		message = "payment failed"
	}
	return &PaymentError{
		BaseError: &BaseError{
			code:    CodePayment,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// WithCurrency attaches the offending currency.
func (e *PaymentError) WithCurrency(currency string) *PaymentError {
	e.Currency = currency
	return e
}

// UnsupportedCurrencyError is returned when a currency is not in the catalog.
type UnsupportedCurrencyError struct {
	*BaseError
	Currency string
}

// NewUnsupportedCurrencyError creates a new unsupported currency error.
func NewUnsupportedCurrencyError(currency string) *UnsupportedCurrencyError {
	return &UnsupportedCurrencyError{
		BaseError: &BaseError{
			code:    CodeUnsupportedCurrency,
			message: fmt.Sprintf("unsupported currency: %s", currency),
			stack:   captureStack(1),
		},
		Currency: currency,
	}
}

// UnsupportedNetworkError is returned when a network name is not in the catalog.
type UnsupportedNetworkError struct {
	*BaseError
	Network string
}

// NewUnsupportedNetworkError creates a new unsupported network error.
func NewUnsupportedNetworkError(network string) *UnsupportedNetworkError {
	return &UnsupportedNetworkError{
		BaseError: &BaseError{
			code:    CodeUnsupportedNetwork,
			message: fmt.Sprintf("unsupported network: %s", network),
			stack:   captureStack(1),
		},
		Network: network,
	}
}

// StorageError represents a storage backend failure.
type StorageError struct {
	*BaseError
	Provider string
	Op       string
}

// NewStorageError creates a new storage error.
func NewStorageError(provider, op string, cause error) *StorageError {
	message := fmt.Sprintf("storage %s failed", op)
	if provider != "" {
		message = fmt.Sprintf("storage %s failed on %s", op, provider)
	}
	return &StorageError{
		BaseError: &BaseError{
			code:    CodeStorage,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Provider: provider,
		Op:       op,
	}
}

// ContractError represents an on-chain call failure or a transaction
// receipt missing an expected event.
type ContractError struct {
	*BaseError
	Contract string
	Method   string
}

// NewContractError creates a new contract error.
func NewContractError(contract, method, message string, cause error) *ContractError {
	if message == "" {
		message = fmt.Sprintf("%s.%s failed", contract, method)
	}
	return &ContractError{
		BaseError: &BaseError{
			code:    CodeContract,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Contract: contract,
		Method:   method,
	}
}

// IntegrityError represents a process-integrity verification failure:
// executing an unregistered function, or a registered function raising
// an execution exception.
type IntegrityError struct {
	*BaseError
	Function string
}

// NewIntegrityError creates a new integrity error.
func NewIntegrityError(function, message string, cause error) *IntegrityError {
	return &IntegrityError{
		BaseError: &BaseError{
			code:    CodeIntegrity,
			message: fmt.Sprintf("%s: %s", function, message),
			cause:   cause,
			stack:   captureStack(1),
		},
		Function: function,
	}
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	*BaseError
	Resource string
	ID       string
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		BaseError: &BaseError{
			code:    CodeNotFound,
			message: fmt.Sprintf("%s not found", resource),
			stack:   captureStack(1),
		},
		Resource: resource,
		ID:       id,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// InternalError represents an internal error.
type InternalError struct {
	*BaseError
	Operation string
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *InternalError {
	if message == "" {
		message = "internal error"
	}
	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// WithOperation sets the operation context.
func (e *InternalError) WithOperation(op string) *InternalError {
	e.Operation = op
	return e
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise, it creates an InternalError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   err,
			stack:   captureStack(1),
		},
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
		stack:   captureStack(1),
	}
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}
