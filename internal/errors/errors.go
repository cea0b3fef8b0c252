// Package errors provides the typed error taxonomy of the ledger.
// Every core and service-layer failure is an *AppError carrying a Kind, so
// callers can classify failures without string matching and transports can
// render consistent responses.
package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindIntegrity    Kind = "integrity"
	KindImportFormat Kind = "import_format"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// IsKind reports whether err is (or wraps) an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func validation(code, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message, StatusCode: http.StatusBadRequest}
}

func notFound(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message, StatusCode: http.StatusNotFound}
}

// General errors.
var (
	ErrInvalidInput       = validation("INVALID_INPUT", "Invalid input")
	ErrNotFound           = notFound("NOT_FOUND", "Resource not found")
	ErrIntegrity          = &AppError{Kind: KindIntegrity, Code: "INTEGRITY_ERROR", Message: "Stored data violates a ledger invariant", StatusCode: http.StatusConflict}
	ErrImportFormat       = &AppError{Kind: KindImportFormat, Code: "IMPORT_FORMAT", Message: "Import file is malformed", StatusCode: http.StatusUnprocessableEntity}
	ErrUnauthorized       = &AppError{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "Invalid passphrase", StatusCode: http.StatusUnauthorized}
	ErrInternalServer     = &AppError{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Account errors.
var (
	ErrAccountNotFound = notFound("ACCOUNT_NOT_FOUND", "Account not found")
	ErrDuplicateName   = &AppError{Kind: KindValidation, Code: "DUPLICATE_NAME", Message: "A record with this name already exists", StatusCode: http.StatusConflict}
	ErrAccountInUse    = &AppError{Kind: KindValidation, Code: "ACCOUNT_IN_USE", Message: "Account still has transactions", StatusCode: http.StatusConflict}
)

// Category and payee errors.
var (
	ErrCategoryNotFound = notFound("CATEGORY_NOT_FOUND", "Category not found")
	ErrPayeeNotFound    = notFound("PAYEE_NOT_FOUND", "Payee not found")
)

// Transaction errors.
var (
	ErrTransactionNotFound      = notFound("TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrSiblingNotFound          = &AppError{Kind: KindIntegrity, Code: "SIBLING_NOT_FOUND", Message: "Transfer sibling is missing", StatusCode: http.StatusConflict}
	ErrInvalidTransactionType   = validation("INVALID_TRANSACTION_TYPE", "Unsupported transaction type")
	ErrInvalidTransactionStatus = validation("INVALID_TRANSACTION_STATUS", "Unsupported transaction status")
	ErrNegativeAmount           = validation("NEGATIVE_AMOUNT", "Amount must not be negative")
	ErrSameAccountTransfer      = validation("SAME_ACCOUNT_TRANSFER", "Cannot transfer to the same account")
)
