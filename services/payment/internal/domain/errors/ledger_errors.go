package errors

import (
	"errors"
	"fmt"

	apperrors "github.com/shivam7053/raga-vachika/pkg/errors"
)

// Sentinel errors for ledger and catalog operations
var (
	// ErrPaymentRegression is matched by every RegressionError.
	ErrPaymentRegression = errors.New("cannot mark successful payment as failed")

	// ErrConcurrentModification means another writer changed the ledger between read and write.
	// The whole read-decide-write cycle must be retried.
	ErrConcurrentModification = errors.New("ledger modified concurrently")

	ErrMasterclassNotFound = errors.New("masterclass not found")
	ErrAlreadyEnrolled     = errors.New("user already enrolled in masterclass")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// RegressionError is returned when a failed outcome targets an order that already succeeded.
type RegressionError struct {
	UserID  string
	OrderID string
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("%s (user: %s, order: %s)", ErrPaymentRegression.Error(), e.UserID, e.OrderID)
}

func (e *RegressionError) Is(target error) bool {
	return target == ErrPaymentRegression
}

// ValidationError is returned before any store access when a required input is missing or malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewRequiredFieldError creates a ValidationError for a missing field
func NewRequiredFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}

// ForbiddenUserError is returned when the authenticated user acts on another user's ledger.
type ForbiddenUserError struct {
	AuthUserID string
	UserID     string
}

func (e *ForbiddenUserError) Error() string {
	return fmt.Sprintf("user %s may not modify transactions of user %s", e.AuthUserID, e.UserID)
}

// ToAppError maps domain errors onto application error codes for the transport layer.
// Errors that are already AppErrors keep their code.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var validationErr *ValidationError
	var forbiddenErr *ForbiddenUserError

	switch {
	case errors.As(err, &validationErr):
		return apperrors.InvalidArgument(validationErr.Error(), err)
	case errors.As(err, &forbiddenErr):
		return apperrors.NewAppError(apperrors.ErrUnauthorized, "cannot modify another user's transactions", err)
	case errors.Is(err, ErrPaymentRegression):
		return apperrors.NewAppError(apperrors.ErrFailedPrecondition, ErrPaymentRegression.Error(), err)
	case errors.Is(err, ErrConcurrentModification):
		return apperrors.Unavailable("ledger is busy, retry the request", err)
	case errors.Is(err, ErrMasterclassNotFound):
		return apperrors.NotFound(ErrMasterclassNotFound.Error(), err)
	case errors.Is(err, ErrTransactionNotFound):
		return apperrors.NotFound(ErrTransactionNotFound.Error(), err)
	case errors.Is(err, ErrAlreadyEnrolled):
		return apperrors.NewAppError(apperrors.ErrConflict, ErrAlreadyEnrolled.Error(), err)
	}

	return apperrors.NewAppError(apperrors.ErrInternal, "internal server error", err)
}
