package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDescription ErrorCode = "INVALID_DESCRIPTION"
	ErrCodeInvalidDate        ErrorCode = "INVALID_DATE"
	ErrCodeInvalidPeriod      ErrorCode = "INVALID_PERIOD"
	ErrCodeReasonTooLong      ErrorCode = "REASON_TOO_LONG"
	ErrCodeAmountTooHigh      ErrorCode = "AMOUNT_TOO_HIGH"

	ErrCodeExpenseNotFound      ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeTransferNotFound     ErrorCode = "TRANSFER_NOT_FOUND"
	ErrCodeCashBoxNotFound      ErrorCode = "CASH_BOX_NOT_FOUND"
	ErrCodeMemberNotFound       ErrorCode = "MEMBER_NOT_FOUND"
	ErrCodeContributionNotFound ErrorCode = "CONTRIBUTION_NOT_FOUND"
	ErrCodeActivityNotFound     ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"

	ErrCodeInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrCodeDefaultCashBox         ErrorCode = "DEFAULT_CASH_BOX_PROTECTED"
	ErrCodeMonthlyExists          ErrorCode = "MONTHLY_CONTRIBUTION_EXISTS"
	ErrCodeNoMonthlyContribution  ErrorCode = "NO_MONTHLY_CONTRIBUTION"
	ErrCodePhoneTaken             ErrorCode = "PHONE_ALREADY_REGISTERED"
	ErrCodeContributionTypeLocked ErrorCode = "CONTRIBUTION_TYPE_LOCKED"
	ErrCodeSelfDelete             ErrorCode = "SELF_DELETE"

	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInsufficientRole   ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeAccountSuspended   ErrorCode = "ACCOUNT_SUSPENDED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code so that sentinel errors keep working after WithCause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) WithMessage(message string) *AppError {
	clone := *e
	clone.Message = message
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrExpenseNotFound      = NewNotFoundError("Expense not found", ErrCodeExpenseNotFound)
	ErrTransferNotFound     = NewNotFoundError("Cash box transfer not found", ErrCodeTransferNotFound)
	ErrCashBoxNotFound      = NewNotFoundError("Cash box not found", ErrCodeCashBoxNotFound)
	ErrMemberNotFound       = NewNotFoundError("Member not found", ErrCodeMemberNotFound)
	ErrContributionNotFound = NewNotFoundError("Contribution not found", ErrCodeContributionNotFound)
	ErrActivityNotFound     = NewNotFoundError("Activity not found", ErrCodeActivityNotFound)
	ErrNotificationNotFound = NewNotFoundError("Notification not found", ErrCodeNotificationNotFound)

	ErrInvalidTransition     = NewConflictError("operation not allowed in the current status", ErrCodeInvalidTransition)
	ErrDefaultCashBox        = NewConflictError("the default cash box cannot be deleted or unset", ErrCodeDefaultCashBox)
	ErrMonthlyExists         = NewConflictError("a monthly contribution already exists", ErrCodeMonthlyExists)
	ErrNoMonthlyContribution = NewNotFoundError("no monthly contribution is configured", ErrCodeNoMonthlyContribution)
	ErrPhoneTaken            = NewConflictError("phone number already registered", ErrCodePhoneTaken)
	ErrSelfDelete            = NewConflictError("you cannot delete your own account", ErrCodeSelfDelete)

	ErrUnauthorizedAccess = NewForbiddenError("insufficient permissions for this operation", ErrCodeInsufficientRole)
	ErrAccountSuspended   = NewForbiddenError("account suspended: settle unpaid contributions to regain access", ErrCodeAccountSuspended)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid phone or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Response carries the error plus a top level message that clients read directly.
type Response struct {
	Error   *AppError `json:"error"`
	Message string    `json:"message"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e, Message: e.GetDetailedMessage()}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
