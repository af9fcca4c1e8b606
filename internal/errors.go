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
	ErrorTypeBadCredentials ErrorType = "BAD_CREDENTIALS"
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeConflict       ErrorType = "CONFLICT"
	ErrorTypeInvalidToken   ErrorType = "INVALID_TOKEN"
	ErrorTypeUnauthorized   ErrorType = "UNAUTHORIZED"
	ErrorTypePersistence    ErrorType = "PERSISTENCE_FAILURE"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeCredentialsRequired ErrorCode = "CREDENTIALS_REQUIRED"
	ErrCodeEmailExists         ErrorCode = "EMAIL_EXISTS"
	ErrCodeEmailNotFound       ErrorCode = "EMAIL_NOT_FOUND"
	ErrCodeWrongPassword       ErrorCode = "WRONG_PASSWORD"
	ErrCodeIDRequired          ErrorCode = "ID_REQUIRED"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserUpdateFailed    ErrorCode = "USER_UPDATE_FAILED"

	ErrCodeMissingToken ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	ErrCodeInsufficientPermission ErrorCode = "INSUFFICIENT_PERMISSION"
	ErrCodeRoleNotFound           ErrorCode = "ROLE_NOT_FOUND"

	ErrCodeOrganizationNotFound ErrorCode = "ORGANIZATION_NOT_FOUND"
	ErrCodeOrganizationExists   ErrorCode = "ORGANIZATION_EXISTS"

	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
)

// Phrases are catalog keys resolved per locale at the HTTP boundary.
const (
	PhraseCredentialsRequired   = "Credentials are required"
	PhraseEmailExists           = "Email {{email}} already exists"
	PhraseEmailNotFound         = "Email {{email}} not found"
	PhraseWrongPassword         = "Wrong password"
	PhraseIDRequired            = "An ID is required"
	PhraseUserNotFound          = "User not found"
	PhraseUnableToUpdateUser    = "Unable to update user"
	PhraseMissingToken          = "Authentication token missing"
	PhraseWrongToken            = "Wrong authentication token"
	PhraseNotEnoughPermission   = "You do not have enough permission to perform this action"
	PhraseRoleNotFound          = "Role not found"
	PhraseOrganizationNotFound  = "Organization not found"
	PhraseOrganizationExists    = "Organization {{name}} already exists"
	PhraseValidationFailed      = "Validation failed"
	PhraseInternalServerError   = "Internal server error"
	PhraseTooManyRequests       = "Too many requests, try again later"
	PhraseVerifyYourEmail       = "Verify your email"
	PhraseVerificationEmailBody = "Hello {{fullName}}, confirm your {{platformName}} account ({{email}}) by opening {{verifyLink}}"
	PhraseVerificationEmailFoot = "{{platformName}} - {{platformURL}}"
	PhraseLogoutSuccessful      = "Logged out"
	PhraseEmailVerified         = "Email verified"
	PhraseOrganizationDeleted   = "Organization deleted"
	PhraseInvalidRequestBody    = "Invalid request body"
)

// MessageResolver renders a phrase key in a locale. The core only ever hands
// phrase keys and arguments to it.
type MessageResolver interface {
	Resolve(phrase, locale string, args map[string]any) string
}

type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       ErrorCode      `json:"code"`
	Phrase     string         `json:"message"`
	Args       map[string]any `json:"-"`
	Details    interface{}    `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Phrase, e.Cause)
	}
	return e.Phrase
}

func (e *AppError) GetDetailedMessage() string {
	if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
		messages := make([]string, len(validationErrors.Errors))
		for i, err := range validationErrors.Errors {
			messages[i] = err.Message
		}
		return strings.Join(messages, "; ")
	}
	return e.Phrase
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on kind and code so that fresh copies compare equal to the
// package-level sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithArgs(args map[string]any) *AppError {
	cp := *e
	cp.Args = args
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func newAppError(t ErrorType, code ErrorCode, phrase string, status int) *AppError {
	return &AppError{
		Type:       t,
		Code:       code,
		Phrase:     phrase,
		StatusCode: status,
	}
}

func NewBadCredentialsError(phrase string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeBadCredentials, code, phrase, http.StatusBadRequest)
}

func NewValidationError(phrase string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, code, phrase, http.StatusBadRequest)
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationError(PhraseValidationFailed, ErrCodeValidationFailed).WithDetails(ValidationErrors{
		Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}},
	})
}

// NewNotFoundError uses 409: a missing referenced record is reported in the
// same status family as a conflicting one.
func NewNotFoundError(phrase string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeNotFound, code, phrase, http.StatusConflict)
}

func NewConflictError(phrase string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeConflict, code, phrase, http.StatusConflict)
}

func NewInvalidTokenError(phrase string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeInvalidToken, code, phrase, http.StatusUnauthorized)
}

func NewUnauthorizedError(phrase string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeUnauthorized, code, phrase, http.StatusUnauthorized)
}

func NewPersistenceError(phrase string, code ErrorCode) *AppError {
	return newAppError(ErrorTypePersistence, code, phrase, http.StatusConflict)
}

func NewInternalError(phrase string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, "INTERNAL_ERROR", phrase, http.StatusInternalServerError).WithCause(cause)
}

var (
	ErrCredentialsRequired = NewBadCredentialsError(PhraseCredentialsRequired, ErrCodeCredentialsRequired)
	ErrIDRequired          = NewBadCredentialsError(PhraseIDRequired, ErrCodeIDRequired)
	ErrEmailExists         = NewConflictError(PhraseEmailExists, ErrCodeEmailExists)
	ErrEmailNotFound       = NewNotFoundError(PhraseEmailNotFound, ErrCodeEmailNotFound)
	ErrWrongPassword       = NewConflictError(PhraseWrongPassword, ErrCodeWrongPassword)
	ErrUserNotFound        = NewNotFoundError(PhraseUserNotFound, ErrCodeUserNotFound)
	ErrUnableToUpdateUser  = NewPersistenceError(PhraseUnableToUpdateUser, ErrCodeUserUpdateFailed)

	ErrMissingToken = NewInvalidTokenError(PhraseMissingToken, ErrCodeMissingToken)
	ErrInvalidToken = NewInvalidTokenError(PhraseWrongToken, ErrCodeInvalidToken)

	ErrInsufficientPermission = NewUnauthorizedError(PhraseNotEnoughPermission, ErrCodeInsufficientPermission)
	ErrRoleNotFound           = NewNotFoundError(PhraseRoleNotFound, ErrCodeRoleNotFound)

	ErrOrganizationNotFound = NewNotFoundError(PhraseOrganizationNotFound, ErrCodeOrganizationNotFound)
	ErrOrganizationExists   = NewConflictError(PhraseOrganizationExists, ErrCodeOrganizationExists)

	ErrTooManyRequests = newAppError(ErrorTypeUnauthorized, ErrCodeTooManyRequests, PhraseTooManyRequests, http.StatusTooManyRequests)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
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
		Message: e.Phrase,
		Details: e.Details,
	})
}
