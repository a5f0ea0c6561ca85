// Package errors provides structured error handling for the application
// with stable codes that callers can branch on.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Generic
	CodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Unit conversion
	CodeUnknownUnit           ErrorCode = "UNKNOWN_UNIT"
	CodeIncompatibleUnitClass ErrorCode = "INCOMPATIBLE_UNIT_CLASS"
	CodeNonConvertibleUnit    ErrorCode = "NON_CONVERTIBLE_UNIT"

	// Lookup
	CodeRecipeNotFound     ErrorCode = "RECIPE_NOT_FOUND"
	CodePantryNotFound     ErrorCode = "PANTRY_NOT_FOUND"
	CodeIngredientNotFound ErrorCode = "INGREDIENT_NOT_FOUND"
	CodeIngredientExists   ErrorCode = "INGREDIENT_EXISTS"

	// Cooking
	CodeInsufficientIngredients ErrorCode = "INSUFFICIENT_INGREDIENTS"
	CodeInsufficientStock       ErrorCode = "INSUFFICIENT_STOCK"
	CodeCancelled               ErrorCode = "CANCELLED"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// Business domain specific errors

// NewRecipeNotFoundError creates a recipe not found error
func NewRecipeNotFoundError(recipeID string, cause error) *AppError {
	return NewAppError(
		CodeRecipeNotFound,
		"Recipe not found",
		fmt.Sprintf("Recipe with ID %s does not exist", recipeID),
	).WithMetadata("recipe_id", recipeID).WithCause(cause)
}

// NewPantryNotFoundError creates a pantry not found error
func NewPantryNotFoundError(pantryID string, cause error) *AppError {
	return NewAppError(
		CodePantryNotFound,
		"Pantry not found",
		fmt.Sprintf("Pantry with ID %s does not exist", pantryID),
	).WithMetadata("pantry_id", pantryID).WithCause(cause)
}

// NewIngredientExistsError creates an ingredient already exists error
func NewIngredientExistsError(name string, cause error) *AppError {
	return NewAppError(
		CodeIngredientExists,
		"Ingredient already exists",
		fmt.Sprintf("An ingredient named %q is already in the catalog", name),
	).WithMetadata("name", name).WithCause(cause)
}

// NewIngredientNotFoundError creates an ingredient not found error
func NewIngredientNotFoundError(id string, cause error) *AppError {
	return NewAppError(
		CodeIngredientNotFound,
		"Ingredient not found",
		fmt.Sprintf("Ingredient with ID %s does not exist", id),
	).WithMetadata("ingredient_id", id).WithCause(cause)
}

// NewInsufficientIngredientsError reports a failed cooking gate
func NewInsufficientIngredientsError(missing []string, cause error) *AppError {
	return NewAppError(
		CodeInsufficientIngredients,
		"Insufficient ingredients",
		fmt.Sprintf("Missing without a full substitute: %s", strings.Join(missing, ", ")),
	).WithMetadata("missing", missing).WithCause(cause)
}

// NewInsufficientStockError reports a deduction that would go negative
func NewInsufficientStockError(ingredient string, needed, available float64, cause error) *AppError {
	return NewAppError(
		CodeInsufficientStock,
		"Insufficient stock",
		fmt.Sprintf("Need %.4g of %s but only %.4g is available", needed, ingredient, available),
	).WithMetadata("ingredient", ingredient).
		WithMetadata("needed", needed).
		WithMetadata("available", available).
		WithCause(cause)
}

// NewCancelledError wraps a context cancellation
func NewCancelledError(operation string, cause error) *AppError {
	return NewAppError(
		CodeCancelled,
		"Operation cancelled",
		fmt.Sprintf("%s was cancelled", operation),
	).WithCause(cause)
}

// NewUnitError maps a converter error onto its code
func NewUnitError(cause error, code ErrorCode) *AppError {
	return NewAppError(code, "Unit conversion failed", cause.Error()).WithCause(cause)
}

// Utility functions

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error chain carries an AppError with the given code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	if len(v) == 1 {
		return v[0].Message
	}

	var messages []string
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates validation errors from validator errors
func NewValidationErrors(errors []ValidationError) *AppError {
	validationErrs := ValidationErrors(errors)

	return NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
}
