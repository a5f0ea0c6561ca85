package ingredient

import "errors"

// Domain errors for the ingredient catalog

var (
	ErrEmptyName           = errors.New("ingredient name must not be empty")
	ErrNameTooLong         = errors.New("ingredient name must not exceed 200 characters")
	ErrCategoryTooLong     = errors.New("ingredient category must not exceed 100 characters")
	ErrAlreadyCanonical    = errors.New("ingredient is already canonical")
	ErrDuplicateIngredient = errors.New("ingredient with this name already exists")
	ErrIngredientNotFound  = errors.New("ingredient not found")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
)
