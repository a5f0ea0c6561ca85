package kitchen

import "errors"

// Domain errors for pantry and cooking operations

var (
	// Lookup errors
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrPantryNotFound = errors.New("pantry not found")

	// Validation errors
	ErrInvalidScale     = errors.New("scale must be greater than 0")
	ErrNegativeQuantity = errors.New("quantity must be a finite non-negative number")
	ErrInvalidRatio     = errors.New("substitution ratio must be greater than 0")
	ErrInvalidQuality   = errors.New("substitution quality must be perfect, good or workable")
	ErrInvalidContext   = errors.New("substitution context must be baking, cooking, raw or any")
	ErrSelfSubstitution = errors.New("an ingredient cannot substitute itself")
	ErrInvalidTieBreak  = errors.New("unknown substitute tie-break")

	// Cooking errors
	ErrInsufficientIngredients = errors.New("recipe cannot be made from this pantry")
	ErrInsufficientStock       = errors.New("pantry stock would become negative")
	ErrSubstituteNotAllowed    = errors.New("chosen substitute is not a viable option for this ingredient")
	ErrDuplicateSubstitute     = errors.New("more than one substitute chosen for the same ingredient")
)
