// Package kitchen models pantry stock, recipe requirements and substitution
// rules, and evaluates whether a recipe can be cooked from a pantry.
package kitchen

import (
	"math"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/units"
	"github.com/google/uuid"
)

// DefaultQuantityEpsilon absorbs float drift when deducting stock
const DefaultQuantityEpsilon = 1e-9

// Pantry owns stock rows
type Pantry struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

// Recipe owns requirement rows
type Recipe struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

// PantryStock is one ingredient held by a pantry. A row never persists
// with a zero quantity; it is deleted instead.
type PantryStock struct {
	ID                 uuid.UUID
	PantryID           uuid.UUID
	IngredientID       uuid.UUID
	IngredientName     string
	DisplayQuantity    float64
	DisplayUnit        string
	NormalizedQuantity float64
	NormalizedUnit     string
	ExpiresAt          *time.Time
	UpdatedAt          time.Time
}

// NewPantryStock normalizes a user-entered quantity into a stock row
func NewPantryStock(pantryID, ingredientID uuid.UUID, quantity float64, unit string) (*PantryStock, error) {
	if quantity < 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil, ErrNegativeQuantity
	}
	n := units.Normalize(quantity, unit)
	return &PantryStock{
		ID:                 uuid.New(),
		PantryID:           pantryID,
		IngredientID:       ingredientID,
		DisplayQuantity:    n.DisplayQuantity,
		DisplayUnit:        n.DisplayUnit,
		NormalizedQuantity: n.NormalizedQuantity,
		NormalizedUnit:     n.NormalizedUnit,
		UpdatedAt:          time.Now().UTC(),
	}, nil
}

// Deduct removes amount (already expressed in NormalizedUnit) from the row.
// It reports empty when the remainder is within epsilon of zero, in which
// case the caller deletes the row.
func (s *PantryStock) Deduct(amount, epsilon float64) (empty bool, err error) {
	remaining := s.NormalizedQuantity - amount
	if remaining < -epsilon {
		return false, ErrInsufficientStock
	}
	if math.Abs(remaining) <= epsilon {
		s.NormalizedQuantity = 0
		s.DisplayQuantity = 0
		return true, nil
	}

	s.NormalizedQuantity = remaining
	s.DisplayQuantity = displayQuantity(remaining, s.NormalizedUnit, s.DisplayUnit)
	s.UpdatedAt = time.Now().UTC()
	return false, nil
}

// displayQuantity re-expresses a normalized amount in the unit the user
// originally entered, falling back to the normalized amount.
func displayQuantity(normalized float64, normalizedUnit, displayUnit string) float64 {
	if displayUnit == "" {
		return normalized
	}
	converted, ok := units.ConvertNormalized(normalized, normalizedUnit, displayUnit)
	if !ok {
		return normalized
	}
	return converted
}

// RecipeRequirement is one ingredient needed by a recipe
type RecipeRequirement struct {
	ID                 uuid.UUID
	RecipeID           uuid.UUID
	IngredientID       uuid.UUID
	IngredientName     string
	DisplayQuantity    float64
	DisplayUnit        string
	NormalizedQuantity float64
	NormalizedUnit     string
	PrepNotes          string
	Optional           bool
	Position           int
}

// NewRecipeRequirement normalizes a user-entered quantity into a requirement row
func NewRecipeRequirement(recipeID, ingredientID uuid.UUID, quantity float64, unit string, position int) (*RecipeRequirement, error) {
	if quantity < 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil, ErrNegativeQuantity
	}
	n := units.Normalize(quantity, unit)
	return &RecipeRequirement{
		ID:                 uuid.New(),
		RecipeID:           recipeID,
		IngredientID:       ingredientID,
		DisplayQuantity:    n.DisplayQuantity,
		DisplayUnit:        n.DisplayUnit,
		NormalizedQuantity: n.NormalizedQuantity,
		NormalizedUnit:     n.NormalizedUnit,
		Position:           position,
	}, nil
}

// CookingEvent records one successful cook. Events are append-only.
type CookingEvent struct {
	ID          uuid.UUID
	RecipeID    uuid.UUID
	PantryID    uuid.UUID
	ScaleFactor float64
	Notes       string
	CookedAt    time.Time
}

// NewCookingEvent stamps a new event
func NewCookingEvent(recipeID, pantryID uuid.UUID, scale float64, notes string) *CookingEvent {
	return &CookingEvent{
		ID:          uuid.New(),
		RecipeID:    recipeID,
		PantryID:    pantryID,
		ScaleFactor: scale,
		Notes:       notes,
		CookedAt:    time.Now().UTC(),
	}
}
