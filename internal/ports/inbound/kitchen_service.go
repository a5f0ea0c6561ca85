package inbound

import (
	"context"

	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/google/uuid"
)

// KitchenService answers "can I cook this" and performs the cook
type KitchenService interface {
	CheckFeasibility(ctx context.Context, query FeasibilityQuery) (*kitchen.FeasibilityResult, error)
	CookRecipe(ctx context.Context, cmd CookRecipeCommand) (*CookResult, error)
}

// FeasibilityQuery asks whether a recipe can be made. A zero Scale means 1.
type FeasibilityQuery struct {
	RecipeID uuid.UUID `json:"recipe_id" validate:"required"`
	PantryID uuid.UUID `json:"pantry_id" validate:"required"`
	Scale    float64   `json:"scale,omitempty" validate:"omitempty,gt=0,lte=1000"`
	Context  string    `json:"context,omitempty" validate:"omitempty,oneof=baking cooking raw any"`
}

// CookRecipeCommand cooks a recipe against a pantry. A zero Scale means 1.
type CookRecipeCommand struct {
	RecipeID          uuid.UUID                  `json:"recipe_id" validate:"required"`
	PantryID          uuid.UUID                  `json:"pantry_id" validate:"required"`
	Scale             float64                    `json:"scale,omitempty" validate:"omitempty,gt=0,lte=1000"`
	Context           string                     `json:"context,omitempty" validate:"omitempty,oneof=baking cooking raw any"`
	ChosenSubstitutes []kitchen.ChosenSubstitute `json:"chosen_substitutes,omitempty" validate:"dive"`
	Notes             string                     `json:"notes,omitempty" validate:"max=2000"`
}

// CookResult reports a successful cook
type CookResult struct {
	Success        bool                `json:"success"`
	Deducted       []kitchen.Deduction `json:"deducted"`
	CookingEventID uuid.UUID           `json:"cooking_event_id"`
}
