// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/google/uuid"
)

// Action is the resolver's verdict
type Action string

const (
	ActionMatched   Action = "matched"
	ActionConfirm   Action = "confirm"
	ActionCreateNew Action = "create_new"
)

// IngredientResolver maps free text onto the ingredient catalog
type IngredientResolver interface {
	ResolveIngredient(ctx context.Context, query ResolveIngredientQuery) (*Resolution, error)
	CreateIngredient(ctx context.Context, cmd CreateIngredientCommand) (*CreatedIngredient, error)
}

// ResolveIngredientQuery is one resolution request. Nil overrides fall back
// to the service defaults.
type ResolveIngredientQuery struct {
	Text              string    `json:"text" validate:"required,max=200"`
	Embedding         []float32 `json:"embedding,omitempty"`
	Limit             int       `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
	FuzzyThreshold    *float64  `json:"fuzzy_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	HighConfidence    *float64  `json:"high_confidence,omitempty" validate:"omitempty,min=0,max=1"`
	SemanticCeiling   *float64  `json:"semantic_ceiling,omitempty" validate:"omitempty,min=0,max=1"`
	SemanticThreshold *float64  `json:"semantic_threshold,omitempty" validate:"omitempty,min=0,max=1"`
}

// CreateIngredientCommand submits a new catalog entry for review
type CreateIngredientCommand struct {
	Name        string     `json:"name" validate:"required,max=200"`
	SubmitterID uuid.UUID  `json:"submitter_id"`
	Category    string     `json:"category,omitempty" validate:"max=100"`
	Aliases     []string   `json:"aliases,omitempty" validate:"max=20,dive,max=200"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

// IngredientDTO is the matched catalog entry
type IngredientDTO struct {
	ID            uuid.UUID `json:"id"`
	CanonicalName string    `json:"canonical_name"`
	Aliases       []string  `json:"aliases,omitempty"`
	Category      string    `json:"category,omitempty"`
}

// Resolution is the resolver's answer. Ingredient is set for matched,
// Suggestions for confirm.
type Resolution struct {
	Action      Action                 `json:"action"`
	Ingredient  *IngredientDTO         `json:"ingredient,omitempty"`
	Confidence  float64                `json:"confidence,omitempty"`
	Tier        ingredient.Source      `json:"tier,omitempty"`
	Suggestions []ingredient.Candidate `json:"suggestions,omitempty"`
}

// CreatedIngredient is returned after a submission
type CreatedIngredient struct {
	ID            uuid.UUID `json:"id"`
	CanonicalName string    `json:"canonical_name"`
	PendingReview bool      `json:"pending_review"`
	HasEmbedding  bool      `json:"has_embedding"`
}
