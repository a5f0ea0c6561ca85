// Package ingredient contains the canonical ingredient catalog model and
// the text and vector similarity primitives the resolver ranks with.
package ingredient

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxNameLength     = 200
	MaxCategoryLength = 100
)

// Ingredient is a catalog entry. Pending entries are invisible to search
// until an external review promotes them.
type Ingredient struct {
	ID            uuid.UUID
	CanonicalName string
	Aliases       Aliases
	Category      string
	Embedding     []float32
	IsCanonical   bool
	PendingReview bool
	ParentID      *uuid.UUID
	SubmittedBy   *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SubmissionOptions carries the optional fields of a user submission
type SubmissionOptions struct {
	Category string
	Aliases  []string
	ParentID *uuid.UUID
}

// NewSubmission builds a pending, non-canonical ingredient from user input.
// The name is normalized; aliases equal to the name are dropped.
func NewSubmission(name string, submitterID uuid.UUID, opts SubmissionOptions) (*Ingredient, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, ErrEmptyName
	}
	if len([]rune(normalized)) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if len(opts.Category) > MaxCategoryLength {
		return nil, ErrCategoryTooLong
	}

	aliases := NewAliases(opts.Aliases...)
	aliases = aliases.Without(normalized)

	now := time.Now().UTC()
	ing := &Ingredient{
		ID:            uuid.New(),
		CanonicalName: normalized,
		Aliases:       aliases,
		Category:      NormalizeName(opts.Category),
		IsCanonical:   false,
		PendingReview: true,
		ParentID:      opts.ParentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if submitterID != uuid.Nil {
		submitter := submitterID
		ing.SubmittedBy = &submitter
	}
	return ing, nil
}

// Promote marks a reviewed ingredient as canonical and searchable
func (i *Ingredient) Promote() error {
	if !i.PendingReview && i.IsCanonical {
		return ErrAlreadyCanonical
	}
	i.PendingReview = false
	i.IsCanonical = true
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// Searchable reports whether the ingredient may appear in resolver results
func (i *Ingredient) Searchable() bool {
	return !i.PendingReview
}

// Matches reports whether normalized text equals the canonical name or an alias
func (i *Ingredient) Matches(normalized string) bool {
	if i.CanonicalName == normalized {
		return true
	}
	return i.Aliases.Contains(normalized)
}

// HasEmbedding reports whether a vector is attached
func (i *Ingredient) HasEmbedding() bool {
	return len(i.Embedding) > 0
}
