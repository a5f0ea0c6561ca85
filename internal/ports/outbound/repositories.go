// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/google/uuid"
)

// IngredientStore is the catalog persistence boundary used by the resolver.
// All search methods exclude pending-review entries.
type IngredientStore interface {
	// FindExact matches a normalized name against canonical names and
	// aliases. It returns nil, nil when nothing matches.
	FindExact(ctx context.Context, normalized string) (*ingredient.Ingredient, error)

	// FuzzySearch scores each entry as the best of its name and alias
	// trigram similarity and returns those at or above minSimilarity,
	// best first.
	FuzzySearch(ctx context.Context, term string, minSimilarity float64, limit int) ([]ingredient.Candidate, error)

	// SemanticSearch returns entries with an embedding whose cosine
	// similarity is at or above minSimilarity, best first.
	SemanticSearch(ctx context.Context, embedding []float32, minSimilarity float64, limit int) ([]ingredient.Candidate, error)

	// Create inserts a new entry; ingredient.ErrDuplicateIngredient on a
	// canonical name clash.
	Create(ctx context.Context, ing *ingredient.Ingredient) error

	// FindByID loads any entry, pending or not.
	FindByID(ctx context.Context, id uuid.UUID) (*ingredient.Ingredient, error)

	// Promote clears pending review and marks the entry canonical.
	Promote(ctx context.Context, id uuid.UUID) error
}

// Embedder turns text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// KitchenReader is the read side shared by plain repositories and units
// of work.
type KitchenReader interface {
	RecipeExists(ctx context.Context, recipeID uuid.UUID) (bool, error)
	PantryExists(ctx context.Context, pantryID uuid.UUID) (bool, error)
	ListRequirements(ctx context.Context, recipeID uuid.UUID) ([]kitchen.RecipeRequirement, error)
	ListStock(ctx context.Context, pantryID uuid.UUID) ([]kitchen.PantryStock, error)
	// SubstitutionRules returns rules keyed by original ingredient id
	SubstitutionRules(ctx context.Context, originalIDs []uuid.UUID) (map[uuid.UUID][]kitchen.SubstitutionRule, error)
}

// KitchenRepository owns pantries, recipes, stock, requirements, rules and
// cooking events.
type KitchenRepository interface {
	KitchenReader

	// Begin opens a unit of work
	Begin(ctx context.Context) (UnitOfWork, error)

	CreatePantry(ctx context.Context, pantry *kitchen.Pantry) error
	CreateRecipe(ctx context.Context, recipe *kitchen.Recipe) error
	SaveStock(ctx context.Context, stock *kitchen.PantryStock) error
	SaveRequirement(ctx context.Context, req *kitchen.RecipeRequirement) error
	SaveRule(ctx context.Context, rule *kitchen.SubstitutionRule) error
	ListCookingEvents(ctx context.Context, pantryID uuid.UUID) ([]kitchen.CookingEvent, error)
}

// UnitOfWork scopes every read and write of a cook. It is committed or
// rolled back exactly once; later calls return ErrTxDone.
type UnitOfWork interface {
	KitchenReader

	// LockPantry takes exclusive access to the pantry and all its stock
	// rows until the unit of work ends.
	LockPantry(ctx context.Context, pantryID uuid.UUID) error
	UpdateStock(ctx context.Context, stock *kitchen.PantryStock) error
	DeleteStock(ctx context.Context, stockID uuid.UUID) error
	AppendCookingEvent(ctx context.Context, event *kitchen.CookingEvent) error

	Commit() error
	Rollback() error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MetricsRecorder receives business measurements from the services
type MetricsRecorder interface {
	RecordResolution(action string, tier string)
	ObserveTier(tier string, duration time.Duration)
	RecordFeasibility(outcome string)
	RecordCook(outcome string)
	RecordDeductions(count int)
}
