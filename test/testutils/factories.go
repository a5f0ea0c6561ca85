// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// IngredientFactory builds catalog entries
type IngredientFactory struct {
	faker *gofakeit.Faker
}

// NewIngredientFactory creates a factory with a seeded faker
func NewIngredientFactory(seed int64) *IngredientFactory {
	return &IngredientFactory{faker: gofakeit.New(seed)}
}

// Canonical builds a reviewed entry with the given name and aliases
func (f *IngredientFactory) Canonical(name string, aliases ...string) *ingredient.Ingredient {
	now := time.Now().UTC()
	return &ingredient.Ingredient{
		ID:            uuid.New(),
		CanonicalName: ingredient.NormalizeName(name),
		Aliases:       ingredient.NewAliases(aliases...),
		Category:      "produce",
		IsCanonical:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// WithEmbedding builds a canonical entry carrying vec
func (f *IngredientFactory) WithEmbedding(name string, vec []float32) *ingredient.Ingredient {
	ing := f.Canonical(name)
	ing.Embedding = vec
	return ing
}

// Pending builds an unreviewed entry
func (f *IngredientFactory) Pending(name string) *ingredient.Ingredient {
	ing := f.Canonical(name)
	ing.IsCanonical = false
	ing.PendingReview = true
	return ing
}

// Random builds a canonical entry with a fake food name
func (f *IngredientFactory) Random() *ingredient.Ingredient {
	ing := f.Canonical(f.faker.Fruit() + " " + f.faker.LetterN(6))
	ing.Category = f.faker.RandomString([]string{"produce", "dairy", "pantry", "spice"})
	return ing
}

// KitchenFixture seeds pantries, recipes and rules through a repository
type KitchenFixture struct {
	t       *testing.T
	ctx     context.Context
	repo    outbound.KitchenRepository
	catalog outbound.IngredientStore
}

// NewKitchenFixture creates a fixture writing to repo
func NewKitchenFixture(t *testing.T, repo outbound.KitchenRepository) *KitchenFixture {
	return &KitchenFixture{t: t, ctx: context.Background(), repo: repo}
}

// WithCatalog registers every named ingredient in store as well. Stores that
// join names from the catalog need this.
func (f *KitchenFixture) WithCatalog(store outbound.IngredientStore) *KitchenFixture {
	f.catalog = store
	return f
}

func (f *KitchenFixture) register(id uuid.UUID, name string) {
	if f.catalog == nil || name == "" {
		return
	}
	now := time.Now().UTC()
	err := f.catalog.Create(f.ctx, &ingredient.Ingredient{
		ID:            id,
		CanonicalName: ingredient.NormalizeName(name),
		IsCanonical:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if errors.Is(err, ingredient.ErrDuplicateIngredient) {
		return
	}
	require.NoError(f.t, err)
}

// Pantry creates an empty pantry
func (f *KitchenFixture) Pantry(name string) uuid.UUID {
	p := &kitchen.Pantry{ID: uuid.New(), Name: name, OwnerID: uuid.New(), CreatedAt: time.Now().UTC()}
	require.NoError(f.t, f.repo.CreatePantry(f.ctx, p))
	return p.ID
}

// Recipe creates a recipe with no requirements
func (f *KitchenFixture) Recipe(name string) uuid.UUID {
	r := &kitchen.Recipe{ID: uuid.New(), Name: name, OwnerID: uuid.New(), CreatedAt: time.Now().UTC()}
	require.NoError(f.t, f.repo.CreateRecipe(f.ctx, r))
	return r.ID
}

// Stock stores qty of unit for an ingredient
func (f *KitchenFixture) Stock(pantryID, ingredientID uuid.UUID, name string, qty float64, unit string) *kitchen.PantryStock {
	s, err := kitchen.NewPantryStock(pantryID, ingredientID, qty, unit)
	require.NoError(f.t, err)
	s.IngredientName = name
	f.register(ingredientID, name)
	require.NoError(f.t, f.repo.SaveStock(f.ctx, s))
	return s
}

// Require adds a requirement row to a recipe
func (f *KitchenFixture) Require(recipeID, ingredientID uuid.UUID, name string, qty float64, unit string, position int) *kitchen.RecipeRequirement {
	r, err := kitchen.NewRecipeRequirement(recipeID, ingredientID, qty, unit, position)
	require.NoError(f.t, err)
	r.IngredientName = name
	f.register(ingredientID, name)
	require.NoError(f.t, f.repo.SaveRequirement(f.ctx, r))
	return r
}

// Optional adds an optional requirement row
func (f *KitchenFixture) Optional(recipeID, ingredientID uuid.UUID, name string, qty float64, unit string, position int) *kitchen.RecipeRequirement {
	r, err := kitchen.NewRecipeRequirement(recipeID, ingredientID, qty, unit, position)
	require.NoError(f.t, err)
	r.IngredientName = name
	r.Optional = true
	f.register(ingredientID, name)
	require.NoError(f.t, f.repo.SaveRequirement(f.ctx, r))
	return r
}

// Rule stores a substitution rule
func (f *KitchenFixture) Rule(originalID, substituteID uuid.UUID, name string, ctx kitchen.Context, quality kitchen.Quality, ratio float64) *kitchen.SubstitutionRule {
	rule, err := kitchen.NewSubstitutionRule(originalID, substituteID, ctx, quality, ratio)
	require.NoError(f.t, err)
	rule.SubstituteName = name
	f.register(substituteID, name)
	require.NoError(f.t, f.repo.SaveRule(f.ctx, rule))
	return rule
}

// StockOf returns the committed quantity of an ingredient, or false when
// the row is absent
func (f *KitchenFixture) StockOf(pantryID, ingredientID uuid.UUID) (kitchen.PantryStock, bool) {
	rows, err := f.repo.ListStock(f.ctx, pantryID)
	require.NoError(f.t, err)
	for _, r := range rows {
		if r.IngredientID == ingredientID {
			return r, true
		}
	}
	return kitchen.PantryStock{}, false
}
