// Package seed populates an empty catalog with starter ingredients and
// substitution rules. Running it again is a no-op.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry is one starter ingredient
type Entry struct {
	Name     string
	Category string
	Aliases  []string
}

// Rule is one starter substitution, by canonical name
type Rule struct {
	Original   string
	Substitute string
	Context    kitchen.Context
	Quality    kitchen.Quality
	Ratio      float64
	Notes      string
}

// Ingredients is the starter catalog
var Ingredients = []Entry{
	{Name: "all-purpose flour", Category: "baking", Aliases: []string{"flour", "plain flour", "ap flour"}},
	{Name: "whole wheat flour", Category: "baking", Aliases: []string{"wholemeal flour"}},
	{Name: "almond flour", Category: "baking", Aliases: []string{"ground almonds"}},
	{Name: "granulated sugar", Category: "baking", Aliases: []string{"sugar", "white sugar"}},
	{Name: "brown sugar", Category: "baking"},
	{Name: "honey", Category: "pantry"},
	{Name: "baking powder", Category: "baking"},
	{Name: "baking soda", Category: "baking", Aliases: []string{"bicarbonate of soda", "bicarb"}},
	{Name: "butter", Category: "dairy", Aliases: []string{"unsalted butter"}},
	{Name: "margarine", Category: "dairy"},
	{Name: "olive oil", Category: "pantry", Aliases: []string{"extra virgin olive oil", "evoo"}},
	{Name: "vegetable oil", Category: "pantry", Aliases: []string{"canola oil"}},
	{Name: "milk", Category: "dairy", Aliases: []string{"whole milk"}},
	{Name: "oat milk", Category: "dairy"},
	{Name: "buttermilk", Category: "dairy"},
	{Name: "heavy cream", Category: "dairy", Aliases: []string{"double cream", "whipping cream"}},
	{Name: "greek yogurt", Category: "dairy", Aliases: []string{"yogurt"}},
	{Name: "sour cream", Category: "dairy"},
	{Name: "egg", Category: "dairy", Aliases: []string{"eggs", "large egg"}},
	{Name: "parmesan", Category: "dairy", Aliases: []string{"parmigiano reggiano"}},
	{Name: "salt", Category: "spice", Aliases: []string{"table salt", "kosher salt"}},
	{Name: "black pepper", Category: "spice", Aliases: []string{"pepper"}},
	{Name: "garlic", Category: "produce", Aliases: []string{"garlic clove"}},
	{Name: "onion", Category: "produce", Aliases: []string{"yellow onion"}},
	{Name: "shallot", Category: "produce"},
	{Name: "green onion", Category: "produce", Aliases: []string{"scallion", "spring onion"}},
	{Name: "tomato", Category: "produce", Aliases: []string{"tomatoes"}},
	{Name: "lemon juice", Category: "produce"},
	{Name: "lime juice", Category: "produce"},
	{Name: "chicken breast", Category: "meat", Aliases: []string{"boneless chicken breast"}},
	{Name: "chicken thigh", Category: "meat"},
	{Name: "rice", Category: "grain", Aliases: []string{"white rice"}},
	{Name: "spaghetti", Category: "grain", Aliases: []string{"pasta"}},
}

// Rules are the starter substitutions
var Rules = []Rule{
	{Original: "butter", Substitute: "margarine", Context: kitchen.ContextAny, Quality: kitchen.QualityGood, Ratio: 1},
	{Original: "butter", Substitute: "vegetable oil", Context: kitchen.ContextBaking, Quality: kitchen.QualityWorkable, Ratio: 0.75, Notes: "Cakes come out denser"},
	{Original: "butter", Substitute: "olive oil", Context: kitchen.ContextCooking, Quality: kitchen.QualityGood, Ratio: 0.75},
	{Original: "milk", Substitute: "oat milk", Context: kitchen.ContextAny, Quality: kitchen.QualityGood, Ratio: 1},
	{Original: "buttermilk", Substitute: "greek yogurt", Context: kitchen.ContextBaking, Quality: kitchen.QualityGood, Ratio: 1},
	{Original: "heavy cream", Substitute: "greek yogurt", Context: kitchen.ContextCooking, Quality: kitchen.QualityWorkable, Ratio: 1},
	{Original: "sour cream", Substitute: "greek yogurt", Context: kitchen.ContextAny, Quality: kitchen.QualityPerfect, Ratio: 1},
	{Original: "all-purpose flour", Substitute: "whole wheat flour", Context: kitchen.ContextBaking, Quality: kitchen.QualityWorkable, Ratio: 1},
	{Original: "all-purpose flour", Substitute: "almond flour", Context: kitchen.ContextBaking, Quality: kitchen.QualityWorkable, Ratio: 1, Notes: "Add an extra egg for structure"},
	{Original: "granulated sugar", Substitute: "brown sugar", Context: kitchen.ContextAny, Quality: kitchen.QualityGood, Ratio: 1},
	{Original: "granulated sugar", Substitute: "honey", Context: kitchen.ContextBaking, Quality: kitchen.QualityWorkable, Ratio: 0.75, Notes: "Reduce other liquids slightly"},
	{Original: "onion", Substitute: "shallot", Context: kitchen.ContextAny, Quality: kitchen.QualityGood, Ratio: 1},
	{Original: "lemon juice", Substitute: "lime juice", Context: kitchen.ContextAny, Quality: kitchen.QualityPerfect, Ratio: 1},
	{Original: "chicken breast", Substitute: "chicken thigh", Context: kitchen.ContextCooking, Quality: kitchen.QualityGood, Ratio: 1},
}

// Report counts what a run created
type Report struct {
	IngredientsCreated int
	RulesCreated       int
	EmbeddingFailures  int
	Duration           time.Duration
}

// Seeder writes the starter catalog through the outbound ports
type Seeder struct {
	store    outbound.IngredientStore
	kitchen  outbound.KitchenRepository
	embedder outbound.Embedder
	logger   *zap.Logger
}

// NewSeeder creates a seeder. embedder may be nil, leaving entries without
// embeddings.
func NewSeeder(store outbound.IngredientStore, kitchenRepo outbound.KitchenRepository, embedder outbound.Embedder, logger *zap.Logger) *Seeder {
	return &Seeder{
		store:    store,
		kitchen:  kitchenRepo,
		embedder: embedder,
		logger:   logger.Named("seed"),
	}
}

// Run creates any missing starter ingredients and rules
func (s *Seeder) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}

	ids := make(map[string]uuid.UUID, len(Ingredients))
	for _, entry := range Ingredients {
		id, created, embedFailed, err := s.ensureIngredient(ctx, entry)
		if err != nil {
			return report, err
		}
		ids[ingredient.NormalizeName(entry.Name)] = id
		if created {
			report.IngredientsCreated++
		}
		if embedFailed {
			report.EmbeddingFailures++
		}
	}

	originals := make([]uuid.UUID, 0, len(Rules))
	for _, r := range Rules {
		originals = append(originals, ids[ingredient.NormalizeName(r.Original)])
	}
	existing, err := s.kitchen.SubstitutionRules(ctx, originals)
	if err != nil {
		return report, fmt.Errorf("load substitution rules: %w", err)
	}

	for _, r := range Rules {
		originalID := ids[ingredient.NormalizeName(r.Original)]
		substituteID := ids[ingredient.NormalizeName(r.Substitute)]
		if hasRule(existing[originalID], substituteID, r.Context) {
			continue
		}

		rule, err := kitchen.NewSubstitutionRule(originalID, substituteID, r.Context, r.Quality, r.Ratio)
		if err != nil {
			return report, fmt.Errorf("rule %s -> %s: %w", r.Original, r.Substitute, err)
		}
		rule.Notes = r.Notes
		if err := s.kitchen.SaveRule(ctx, rule); err != nil {
			return report, fmt.Errorf("save rule %s -> %s: %w", r.Original, r.Substitute, err)
		}
		report.RulesCreated++
	}

	report.Duration = time.Since(start)
	s.logger.Info("Catalog seeded",
		zap.Int("ingredients_created", report.IngredientsCreated),
		zap.Int("rules_created", report.RulesCreated),
		zap.Int("embedding_failures", report.EmbeddingFailures),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *Seeder) ensureIngredient(ctx context.Context, entry Entry) (id uuid.UUID, created, embedFailed bool, err error) {
	name := ingredient.NormalizeName(entry.Name)

	found, err := s.store.FindExact(ctx, name)
	if err != nil {
		return uuid.Nil, false, false, fmt.Errorf("look up %q: %w", name, err)
	}
	if found != nil && found.CanonicalName == name {
		return found.ID, false, false, nil
	}

	now := time.Now().UTC()
	ing := &ingredient.Ingredient{
		ID:            uuid.New(),
		CanonicalName: name,
		Aliases:       ingredient.NewAliases(entry.Aliases...).Without(name),
		Category:      ingredient.NormalizeName(entry.Category),
		IsCanonical:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if s.embedder != nil {
		vec, embedErr := s.embedder.Embed(ctx, name)
		if embedErr != nil {
			s.logger.Warn("Seeding without embedding", zap.String("name", name), zap.Error(embedErr))
			embedFailed = true
		} else {
			ing.Embedding = vec
		}
	}

	if err := s.store.Create(ctx, ing); err != nil {
		if errors.Is(err, ingredient.ErrDuplicateIngredient) {
			// a pending submission may already hold the name
			return uuid.Nil, false, embedFailed, fmt.Errorf("seed %q conflicts with an existing entry: %w", name, err)
		}
		return uuid.Nil, false, embedFailed, fmt.Errorf("create %q: %w", name, err)
	}
	return ing.ID, true, embedFailed, nil
}

func hasRule(rules []kitchen.SubstitutionRule, substituteID uuid.UUID, ctx kitchen.Context) bool {
	for _, r := range rules {
		if r.SubstituteID == substituteID && r.Context == ctx {
			return true
		}
	}
	return false
}
