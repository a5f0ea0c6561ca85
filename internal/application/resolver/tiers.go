package resolver

import (
	"context"
	"math"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request is one resolution in flight
type Request struct {
	Text       string
	Normalized string
	Embedding  []float32
	Options    Options
}

// Cascade carries what earlier tiers learned to later ones
type Cascade struct {
	// Lists holds candidate lists in tier order for the final merge
	Lists [][]ingredient.Candidate

	// GateScore is the best approximate score among rows at or above
	// min(FuzzyThreshold, SemanticCeiling). It decides whether the
	// semantic tier runs.
	GateScore float64
}

// Tier is one step of the cascade. Returning a non-nil Resolution ends the
// cascade; returning nil continues with whatever was added to the Cascade.
type Tier interface {
	Name() string
	Resolve(ctx context.Context, req *Request, c *Cascade) (*inbound.Resolution, error)
}

// ExactTier matches normalized text against names and aliases
type ExactTier struct {
	store outbound.IngredientStore
}

// NewExactTier creates the exact tier
func NewExactTier(store outbound.IngredientStore) *ExactTier {
	return &ExactTier{store: store}
}

func (t *ExactTier) Name() string { return string(ingredient.SourceExact) }

func (t *ExactTier) Resolve(ctx context.Context, req *Request, _ *Cascade) (*inbound.Resolution, error) {
	ing, err := t.store.FindExact(ctx, req.Normalized)
	if err != nil {
		return nil, err
	}
	if ing == nil || !ing.Searchable() {
		return nil, nil
	}
	return matched(ing.ID, ing.CanonicalName, ing.Aliases.Strings(), ing.Category, 1.0, ingredient.SourceExact), nil
}

// FuzzyTier runs trigram search and short-circuits on a confident top hit
type FuzzyTier struct {
	store outbound.IngredientStore
}

// NewFuzzyTier creates the approximate-text tier
func NewFuzzyTier(store outbound.IngredientStore) *FuzzyTier {
	return &FuzzyTier{store: store}
}

func (t *FuzzyTier) Name() string { return string(ingredient.SourceFuzzy) }

func (t *FuzzyTier) Resolve(ctx context.Context, req *Request, c *Cascade) (*inbound.Resolution, error) {
	opts := req.Options
	floor := math.Min(opts.FuzzyThreshold, opts.SemanticCeiling)

	rows, err := t.store.FuzzySearch(ctx, req.Normalized, floor, opts.Limit)
	if err != nil {
		return nil, err
	}

	kept := make([]ingredient.Candidate, 0, len(rows))
	for _, r := range rows {
		if r.Similarity > c.GateScore {
			c.GateScore = r.Similarity
		}
		if r.Similarity >= opts.FuzzyThreshold {
			r.Source = ingredient.SourceFuzzy
			kept = append(kept, r)
		}
	}
	ingredient.SortCandidates(kept)

	if len(kept) > 0 && kept[0].Similarity > opts.HighConfidence {
		top := kept[0]
		return matched(top.ID, top.CanonicalName, top.Aliases, top.Category, top.Similarity, ingredient.SourceFuzzy), nil
	}

	c.Lists = append(c.Lists, kept)
	return nil, nil
}

// SemanticTier runs vector search when the text tiers were not convincing
type SemanticTier struct {
	store    outbound.IngredientStore
	embedder outbound.Embedder
	logger   *zap.Logger
}

// NewSemanticTier creates the semantic tier. A nil embedder limits it to
// requests that carry a precomputed embedding.
func NewSemanticTier(store outbound.IngredientStore, embedder outbound.Embedder, logger *zap.Logger) *SemanticTier {
	return &SemanticTier{store: store, embedder: embedder, logger: logger}
}

func (t *SemanticTier) Name() string { return string(ingredient.SourceSemantic) }

func (t *SemanticTier) Resolve(ctx context.Context, req *Request, c *Cascade) (*inbound.Resolution, error) {
	if c.GateScore >= req.Options.SemanticCeiling {
		return nil, nil
	}

	vec := req.Embedding
	if len(vec) == 0 {
		if t.embedder == nil {
			return nil, nil
		}
		var err error
		vec, err = t.embedder.Embed(ctx, req.Normalized)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.logger.Warn("Semantic tier skipped, embedding failed",
				zap.String("text", req.Normalized),
				zap.Error(err),
			)
			return nil, nil
		}
	}

	rows, err := t.store.SemanticSearch(ctx, vec, req.Options.SemanticThreshold, req.Options.Limit)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Source = ingredient.SourceSemantic
	}
	c.Lists = append(c.Lists, rows)
	return nil, nil
}

func matched(id uuid.UUID, name string, aliases []string, category string, score float64, source ingredient.Source) *inbound.Resolution {
	return &inbound.Resolution{
		Action: inbound.ActionMatched,
		Ingredient: &inbound.IngredientDTO{
			ID:            id,
			CanonicalName: name,
			Aliases:       aliases,
			Category:      category,
		},
		Confidence: score,
		Tier:       source,
	}
}
