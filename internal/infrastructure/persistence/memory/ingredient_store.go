// Package memory provides in-process implementations of the outbound ports.
// They back the "memory" database driver and the application tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
)

var _ outbound.IngredientStore = (*IngredientStore)(nil)

// IngredientStore keeps the catalog in a map and scores searches in Go
type IngredientStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*ingredient.Ingredient
}

// NewIngredientStore creates an empty catalog
func NewIngredientStore() *IngredientStore {
	return &IngredientStore{items: make(map[uuid.UUID]*ingredient.Ingredient)}
}

// FindExact returns the searchable entry whose name or alias equals normalized
func (s *IngredientStore) FindExact(ctx context.Context, normalized string) (*ingredient.Ingredient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *ingredient.Ingredient
	for _, ing := range s.items {
		if !ing.Searchable() || !ing.Matches(normalized) {
			continue
		}
		// prefer a canonical-name hit, then the lowest id for stability
		if found == nil || betterExact(ing, found, normalized) {
			found = ing
		}
	}
	if found == nil {
		return nil, nil
	}
	return clone(found), nil
}

func betterExact(a, b *ingredient.Ingredient, normalized string) bool {
	aName, bName := a.CanonicalName == normalized, b.CanonicalName == normalized
	if aName != bName {
		return aName
	}
	return a.ID.String() < b.ID.String()
}

// FuzzySearch scores every searchable entry by trigram similarity
func (s *IngredientStore) FuzzySearch(ctx context.Context, term string, minSimilarity float64, limit int) ([]ingredient.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ingredient.Candidate
	for _, ing := range s.items {
		if !ing.Searchable() {
			continue
		}
		score := ingredient.BestTextSimilarity(term, ing)
		if score >= minSimilarity && score > 0 {
			out = append(out, ingredient.CandidateFrom(ing, score, ingredient.SourceFuzzy))
		}
	}
	return truncate(out, limit), nil
}

// SemanticSearch scores every searchable entry with an embedding by cosine similarity
func (s *IngredientStore) SemanticSearch(ctx context.Context, embedding []float32, minSimilarity float64, limit int) ([]ingredient.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ingredient.Candidate
	for _, ing := range s.items {
		if !ing.Searchable() || !ing.HasEmbedding() || len(ing.Embedding) != len(embedding) {
			continue
		}
		score := ingredient.CosineSimilarity(embedding, ing.Embedding)
		if score >= minSimilarity {
			out = append(out, ingredient.CandidateFrom(ing, score, ingredient.SourceSemantic))
		}
	}
	return truncate(out, limit), nil
}

// Create stores a copy of ing
func (s *IngredientStore) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.CanonicalName == ing.CanonicalName {
			return ingredient.ErrDuplicateIngredient
		}
	}
	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}
	if ing.CreatedAt.IsZero() {
		ing.CreatedAt = time.Now().UTC()
		ing.UpdatedAt = ing.CreatedAt
	}
	s.items[ing.ID] = clone(ing)
	return nil
}

// FindByID loads any entry
func (s *IngredientStore) FindByID(ctx context.Context, id uuid.UUID) (*ingredient.Ingredient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ing, ok := s.items[id]
	if !ok {
		return nil, ingredient.ErrIngredientNotFound
	}
	return clone(ing), nil
}

// Promote marks an entry canonical
func (s *IngredientStore) Promote(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ing, ok := s.items[id]
	if !ok {
		return ingredient.ErrIngredientNotFound
	}
	return ing.Promote()
}

// Len returns the number of stored entries
func (s *IngredientStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func truncate(c []ingredient.Candidate, limit int) []ingredient.Candidate {
	ingredient.SortCandidates(c)
	if limit > 0 && len(c) > limit {
		c = c[:limit]
	}
	return c
}

func clone(ing *ingredient.Ingredient) *ingredient.Ingredient {
	cp := *ing
	cp.Aliases = append(ingredient.Aliases(nil), ing.Aliases...)
	if ing.Embedding != nil {
		cp.Embedding = append([]float32(nil), ing.Embedding...)
	}
	return &cp
}
