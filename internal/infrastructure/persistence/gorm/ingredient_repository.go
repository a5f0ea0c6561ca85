package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ outbound.IngredientStore = (*IngredientRepository)(nil)

// IngredientRepository implements the catalog store using GORM. Text and
// vector scoring happen in Go so the same code runs on SQLite and Postgres.
type IngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// FindExact returns the searchable entry whose name or alias equals normalized
func (r *IngredientRepository) FindExact(ctx context.Context, normalized string) (*ingredient.Ingredient, error) {
	aliasOwners := r.db.Model(&IngredientAliasModel{}).Select("ingredient_id").Where("alias = ?", normalized)

	var models []IngredientModel
	err := r.db.WithContext(ctx).
		Preload("Aliases").
		Where("pending_review = ?", false).
		Where("canonical_name = ? OR id IN (?)", normalized, aliasOwners).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find exact ingredient: %w", err)
	}

	var best *IngredientModel
	for i := range models {
		m := &models[i]
		if best == nil {
			best = m
			continue
		}
		mName, bestName := m.CanonicalName == normalized, best.CanonicalName == normalized
		if mName != bestName {
			if mName {
				best = m
			}
			continue
		}
		if m.ID.String() < best.ID.String() {
			best = m
		}
	}
	if best == nil {
		return nil, nil
	}
	return ModelToIngredient(best), nil
}

// FuzzySearch scores every searchable entry by trigram similarity
func (r *IngredientRepository) FuzzySearch(ctx context.Context, term string, minSimilarity float64, limit int) ([]ingredient.Candidate, error) {
	var models []IngredientModel
	err := r.db.WithContext(ctx).
		Preload("Aliases").
		Where("pending_review = ?", false).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}

	var out []ingredient.Candidate
	for i := range models {
		ing := ModelToIngredient(&models[i])
		score := ingredient.BestTextSimilarity(term, ing)
		if score > 0 && score >= minSimilarity {
			out = append(out, ingredient.CandidateFrom(ing, score, ingredient.SourceFuzzy))
		}
	}
	return topCandidates(out, limit), nil
}

// SemanticSearch scores every searchable entry with an embedding by cosine similarity
func (r *IngredientRepository) SemanticSearch(ctx context.Context, embedding []float32, minSimilarity float64, limit int) ([]ingredient.Candidate, error) {
	var models []IngredientModel
	err := r.db.WithContext(ctx).
		Preload("Aliases").
		Where("pending_review = ? AND embedding IS NOT NULL", false).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	var out []ingredient.Candidate
	for i := range models {
		ing := ModelToIngredient(&models[i])
		if len(ing.Embedding) != len(embedding) {
			continue
		}
		score := ingredient.CosineSimilarity(embedding, ing.Embedding)
		if score >= minSimilarity {
			out = append(out, ingredient.CandidateFrom(ing, score, ingredient.SourceSemantic))
		}
	}
	return topCandidates(out, limit), nil
}

// Create inserts an entry and its aliases in one transaction
func (r *IngredientRepository) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}
	model := IngredientToModel(ing)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&IngredientModel{}).Where("canonical_name = ?", model.CanonicalName).Count(&count).Error; err != nil {
			return fmt.Errorf("check duplicate ingredient: %w", err)
		}
		if count > 0 {
			return ingredient.ErrDuplicateIngredient
		}

		if err := tx.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ingredient.ErrDuplicateIngredient
			}
			return fmt.Errorf("create ingredient: %w", err)
		}
		ing.CreatedAt = model.CreatedAt
		ing.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// FindByID loads any entry
func (r *IngredientRepository) FindByID(ctx context.Context, id uuid.UUID) (*ingredient.Ingredient, error) {
	var model IngredientModel
	err := r.db.WithContext(ctx).Preload("Aliases").First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ingredient.ErrIngredientNotFound
		}
		return nil, fmt.Errorf("find ingredient: %w", err)
	}
	return ModelToIngredient(&model), nil
}

// Promote marks an entry canonical
func (r *IngredientRepository) Promote(ctx context.Context, id uuid.UUID) error {
	ing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := ing.Promote(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&IngredientModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_canonical":   true,
			"pending_review": false,
			"updated_at":     ing.UpdatedAt,
		}).Error
}

// Names maps ingredient ids to canonical names
func (r *IngredientRepository) Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return ingredientNames(r.db.WithContext(ctx), ids)
}

func ingredientNames(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []struct {
		ID            uuid.UUID
		CanonicalName string
	}
	err := db.Model(&IngredientModel{}).
		Select("id, canonical_name").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load ingredient names: %w", err)
	}
	for _, row := range rows {
		names[row.ID] = row.CanonicalName
	}
	return names, nil
}

func topCandidates(c []ingredient.Candidate, limit int) []ingredient.Candidate {
	ingredient.SortCandidates(c)
	if limit > 0 && len(c) > limit {
		c = c[:limit]
	}
	return c
}
