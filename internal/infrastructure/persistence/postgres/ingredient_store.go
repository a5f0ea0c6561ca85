package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// ingredientColumns selects an entry with its aliases in insertion order
const ingredientColumns = `
	i.id, i.canonical_name, i.category, i.embedding, i.is_canonical,
	i.pending_review, i.parent_id, i.submitted_by, i.created_at, i.updated_at,
	COALESCE(
		(SELECT array_agg(a.alias ORDER BY a.position) FROM ingredient_aliases a WHERE a.ingredient_id = i.id),
		'{}'
	)`

// IngredientStore implements the catalog on PostgreSQL. Fuzzy search uses
// pg_trgm similarity() and semantic search uses the pgvector cosine
// distance operator, so ranking happens in the database.
type IngredientStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

var _ outbound.IngredientStore = (*IngredientStore)(nil)

// NewIngredientStore creates a new pgx-backed catalog store
func NewIngredientStore(db *pgxpool.Pool, logger *zap.Logger) *IngredientStore {
	return &IngredientStore{
		db:     db,
		logger: logger.Named("ingredient-store"),
	}
}

// FindExact matches a canonical name first, then any alias
func (s *IngredientStore) FindExact(ctx context.Context, normalized string) (*ingredient.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + `
		FROM ingredients i
		WHERE NOT i.pending_review
		  AND (i.canonical_name = $1
		       OR EXISTS (SELECT 1 FROM ingredient_aliases a WHERE a.ingredient_id = i.id AND a.alias = $1))
		ORDER BY (i.canonical_name = $1) DESC, i.id::text
		LIMIT 1`

	ing, err := scanIngredient(s.db.QueryRow(ctx, query, normalized))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find exact ingredient: %w", err)
	}
	return ing, nil
}

// FuzzySearch ranks entries by the best trigram similarity of their name
// and aliases
func (s *IngredientStore) FuzzySearch(ctx context.Context, term string, minSimilarity float64, limit int) ([]ingredient.Candidate, error) {
	query := `SELECT * FROM (
			SELECT ` + ingredientColumns + `,
				GREATEST(
					similarity(i.canonical_name, $1),
					COALESCE((SELECT max(similarity(a.alias, $1)) FROM ingredient_aliases a WHERE a.ingredient_id = i.id), 0)
				) AS score
			FROM ingredients i
			WHERE NOT i.pending_review
		) ranked
		WHERE score > 0 AND score >= $2
		ORDER BY score DESC, id::text
		LIMIT $3`

	rows, err := s.db.Query(ctx, query, term, minSimilarity, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	return collectCandidates(rows, ingredient.SourceFuzzy)
}

// SemanticSearch ranks entries by cosine similarity to embedding
func (s *IngredientStore) SemanticSearch(ctx context.Context, embedding []float32, minSimilarity float64, limit int) ([]ingredient.Candidate, error) {
	query := `SELECT * FROM (
			SELECT ` + ingredientColumns + `,
				1 - (i.embedding <=> $1) AS score
			FROM ingredients i
			WHERE NOT i.pending_review
			  AND i.embedding IS NOT NULL
			  AND vector_dims(i.embedding) = $4
		) ranked
		WHERE score >= $2
		ORDER BY score DESC, id::text
		LIMIT $3`

	rows, err := s.db.Query(ctx, query, pgvector.NewVector(embedding), minSimilarity, limitOrAll(limit), len(embedding))
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return collectCandidates(rows, ingredient.SourceSemantic)
}

// Create inserts an entry and its aliases in one transaction
func (s *IngredientStore) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}

	var embedding *pgvector.Vector
	if ing.HasEmbedding() {
		vec := pgvector.NewVector(ing.Embedding)
		embedding = &vec
	}

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO ingredients
				(id, canonical_name, category, embedding, is_canonical, pending_review, parent_id, submitted_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			RETURNING created_at, updated_at`,
			ing.ID, ing.CanonicalName, ing.Category, embedding,
			ing.IsCanonical, ing.PendingReview, ing.ParentID, ing.SubmittedBy,
		).Scan(&ing.CreatedAt, &ing.UpdatedAt)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, alias := range ing.Aliases {
			batch.Queue(`INSERT INTO ingredient_aliases (id, ingredient_id, alias, position) VALUES ($1, $2, $3, $4)`,
				uuid.New(), ing.ID, alias, i)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ingredient.ErrDuplicateIngredient
		}
		s.logger.Error("Failed to create ingredient",
			zap.String("name", ing.CanonicalName),
			zap.Error(err),
		)
		return fmt.Errorf("create ingredient: %w", err)
	}
	return nil
}

// FindByID loads any entry
func (s *IngredientStore) FindByID(ctx context.Context, id uuid.UUID) (*ingredient.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients i WHERE i.id = $1`

	ing, err := scanIngredient(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingredient.ErrIngredientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ingredient: %w", err)
	}
	return ing, nil
}

// Promote marks an entry canonical
func (s *IngredientStore) Promote(ctx context.Context, id uuid.UUID) error {
	ing, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := ing.Promote(); err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`UPDATE ingredients SET is_canonical = TRUE, pending_review = FALSE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("promote ingredient: %w", err)
	}

	s.logger.Info("Ingredient promoted", zap.String("ingredient_id", id.String()))
	return nil
}

func scanIngredient(row pgx.Row, extra ...any) (*ingredient.Ingredient, error) {
	var (
		ing       ingredient.Ingredient
		embedding *pgvector.Vector
		aliases   []string
	)
	dest := []any{
		&ing.ID, &ing.CanonicalName, &ing.Category, &embedding, &ing.IsCanonical,
		&ing.PendingReview, &ing.ParentID, &ing.SubmittedBy, &ing.CreatedAt, &ing.UpdatedAt,
		&aliases,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	ing.Aliases = ingredient.Aliases(aliases)
	if embedding != nil {
		ing.Embedding = embedding.Slice()
	}
	return &ing, nil
}

func collectCandidates(rows pgx.Rows, source ingredient.Source) ([]ingredient.Candidate, error) {
	defer rows.Close()

	var out []ingredient.Candidate
	for rows.Next() {
		var score float64
		ing, err := scanIngredient(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, ingredient.CandidateFrom(ing, score, source))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// limitOrAll maps a non-positive limit to SQL's LIMIT ALL
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
