// Package resolver provides the application layer for ingredient resolution.
// It runs an ordered cascade of search tiers over the ingredient store and
// submits new ingredients for review.
package resolver

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/alchemorsel/kitchen/pkg/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options are the cascade thresholds
type Options struct {
	FuzzyThreshold    float64
	HighConfidence    float64
	SemanticCeiling   float64
	SemanticThreshold float64
	Limit             int
}

// DefaultOptions returns the documented defaults
func DefaultOptions() Options {
	return Options{
		FuzzyThreshold:    0.3,
		HighConfidence:    0.8,
		SemanticCeiling:   0.6,
		SemanticThreshold: 0.7,
		Limit:             5,
	}
}

// Validate checks every threshold is in [0, 1] and the limit is positive
func (o Options) Validate() error {
	for name, v := range map[string]float64{
		"fuzzy_threshold":    o.FuzzyThreshold,
		"high_confidence":    o.HighConfidence,
		"semantic_ceiling":   o.SemanticCeiling,
		"semantic_threshold": o.SemanticThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	if o.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", o.Limit)
	}
	return nil
}

var _ inbound.IngredientResolver = (*Service)(nil)

// Service implements inbound.IngredientResolver
type Service struct {
	store     outbound.IngredientStore
	embedder  outbound.Embedder
	tiers     []Tier
	defaults  atomic.Pointer[Options]
	validator *validation.Validator
	metrics   outbound.MetricsRecorder
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewService creates a resolver with the standard exact, fuzzy, semantic
// cascade. embedder may be nil.
func NewService(
	store outbound.IngredientStore,
	embedder outbound.Embedder,
	defaults Options,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) (*Service, error) {
	named := logger.Named("ingredient-resolver")
	tiers := []Tier{
		NewExactTier(store),
		NewFuzzyTier(store),
		NewSemanticTier(store, embedder, named),
	}
	return NewServiceWithTiers(store, embedder, tiers, defaults, metrics, named)
}

// NewServiceWithTiers creates a resolver running a custom tier order
func NewServiceWithTiers(
	store outbound.IngredientStore,
	embedder outbound.Embedder,
	tiers []Tier,
	defaults Options,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) (*Service, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolver options: %w", err)
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}

	s := &Service{
		store:     store,
		embedder:  embedder,
		tiers:     tiers,
		validator: validation.New(),
		metrics:   metrics,
		tracer:    otel.Tracer("kitchen/resolver"),
		logger:    logger,
	}
	s.defaults.Store(&defaults)
	return s, nil
}

// UpdateDefaults swaps the thresholds used by subsequent calls
func (s *Service) UpdateDefaults(opts Options) error {
	if err := opts.Validate(); err != nil {
		return errors.NewValidationError(err.Error())
	}
	s.defaults.Store(&opts)
	s.logger.Info("Resolver thresholds updated",
		zap.Float64("fuzzy_threshold", opts.FuzzyThreshold),
		zap.Float64("high_confidence", opts.HighConfidence),
		zap.Float64("semantic_ceiling", opts.SemanticCeiling),
		zap.Float64("semantic_threshold", opts.SemanticThreshold),
		zap.Int("limit", opts.Limit),
	)
	return nil
}

// Defaults returns the thresholds currently in effect
func (s *Service) Defaults() Options {
	return *s.defaults.Load()
}

// ResolveIngredient runs the cascade for one piece of free text
func (s *Service) ResolveIngredient(ctx context.Context, query inbound.ResolveIngredientQuery) (*inbound.Resolution, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	req := &Request{
		Text:       query.Text,
		Normalized: ingredient.NormalizeName(query.Text),
		Embedding:  query.Embedding,
		Options:    s.optionsFor(query),
	}
	if req.Normalized == "" {
		return nil, errors.NewValidationError("text must contain at least one visible character")
	}
	if err := req.Options.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if len(req.Embedding) > 0 && s.embedder != nil && len(req.Embedding) != s.embedder.Dimension() {
		return nil, errors.NewValidationError(fmt.Sprintf(
			"embedding has %d dimensions, expected %d", len(req.Embedding), s.embedder.Dimension(),
		)).WithCause(ingredient.ErrDimensionMismatch)
	}

	ctx, span := s.tracer.Start(ctx, "resolver.ResolveIngredient",
		trace.WithAttributes(attribute.String("ingredient.text", req.Normalized)))
	defer span.End()

	cascade := &Cascade{}
	for _, tier := range s.tiers {
		start := time.Now()
		res, err := tier.Resolve(ctx, req, cascade)
		s.metrics.ObserveTier(tier.Name(), time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Error("Resolver tier failed",
				zap.String("tier", tier.Name()),
				zap.String("text", req.Normalized),
				zap.Error(err),
			)
			return nil, wrapStoreError("search "+tier.Name()+" tier", err)
		}
		if res != nil {
			s.record(span, res, tier.Name())
			return res, nil
		}
	}

	merged := ingredient.MergeCandidates(req.Options.Limit, cascade.Lists...)
	res := &inbound.Resolution{Action: inbound.ActionCreateNew}
	if len(merged) > 0 {
		res = &inbound.Resolution{
			Action:      inbound.ActionConfirm,
			Confidence:  merged[0].Similarity,
			Tier:        merged[0].Source,
			Suggestions: merged,
		}
	}
	s.record(span, res, "merge")
	return res, nil
}

// CreateIngredient normalizes, embeds and stores a pending ingredient
func (s *Service) CreateIngredient(ctx context.Context, cmd inbound.CreateIngredientCommand) (*inbound.CreatedIngredient, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	ing, err := ingredient.NewSubmission(cmd.Name, cmd.SubmitterID, ingredient.SubmissionOptions{
		Category: cmd.Category,
		Aliases:  cmd.Aliases,
		ParentID: cmd.ParentID,
	})
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	ctx, span := s.tracer.Start(ctx, "resolver.CreateIngredient",
		trace.WithAttributes(attribute.String("ingredient.name", ing.CanonicalName)))
	defer span.End()

	s.logger.Info("Creating ingredient",
		zap.String("name", ing.CanonicalName),
		zap.String("submitted_by", cmd.SubmitterID.String()),
	)

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, ing.CanonicalName)
		switch {
		case err == nil:
			ing.Embedding = vec
		case ctx.Err() != nil:
			return nil, errors.NewCancelledError("create ingredient", ctx.Err())
		default:
			s.logger.Warn("Storing ingredient without embedding",
				zap.String("name", ing.CanonicalName),
				zap.Error(err),
			)
		}
	}

	if err := s.store.Create(ctx, ing); err != nil {
		span.RecordError(err)
		if stderrors.Is(err, ingredient.ErrDuplicateIngredient) {
			return nil, errors.NewIngredientExistsError(ing.CanonicalName, err)
		}
		return nil, errors.NewDatabaseError("create ingredient", err)
	}

	s.logger.Info("Ingredient created pending review",
		zap.String("ingredient_id", ing.ID.String()),
		zap.String("name", ing.CanonicalName),
		zap.Bool("has_embedding", ing.HasEmbedding()),
	)

	return &inbound.CreatedIngredient{
		ID:            ing.ID,
		CanonicalName: ing.CanonicalName,
		PendingReview: ing.PendingReview,
		HasEmbedding:  ing.HasEmbedding(),
	}, nil
}

func (s *Service) optionsFor(q inbound.ResolveIngredientQuery) Options {
	opts := s.Defaults()
	if q.Limit > 0 {
		opts.Limit = q.Limit
	}
	if q.FuzzyThreshold != nil {
		opts.FuzzyThreshold = *q.FuzzyThreshold
	}
	if q.HighConfidence != nil {
		opts.HighConfidence = *q.HighConfidence
	}
	if q.SemanticCeiling != nil {
		opts.SemanticCeiling = *q.SemanticCeiling
	}
	if q.SemanticThreshold != nil {
		opts.SemanticThreshold = *q.SemanticThreshold
	}
	return opts
}

func (s *Service) record(span trace.Span, res *inbound.Resolution, tier string) {
	s.metrics.RecordResolution(string(res.Action), tier)
	span.SetAttributes(
		attribute.String("resolver.action", string(res.Action)),
		attribute.String("resolver.tier", tier),
		attribute.Int("resolver.suggestions", len(res.Suggestions)),
	)
	s.logger.Debug("Ingredient resolved",
		zap.String("action", string(res.Action)),
		zap.String("tier", tier),
		zap.Float64("confidence", res.Confidence),
		zap.Int("suggestions", len(res.Suggestions)),
	)
}

func wrapStoreError(operation string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelledError(operation, err)
	}
	return errors.NewDatabaseError(operation, err)
}
