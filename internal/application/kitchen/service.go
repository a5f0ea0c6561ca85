// Package kitchen provides the application layer for recipe feasibility and
// cooking. Feasibility reads a snapshot and evaluates it; cooking repeats the
// evaluation inside a unit of work and applies the deductions atomically.
package kitchen

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/alchemorsel/kitchen/pkg/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options tune feasibility and cooking
type Options struct {
	TieBreak        kitchen.TieBreak
	QuantityEpsilon float64
}

// DefaultOptions ranks equal-quality substitutes by id and uses the
// default float tolerance
func DefaultOptions() Options {
	return Options{
		TieBreak:        kitchen.TieBreakSubstituteID,
		QuantityEpsilon: kitchen.DefaultQuantityEpsilon,
	}
}

// Feasibility outcomes reported to metrics
const (
	OutcomeCanMake         = "can_make"
	OutcomeWithSubstitutes = "with_substitutes"
	OutcomeMissing         = "missing"
)

var _ inbound.KitchenService = (*Service)(nil)

// Service implements inbound.KitchenService
type Service struct {
	repo      outbound.KitchenRepository
	opts      Options
	validator *validation.Validator
	metrics   outbound.MetricsRecorder
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewService creates the kitchen service
func NewService(
	repo outbound.KitchenRepository,
	opts Options,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) (*Service, error) {
	if opts.TieBreak == "" {
		opts.TieBreak = kitchen.TieBreakSubstituteID
	}
	if !opts.TieBreak.Valid() {
		return nil, fmt.Errorf("invalid substitute tie-break %q", opts.TieBreak)
	}
	if opts.QuantityEpsilon <= 0 {
		opts.QuantityEpsilon = kitchen.DefaultQuantityEpsilon
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}

	return &Service{
		repo:      repo,
		opts:      opts,
		validator: validation.New(),
		metrics:   metrics,
		tracer:    otel.Tracer("kitchen/feasibility"),
		logger:    logger.Named("kitchen-service"),
	}, nil
}

// CheckFeasibility reports which requirements the pantry covers
func (s *Service) CheckFeasibility(ctx context.Context, query inbound.FeasibilityQuery) (*kitchen.FeasibilityResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "kitchen.CheckFeasibility", trace.WithAttributes(
		attribute.String("recipe.id", query.RecipeID.String()),
		attribute.String("pantry.id", query.PantryID.String()),
		attribute.Float64("scale", scaleOrOne(query.Scale)),
	))
	defer span.End()

	if err := s.ensureExists(ctx, s.repo, query.RecipeID, query.PantryID); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	result, err := s.evaluate(ctx, s.repo, query.RecipeID, query.PantryID, scaleOrOne(query.Scale), kitchen.Context(query.Context))
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	outcome := outcomeOf(result)
	s.metrics.RecordFeasibility(outcome)
	span.SetAttributes(
		attribute.String("feasibility.outcome", outcome),
		attribute.Int("feasibility.missing", len(result.Missing)),
	)
	s.logger.Debug("Feasibility checked",
		zap.String("recipe_id", query.RecipeID.String()),
		zap.String("pantry_id", query.PantryID.String()),
		zap.String("outcome", outcome),
		zap.Int("missing", len(result.Missing)),
		zap.Int("shopping_items", len(result.ShoppingList)),
	)
	return result, nil
}

// ensureExists maps absent recipes and pantries onto lookup errors
func (s *Service) ensureExists(ctx context.Context, reader outbound.KitchenReader, recipeID, pantryID uuid.UUID) error {
	ok, err := reader.RecipeExists(ctx, recipeID)
	if err != nil {
		return storeError("load recipe", err)
	}
	if !ok {
		return errors.NewRecipeNotFoundError(recipeID.String(), kitchen.ErrRecipeNotFound)
	}

	ok, err = reader.PantryExists(ctx, pantryID)
	if err != nil {
		return storeError("load pantry", err)
	}
	if !ok {
		return errors.NewPantryNotFoundError(pantryID.String(), kitchen.ErrPantryNotFound)
	}
	return nil
}

// evaluate loads a snapshot through reader and runs the pure evaluation
func (s *Service) evaluate(ctx context.Context, reader outbound.KitchenReader, recipeID, pantryID uuid.UUID, scale float64, sctx kitchen.Context) (*kitchen.FeasibilityResult, error) {
	reqs, err := reader.ListRequirements(ctx, recipeID)
	if err != nil {
		return nil, storeError("list requirements", err)
	}
	stock, err := reader.ListStock(ctx, pantryID)
	if err != nil {
		return nil, storeError("list stock", err)
	}

	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.IngredientID)
	}
	rules, err := reader.SubstitutionRules(ctx, ids)
	if err != nil {
		return nil, storeError("list substitution rules", err)
	}

	result, err := kitchen.Evaluate(kitchen.Snapshot{
		Requirements: reqs,
		Stock:        stock,
		Rules:        rules,
	}, kitchen.Options{
		Scale:    scale,
		Context:  sctx,
		TieBreak: s.opts.TieBreak,
	})
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}
	return result, nil
}

func outcomeOf(r *kitchen.FeasibilityResult) string {
	switch {
	case r.CanMake:
		return OutcomeCanMake
	case r.CanMakeWithSubstitutes:
		return OutcomeWithSubstitutes
	default:
		return OutcomeMissing
	}
}

func scaleOrOne(scale float64) float64 {
	if scale == 0 {
		return 1
	}
	return scale
}

func storeError(operation string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelledError(operation, err)
	}
	return errors.NewDatabaseError(operation, err)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
