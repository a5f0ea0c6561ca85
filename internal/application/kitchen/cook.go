package kitchen

import (
	"context"
	stderrors "errors"
	"math"

	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/domain/units"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Cook outcomes reported to metrics
const (
	CookSuccess                 = "success"
	CookInsufficientIngredients = "insufficient_ingredients"
	CookInsufficientStock       = "insufficient_stock"
	CookCancelled               = "cancelled"
	CookFailed                  = "failed"
)

// CookRecipe deducts a recipe from a pantry in one unit of work. Either
// every deduction and the cooking event are committed or nothing is.
func (s *Service) CookRecipe(ctx context.Context, cmd inbound.CookRecipeCommand) (res *inbound.CookResult, err error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	scale := scaleOrOne(cmd.Scale)

	ctx, span := s.tracer.Start(ctx, "kitchen.CookRecipe", trace.WithAttributes(
		attribute.String("recipe.id", cmd.RecipeID.String()),
		attribute.String("pantry.id", cmd.PantryID.String()),
		attribute.Float64("scale", scale),
		attribute.Int("substitutes", len(cmd.ChosenSubstitutes)),
	))
	defer span.End()

	defer func() {
		outcome := cookOutcome(err)
		s.metrics.RecordCook(outcome)
		span.SetAttributes(attribute.String("cook.outcome", outcome))
		if err != nil {
			recordSpanError(span, err)
			s.logger.Warn("Cook aborted",
				zap.String("recipe_id", cmd.RecipeID.String()),
				zap.String("pantry_id", cmd.PantryID.String()),
				zap.String("outcome", outcome),
				zap.Error(err),
			)
		}
	}()

	uow, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, storeError("begin cook", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := uow.Rollback(); rbErr != nil && !stderrors.Is(rbErr, outbound.ErrTxDone) {
			s.logger.Error("Rollback failed", zap.Error(rbErr))
		}
	}()

	if err := uow.LockPantry(ctx, cmd.PantryID); err != nil {
		if stderrors.Is(err, kitchen.ErrPantryNotFound) {
			return nil, errors.NewPantryNotFoundError(cmd.PantryID.String(), err)
		}
		return nil, storeError("lock pantry", err)
	}
	if err := s.ensureExists(ctx, uow, cmd.RecipeID, cmd.PantryID); err != nil {
		return nil, err
	}

	result, err := s.evaluate(ctx, uow, cmd.RecipeID, cmd.PantryID, scale, kitchen.Context(cmd.Context))
	if err != nil {
		return nil, err
	}
	if !result.Cookable() {
		missing := make([]string, 0, len(result.ShoppingList))
		for _, item := range result.ShoppingList {
			missing = append(missing, item.IngredientName)
		}
		return nil, errors.NewInsufficientIngredientsError(missing, kitchen.ErrInsufficientIngredients)
	}

	plan, err := kitchen.PlanDeductions(result, cmd.ChosenSubstitutes)
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	stock, err := uow.ListStock(ctx, cmd.PantryID)
	if err != nil {
		return nil, storeError("list stock", err)
	}
	rows := make(map[uuid.UUID]*kitchen.PantryStock, len(stock))
	for i := range stock {
		rows[stock[i].IngredientID] = &stock[i]
	}

	deducted := make([]kitchen.Deduction, 0, len(plan))
	for _, p := range plan {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelledError("cook recipe", err)
		}
		d, ok, err := s.apply(ctx, uow, rows, p)
		if err != nil {
			return nil, err
		}
		if ok {
			deducted = append(deducted, d)
		}
	}

	event := kitchen.NewCookingEvent(cmd.RecipeID, cmd.PantryID, scale, cmd.Notes)
	if err := uow.AppendCookingEvent(ctx, event); err != nil {
		return nil, storeError("record cooking event", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("cook recipe", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, storeError("commit cook", err)
	}
	committed = true

	s.metrics.RecordDeductions(len(deducted))
	s.logger.Info("Recipe cooked",
		zap.String("recipe_id", cmd.RecipeID.String()),
		zap.String("pantry_id", cmd.PantryID.String()),
		zap.String("cooking_event_id", event.ID.String()),
		zap.Float64("scale", scale),
		zap.Int("deductions", len(deducted)),
	)

	return &inbound.CookResult{
		Success:        true,
		Deducted:       deducted,
		CookingEventID: event.ID,
	}, nil
}

// apply performs one planned deduction against the locked rows. It reports
// false when nothing was deducted.
func (s *Service) apply(ctx context.Context, uow outbound.UnitOfWork, rows map[uuid.UUID]*kitchen.PantryStock, p kitchen.PlannedDeduction) (kitchen.Deduction, bool, error) {
	eps := s.opts.QuantityEpsilon

	row, ok := rows[p.TargetID]
	if !ok {
		if p.ClampToStock || p.Amount <= eps {
			return kitchen.Deduction{}, false, nil
		}
		return kitchen.Deduction{}, false, errors.NewInsufficientStockError(p.TargetName, p.Amount, 0, kitchen.ErrInsufficientStock)
	}

	// express the amount in the row's unit; incompatible classes compare raw
	amount, _ := units.ConvertNormalized(p.Amount, p.Unit, row.NormalizedUnit)
	if p.ClampToStock {
		amount = math.Min(amount, row.NormalizedQuantity)
	}
	if amount <= 0 {
		return kitchen.Deduction{}, false, nil
	}

	available := row.NormalizedQuantity
	empty, err := row.Deduct(amount, eps)
	if err != nil {
		return kitchen.Deduction{}, false, errors.NewInsufficientStockError(p.TargetName, amount, available, err)
	}

	if empty {
		if err := uow.DeleteStock(ctx, row.ID); err != nil {
			return kitchen.Deduction{}, false, storeError("delete stock", err)
		}
		delete(rows, p.TargetID)
	} else if err := uow.UpdateStock(ctx, row); err != nil {
		return kitchen.Deduction{}, false, storeError("update stock", err)
	}

	name := p.TargetName
	if name == "" {
		name = row.IngredientName
	}
	d := kitchen.Deduction{
		IngredientID:   p.TargetID,
		IngredientName: name,
		Amount:         amount,
		Unit:           row.NormalizedUnit,
		Remaining:      row.NormalizedQuantity,
		Removed:        empty,
	}
	if p.Substituted {
		original := p.OriginalID
		d.ReplacedID = &original
	}
	return d, true, nil
}

func cookOutcome(err error) string {
	switch {
	case err == nil:
		return CookSuccess
	case errors.Is(err, errors.CodeInsufficientIngredients):
		return CookInsufficientIngredients
	case errors.Is(err, errors.CodeInsufficientStock):
		return CookInsufficientStock
	case errors.Is(err, errors.CodeCancelled):
		return CookCancelled
	default:
		return CookFailed
	}
}
