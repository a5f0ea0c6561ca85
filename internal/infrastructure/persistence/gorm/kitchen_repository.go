package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ outbound.KitchenRepository = (*KitchenRepository)(nil)
	_ outbound.UnitOfWork        = (*UnitOfWork)(nil)
)

// kitchenReader runs the shared read queries against a *gorm.DB that is
// either the pool or an open transaction
type kitchenReader struct {
	db *gorm.DB
}

func (r kitchenReader) RecipeExists(ctx context.Context, recipeID uuid.UUID) (bool, error) {
	return exists(r.db.WithContext(ctx), &RecipeModel{}, recipeID)
}

func (r kitchenReader) PantryExists(ctx context.Context, pantryID uuid.UUID) (bool, error) {
	return exists(r.db.WithContext(ctx), &PantryModel{}, pantryID)
}

func (r kitchenReader) ListRequirements(ctx context.Context, recipeID uuid.UUID) ([]kitchen.RecipeRequirement, error) {
	db := r.db.WithContext(ctx)

	var models []RecipeRequirementModel
	if err := db.Where("recipe_id = ?", recipeID).Order("position, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.IngredientID)
	}
	names, err := ingredientNames(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]kitchen.RecipeRequirement, 0, len(models))
	for i := range models {
		out = append(out, ModelToRequirement(&models[i], names[models[i].IngredientID]))
	}
	return out, nil
}

func (r kitchenReader) ListStock(ctx context.Context, pantryID uuid.UUID) ([]kitchen.PantryStock, error) {
	db := r.db.WithContext(ctx)

	var models []PantryStockModel
	if err := db.Where("pantry_id = ?", pantryID).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.IngredientID)
	}
	names, err := ingredientNames(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]kitchen.PantryStock, 0, len(models))
	for i := range models {
		out = append(out, ModelToStock(&models[i], names[models[i].IngredientID]))
	}
	return out, nil
}

func (r kitchenReader) SubstitutionRules(ctx context.Context, originalIDs []uuid.UUID) (map[uuid.UUID][]kitchen.SubstitutionRule, error) {
	out := make(map[uuid.UUID][]kitchen.SubstitutionRule)
	if len(originalIDs) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)

	var models []SubstitutionRuleModel
	if err := db.Where("original_id IN ?", originalIDs).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list substitution rules: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.SubstituteID)
	}
	names, err := ingredientNames(db, ids)
	if err != nil {
		return nil, err
	}

	for i := range models {
		m := &models[i]
		out[m.OriginalID] = append(out[m.OriginalID], ModelToRule(m, names[m.SubstituteID]))
	}
	return out, nil
}

// KitchenRepository implements the kitchen tables using GORM
type KitchenRepository struct {
	kitchenReader
}

// NewKitchenRepository creates a new kitchen repository
func NewKitchenRepository(db *gorm.DB) *KitchenRepository {
	return &KitchenRepository{kitchenReader{db: db}}
}

// Begin opens a database transaction
func (r *KitchenRepository) Begin(ctx context.Context) (outbound.UnitOfWork, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &UnitOfWork{kitchenReader: kitchenReader{db: tx}, tx: tx}, nil
}

// CreatePantry inserts a pantry
func (r *KitchenRepository) CreatePantry(ctx context.Context, p *kitchen.Pantry) error {
	model := &PantryModel{ID: p.ID, Name: p.Name, OwnerID: p.OwnerID, CreatedAt: p.CreatedAt}
	return r.db.WithContext(ctx).Create(model).Error
}

// CreateRecipe inserts a recipe
func (r *KitchenRepository) CreateRecipe(ctx context.Context, rec *kitchen.Recipe) error {
	model := &RecipeModel{ID: rec.ID, Name: rec.Name, OwnerID: rec.OwnerID, CreatedAt: rec.CreatedAt}
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveStock upserts on (pantry, ingredient). A zero quantity removes the row.
func (r *KitchenRepository) SaveStock(ctx context.Context, s *kitchen.PantryStock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &PantryModel{}, s.PantryID)
		if err != nil {
			return err
		}
		if !ok {
			return kitchen.ErrPantryNotFound
		}

		var existing PantryStockModel
		err = tx.Where("pantry_id = ? AND ingredient_id = ?", s.PantryID, s.IngredientID).First(&existing).Error
		switch {
		case err == nil:
			s.ID = existing.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load stock: %w", err)
		}

		if s.NormalizedQuantity == 0 {
			return tx.Delete(&PantryStockModel{}, "id = ?", s.ID).Error
		}
		return tx.Save(StockToModel(s)).Error
	})
}

// SaveRequirement upserts on (recipe, ingredient)
func (r *KitchenRepository) SaveRequirement(ctx context.Context, req *kitchen.RecipeRequirement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &RecipeModel{}, req.RecipeID)
		if err != nil {
			return err
		}
		if !ok {
			return kitchen.ErrRecipeNotFound
		}

		var existing RecipeRequirementModel
		err = tx.Where("recipe_id = ? AND ingredient_id = ?", req.RecipeID, req.IngredientID).First(&existing).Error
		switch {
		case err == nil:
			req.ID = existing.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load requirement: %w", err)
		}
		return tx.Save(RequirementToModel(req)).Error
	})
}

// SaveRule inserts or replaces a substitution rule
func (r *KitchenRepository) SaveRule(ctx context.Context, rule *kitchen.SubstitutionRule) error {
	if rule.Ratio <= 0 {
		return kitchen.ErrInvalidRatio
	}
	return r.db.WithContext(ctx).Save(RuleToModel(rule)).Error
}

// ListCookingEvents returns a pantry's events oldest first
func (r *KitchenRepository) ListCookingEvents(ctx context.Context, pantryID uuid.UUID) ([]kitchen.CookingEvent, error) {
	var models []CookingEventModel
	err := r.db.WithContext(ctx).
		Where("pantry_id = ?", pantryID).
		Order("cooked_at, id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list cooking events: %w", err)
	}

	out := make([]kitchen.CookingEvent, 0, len(models))
	for i := range models {
		out = append(out, ModelToEvent(&models[i]))
	}
	return out, nil
}

// UnitOfWork wraps one database transaction
type UnitOfWork struct {
	kitchenReader
	tx   *gorm.DB
	done bool
}

// LockPantry selects the pantry and all its stock rows FOR UPDATE. SQLite
// drops the locking clause and relies on its database-level write lock.
func (u *UnitOfWork) LockPantry(ctx context.Context, pantryID uuid.UUID) error {
	if u.done {
		return outbound.ErrTxDone
	}
	forUpdate := clause.Locking{Strength: "UPDATE"}

	var pantry PantryModel
	if err := u.tx.WithContext(ctx).Clauses(forUpdate).First(&pantry, "id = ?", pantryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return kitchen.ErrPantryNotFound
		}
		return fmt.Errorf("lock pantry: %w", err)
	}

	var rows []PantryStockModel
	if err := u.tx.WithContext(ctx).Clauses(forUpdate).Where("pantry_id = ?", pantryID).Find(&rows).Error; err != nil {
		return fmt.Errorf("lock stock rows: %w", err)
	}
	return nil
}

// UpdateStock writes the row's new quantities
func (u *UnitOfWork) UpdateStock(ctx context.Context, s *kitchen.PantryStock) error {
	if u.done {
		return outbound.ErrTxDone
	}
	return u.tx.WithContext(ctx).Model(&PantryStockModel{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"display_quantity":    s.DisplayQuantity,
			"normalized_quantity": s.NormalizedQuantity,
			"updated_at":          s.UpdatedAt,
		}).Error
}

// DeleteStock removes an emptied row
func (u *UnitOfWork) DeleteStock(ctx context.Context, stockID uuid.UUID) error {
	if u.done {
		return outbound.ErrTxDone
	}
	return u.tx.WithContext(ctx).Delete(&PantryStockModel{}, "id = ?", stockID).Error
}

// AppendCookingEvent inserts the cook log entry
func (u *UnitOfWork) AppendCookingEvent(ctx context.Context, e *kitchen.CookingEvent) error {
	if u.done {
		return outbound.ErrTxDone
	}
	return u.tx.WithContext(ctx).Create(EventToModel(e)).Error
}

// Commit commits the transaction
func (u *UnitOfWork) Commit() error {
	if u.done {
		return outbound.ErrTxDone
	}
	u.done = true
	return u.tx.Commit().Error
}

// Rollback aborts the transaction
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return outbound.ErrTxDone
	}
	u.done = true
	return u.tx.Rollback().Error
}

func exists(db *gorm.DB, model interface{}, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	return count > 0, nil
}
