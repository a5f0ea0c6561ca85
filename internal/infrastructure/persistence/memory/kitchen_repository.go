package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
)

var _ outbound.KitchenRepository = (*KitchenRepository)(nil)

// KitchenRepository keeps pantries, recipes and their rows in maps. Units
// of work are serialized by a single writer token and stage their writes
// until Commit.
type KitchenRepository struct {
	mu           sync.RWMutex
	writer       chan struct{}
	pantries     map[uuid.UUID]kitchen.Pantry
	recipes      map[uuid.UUID]kitchen.Recipe
	stock        map[uuid.UUID]kitchen.PantryStock
	requirements map[uuid.UUID]kitchen.RecipeRequirement
	rules        map[uuid.UUID]kitchen.SubstitutionRule
	events       []kitchen.CookingEvent
}

// NewKitchenRepository creates an empty repository
func NewKitchenRepository() *KitchenRepository {
	return &KitchenRepository{
		writer:       make(chan struct{}, 1),
		pantries:     make(map[uuid.UUID]kitchen.Pantry),
		recipes:      make(map[uuid.UUID]kitchen.Recipe),
		stock:        make(map[uuid.UUID]kitchen.PantryStock),
		requirements: make(map[uuid.UUID]kitchen.RecipeRequirement),
		rules:        make(map[uuid.UUID]kitchen.SubstitutionRule),
	}
}

// RecipeExists reports whether the recipe is known
func (r *KitchenRepository) RecipeExists(ctx context.Context, recipeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.recipes[recipeID]
	return ok, ctx.Err()
}

// PantryExists reports whether the pantry is known
func (r *KitchenRepository) PantryExists(ctx context.Context, pantryID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pantries[pantryID]
	return ok, ctx.Err()
}

// ListRequirements returns a recipe's rows ordered by position
func (r *KitchenRepository) ListRequirements(ctx context.Context, recipeID uuid.UUID) ([]kitchen.RecipeRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []kitchen.RecipeRequirement
	for _, req := range r.requirements {
		if req.RecipeID == recipeID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, ctx.Err()
}

// ListStock returns a pantry's committed rows
func (r *KitchenRepository) ListStock(ctx context.Context, pantryID uuid.UUID) ([]kitchen.PantryStock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listStockLocked(pantryID, nil, nil), ctx.Err()
}

func (r *KitchenRepository) listStockLocked(pantryID uuid.UUID, updated map[uuid.UUID]kitchen.PantryStock, deleted map[uuid.UUID]bool) []kitchen.PantryStock {
	var out []kitchen.PantryStock
	for id, s := range r.stock {
		if s.PantryID != pantryID || deleted[id] {
			continue
		}
		if u, ok := updated[id]; ok {
			s = u
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// SubstitutionRules returns rules for the given originals
func (r *KitchenRepository) SubstitutionRules(ctx context.Context, originalIDs []uuid.UUID) (map[uuid.UUID][]kitchen.SubstitutionRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(originalIDs))
	for _, id := range originalIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID][]kitchen.SubstitutionRule)
	for _, rule := range r.rules {
		if wanted[rule.OriginalID] {
			out[rule.OriginalID] = append(out[rule.OriginalID], rule)
		}
	}
	for id := range out {
		rs := out[id]
		sort.Slice(rs, func(i, j int) bool { return rs[i].ID.String() < rs[j].ID.String() })
	}
	return out, ctx.Err()
}

// CreatePantry stores a pantry
func (r *KitchenRepository) CreatePantry(ctx context.Context, pantry *kitchen.Pantry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pantries[pantry.ID] = *pantry
	return ctx.Err()
}

// CreateRecipe stores a recipe
func (r *KitchenRepository) CreateRecipe(ctx context.Context, recipe *kitchen.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipes[recipe.ID] = *recipe
	return ctx.Err()
}

// SaveStock upserts on (pantry, ingredient)
func (r *KitchenRepository) SaveStock(ctx context.Context, stock *kitchen.PantryStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pantries[stock.PantryID]; !ok {
		return kitchen.ErrPantryNotFound
	}
	for id, existing := range r.stock {
		if existing.PantryID == stock.PantryID && existing.IngredientID == stock.IngredientID {
			stock.ID = id
		}
	}
	if stock.NormalizedQuantity == 0 {
		delete(r.stock, stock.ID)
		return ctx.Err()
	}
	r.stock[stock.ID] = *stock
	return ctx.Err()
}

// SaveRequirement upserts on (recipe, ingredient)
func (r *KitchenRepository) SaveRequirement(ctx context.Context, req *kitchen.RecipeRequirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipes[req.RecipeID]; !ok {
		return kitchen.ErrRecipeNotFound
	}
	for id, existing := range r.requirements {
		if existing.RecipeID == req.RecipeID && existing.IngredientID == req.IngredientID {
			req.ID = id
		}
	}
	r.requirements[req.ID] = *req
	return ctx.Err()
}

// SaveRule stores a substitution rule
func (r *KitchenRepository) SaveRule(ctx context.Context, rule *kitchen.SubstitutionRule) error {
	if rule.Ratio <= 0 {
		return kitchen.ErrInvalidRatio
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.ID] = *rule
	return ctx.Err()
}

// ListCookingEvents returns a pantry's events oldest first
func (r *KitchenRepository) ListCookingEvents(ctx context.Context, pantryID uuid.UUID) ([]kitchen.CookingEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []kitchen.CookingEvent
	for _, e := range r.events {
		if e.PantryID == pantryID {
			out = append(out, e)
		}
	}
	return out, ctx.Err()
}

// Begin waits for the writer token and opens a unit of work
func (r *KitchenRepository) Begin(ctx context.Context) (outbound.UnitOfWork, error) {
	select {
	case r.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &unitOfWork{
		repo:    r,
		updated: make(map[uuid.UUID]kitchen.PantryStock),
		deleted: make(map[uuid.UUID]bool),
	}, nil
}

// unitOfWork stages writes over the committed maps
type unitOfWork struct {
	repo    *KitchenRepository
	updated map[uuid.UUID]kitchen.PantryStock
	deleted map[uuid.UUID]bool
	events  []kitchen.CookingEvent
	done    bool
}

func (u *unitOfWork) RecipeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if u.done {
		return false, outbound.ErrTxDone
	}
	return u.repo.RecipeExists(ctx, id)
}

func (u *unitOfWork) PantryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if u.done {
		return false, outbound.ErrTxDone
	}
	return u.repo.PantryExists(ctx, id)
}

func (u *unitOfWork) ListRequirements(ctx context.Context, id uuid.UUID) ([]kitchen.RecipeRequirement, error) {
	if u.done {
		return nil, outbound.ErrTxDone
	}
	return u.repo.ListRequirements(ctx, id)
}

func (u *unitOfWork) ListStock(ctx context.Context, pantryID uuid.UUID) ([]kitchen.PantryStock, error) {
	if u.done {
		return nil, outbound.ErrTxDone
	}
	u.repo.mu.RLock()
	defer u.repo.mu.RUnlock()
	return u.repo.listStockLocked(pantryID, u.updated, u.deleted), ctx.Err()
}

func (u *unitOfWork) SubstitutionRules(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]kitchen.SubstitutionRule, error) {
	if u.done {
		return nil, outbound.ErrTxDone
	}
	return u.repo.SubstitutionRules(ctx, ids)
}

// LockPantry is satisfied by the writer token held since Begin
func (u *unitOfWork) LockPantry(ctx context.Context, pantryID uuid.UUID) error {
	if u.done {
		return outbound.ErrTxDone
	}
	ok, err := u.repo.PantryExists(ctx, pantryID)
	if err != nil {
		return err
	}
	if !ok {
		return kitchen.ErrPantryNotFound
	}
	return nil
}

func (u *unitOfWork) UpdateStock(ctx context.Context, stock *kitchen.PantryStock) error {
	if u.done {
		return outbound.ErrTxDone
	}
	u.updated[stock.ID] = *stock
	return ctx.Err()
}

func (u *unitOfWork) DeleteStock(ctx context.Context, stockID uuid.UUID) error {
	if u.done {
		return outbound.ErrTxDone
	}
	delete(u.updated, stockID)
	u.deleted[stockID] = true
	return ctx.Err()
}

func (u *unitOfWork) AppendCookingEvent(ctx context.Context, event *kitchen.CookingEvent) error {
	if u.done {
		return outbound.ErrTxDone
	}
	u.events = append(u.events, *event)
	return ctx.Err()
}

func (u *unitOfWork) Commit() error {
	if u.done {
		return outbound.ErrTxDone
	}
	u.done = true
	defer u.release()

	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()
	for id := range u.deleted {
		delete(u.repo.stock, id)
	}
	for id, s := range u.updated {
		u.repo.stock[id] = s
	}
	u.repo.events = append(u.repo.events, u.events...)
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return outbound.ErrTxDone
	}
	u.done = true
	u.release()
	return nil
}

func (u *unitOfWork) release() {
	<-u.repo.writer
}
