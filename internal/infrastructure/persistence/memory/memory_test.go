package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonical(name string, aliases ...string) *ingredient.Ingredient {
	return &ingredient.Ingredient{
		ID:            uuid.New(),
		CanonicalName: name,
		Aliases:       ingredient.NewAliases(aliases...),
		IsCanonical:   true,
	}
}

func TestIngredientStore(t *testing.T) {
	ctx := context.Background()

	t.Run("FindExact_ShouldMatchAliasesAndSkipPending", func(t *testing.T) {
		store := NewIngredientStore()
		onion := canonical("green onion", "scallion")
		pending := canonical("yuzu")
		pending.IsCanonical, pending.PendingReview = false, true
		require.NoError(t, store.Create(ctx, onion))
		require.NoError(t, store.Create(ctx, pending))

		found, err := store.FindExact(ctx, "scallion")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, onion.ID, found.ID)

		found, err = store.FindExact(ctx, "yuzu")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("FuzzySearch_ShouldUseBestOfNameAndAliases", func(t *testing.T) {
		store := NewIngredientStore()
		onion := canonical("green onion", "scallion")
		require.NoError(t, store.Create(ctx, onion))
		require.NoError(t, store.Create(ctx, canonical("tomato")))

		rows, err := store.FuzzySearch(ctx, "scallions", 0.3, 5)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, onion.ID, rows[0].ID)
		assert.Equal(t, ingredient.SourceFuzzy, rows[0].Source)
		assert.Greater(t, rows[0].Similarity, 0.5)
	})

	t.Run("SemanticSearch_ShouldSkipMissingEmbeddings", func(t *testing.T) {
		store := NewIngredientStore()
		a := canonical("butter")
		a.Embedding = []float32{1, 0}
		b := canonical("margarine")
		b.Embedding = []float32{0.8, 0.6}
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.Create(ctx, b))
		require.NoError(t, store.Create(ctx, canonical("lard")))

		rows, err := store.SemanticSearch(ctx, []float32{1, 0}, 0.5, 5)

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, a.ID, rows[0].ID)
		assert.InDelta(t, 0.8, rows[1].Similarity, 1e-6)
	})

	t.Run("Create_ShouldRejectDuplicateNames", func(t *testing.T) {
		store := NewIngredientStore()
		require.NoError(t, store.Create(ctx, canonical("salt")))

		err := store.Create(ctx, canonical("salt"))

		assert.ErrorIs(t, err, ingredient.ErrDuplicateIngredient)
	})

	t.Run("Promote_ShouldMakeEntrySearchable", func(t *testing.T) {
		store := NewIngredientStore()
		pending := canonical("yuzu")
		pending.IsCanonical, pending.PendingReview = false, true
		require.NoError(t, store.Create(ctx, pending))

		require.NoError(t, store.Promote(ctx, pending.ID))
		found, err := store.FindExact(ctx, "yuzu")

		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.IsCanonical)
		assert.ErrorIs(t, store.Promote(ctx, uuid.New()), ingredient.ErrIngredientNotFound)
	})
}

func TestKitchenRepositoryUnitOfWork(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*KitchenRepository, uuid.UUID, *kitchen.PantryStock) {
		repo := NewKitchenRepository()
		pantry := &kitchen.Pantry{ID: uuid.New(), Name: "home"}
		require.NoError(t, repo.CreatePantry(ctx, pantry))
		stock, err := kitchen.NewPantryStock(pantry.ID, uuid.New(), 500, "g")
		require.NoError(t, err)
		require.NoError(t, repo.SaveStock(ctx, stock))
		return repo, pantry.ID, stock
	}

	t.Run("Commit_ShouldApplyStagedWrites", func(t *testing.T) {
		repo, pantryID, stock := setup(t)
		uow, err := repo.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.LockPantry(ctx, pantryID))

		_, err = stock.Deduct(200, kitchen.DefaultQuantityEpsilon)
		require.NoError(t, err)
		require.NoError(t, uow.UpdateStock(ctx, stock))

		committed, _ := repo.ListStock(ctx, pantryID)
		assert.InDelta(t, 500, committed[0].NormalizedQuantity, 1e-9)
		staged, _ := uow.ListStock(ctx, pantryID)
		assert.InDelta(t, 300, staged[0].NormalizedQuantity, 1e-9)

		require.NoError(t, uow.Commit())
		committed, _ = repo.ListStock(ctx, pantryID)
		assert.InDelta(t, 300, committed[0].NormalizedQuantity, 1e-9)
		assert.ErrorIs(t, uow.Rollback(), outbound.ErrTxDone)
	})

	t.Run("Rollback_ShouldDiscardDeletesAndEvents", func(t *testing.T) {
		repo, pantryID, stock := setup(t)
		uow, err := repo.Begin(ctx)
		require.NoError(t, err)

		require.NoError(t, uow.DeleteStock(ctx, stock.ID))
		require.NoError(t, uow.AppendCookingEvent(ctx, kitchen.NewCookingEvent(uuid.New(), pantryID, 1, "")))
		require.NoError(t, uow.Rollback())

		rows, _ := repo.ListStock(ctx, pantryID)
		assert.Len(t, rows, 1)
		events, _ := repo.ListCookingEvents(ctx, pantryID)
		assert.Empty(t, events)
		assert.ErrorIs(t, uow.Commit(), outbound.ErrTxDone)
		assert.ErrorIs(t, uow.UpdateStock(ctx, stock), outbound.ErrTxDone)
	})

	t.Run("Begin_ShouldWaitForTheActiveUnit", func(t *testing.T) {
		repo, _, _ := setup(t)
		first, err := repo.Begin(ctx)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = repo.Begin(waitCtx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		require.NoError(t, first.Rollback())
		second, err := repo.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, second.Rollback())
	})

	t.Run("LockPantry_ShouldRejectUnknownPantry", func(t *testing.T) {
		repo, _, _ := setup(t)
		uow, err := repo.Begin(ctx)
		require.NoError(t, err)
		defer uow.Rollback()

		assert.ErrorIs(t, uow.LockPantry(ctx, uuid.New()), kitchen.ErrPantryNotFound)
	})
}

func TestCacheRepository(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheRepository(time.Minute, time.Minute)

	_, err := cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), 0))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Set(ctx, "short", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	ok, _ = cache.Exists(ctx, "short")
	assert.False(t, ok)

	require.NoError(t, cache.Delete(ctx, "k"))
	ok, _ = cache.Exists(ctx, "k")
	assert.False(t, ok)
}
