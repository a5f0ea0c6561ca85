package kitchen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPantryStockDeduct(t *testing.T) {
	t.Run("Partial_ShouldRecomputeDisplayQuantity", func(t *testing.T) {
		s, err := NewPantryStock(uuid.New(), uuid.New(), 2, "cup")
		require.NoError(t, err)

		empty, err := s.Deduct(236.588, DefaultQuantityEpsilon)

		require.NoError(t, err)
		assert.False(t, empty)
		assert.InDelta(t, 236.588, s.NormalizedQuantity, 1e-9)
		assert.InDelta(t, 1.0, s.DisplayQuantity, 1e-9)
		assert.Equal(t, "cup", s.DisplayUnit)
	})

	t.Run("FloatDrift_ShouldCountAsEmpty", func(t *testing.T) {
		s, err := NewPantryStock(uuid.New(), uuid.New(), 0.3, "g")
		require.NoError(t, err)

		empty, err := s.Deduct(0.1+0.2, DefaultQuantityEpsilon)

		require.NoError(t, err)
		assert.True(t, empty)
		assert.Zero(t, s.NormalizedQuantity)
	})

	t.Run("Overdraw_ShouldFail", func(t *testing.T) {
		s, err := NewPantryStock(uuid.New(), uuid.New(), 10, "g")
		require.NoError(t, err)

		_, err = s.Deduct(10.5, DefaultQuantityEpsilon)

		assert.Equal(t, ErrInsufficientStock, err)
		assert.Equal(t, 10.0, s.NormalizedQuantity)
	})

	t.Run("NegativeQuantity_ShouldBeRejected", func(t *testing.T) {
		_, err := NewPantryStock(uuid.New(), uuid.New(), -1, "g")

		assert.Equal(t, ErrNegativeQuantity, err)
	})
}

func TestNewSubstitutionRule(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	rule, err := NewSubstitutionRule(a, b, "", QualityGood, 1.5)
	require.NoError(t, err)
	assert.Equal(t, ContextAny, rule.Context)

	_, err = NewSubstitutionRule(a, b, ContextRaw, QualityGood, 0)
	assert.Equal(t, ErrInvalidRatio, err)

	_, err = NewSubstitutionRule(a, a, ContextRaw, QualityGood, 1)
	assert.Equal(t, ErrSelfSubstitution, err)

	_, err = NewSubstitutionRule(a, b, "frying", QualityGood, 1)
	assert.Equal(t, ErrInvalidContext, err)

	_, err = NewSubstitutionRule(a, b, ContextRaw, Quality(9), 1)
	assert.Equal(t, ErrInvalidQuality, err)

	q, err := ParseQuality("workable")
	require.NoError(t, err)
	assert.Equal(t, "workable", q.String())
}

func TestPlanDeductions(t *testing.T) {
	eggs, milk, salt, herbs, flax := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	result := &FeasibilityResult{
		Scale: 2,
		Items: []ItemStatus{
			{IngredientID: eggs, IngredientName: "eggs", Needed: 4, Have: 1, Shortfall: 3, Unit: "piece", Status: StatusPartial,
				Substitutes: []SubstituteOption{{SubstituteID: flax, SubstituteName: "flax", RequiredAmount: 30, Unit: "piece", CanFullySubstitute: true}}},
			{IngredientID: milk, IngredientName: "milk", Needed: 500, Have: 1000, Unit: "ml", Status: StatusHave},
			{IngredientID: salt, IngredientName: "salt", Needed: 2, Unit: "pinch", Status: StatusMissing, Optional: true},
			{IngredientID: herbs, IngredientName: "herbs", Needed: 10, Have: 4, Shortfall: 6, Unit: "g", Status: StatusPartial, Optional: true},
		},
	}

	t.Run("Defaults_ShouldFollowFeasibility", func(t *testing.T) {
		plan, err := PlanDeductions(result, []ChosenSubstitute{{OriginalID: eggs, SubstituteID: flax}})

		require.NoError(t, err)
		require.Len(t, plan, 3)

		assert.Equal(t, flax, plan[0].TargetID)
		assert.Equal(t, eggs, plan[0].OriginalID)
		assert.True(t, plan[0].Substituted)
		assert.Equal(t, 30.0, plan[0].Amount)

		assert.Equal(t, milk, plan[1].TargetID)
		assert.Equal(t, 500.0, plan[1].Amount)
		assert.False(t, plan[1].ClampToStock)

		assert.Equal(t, herbs, plan[2].TargetID)
		assert.True(t, plan[2].ClampToStock)
	})

	t.Run("ExplicitQuantity_ShouldOverrideComputedAmount", func(t *testing.T) {
		qty := 12.0

		plan, err := PlanDeductions(result, []ChosenSubstitute{{OriginalID: eggs, SubstituteID: flax, Quantity: &qty}})

		require.NoError(t, err)
		assert.Equal(t, 12.0, plan[0].Amount)
	})

	t.Run("UnknownSubstitute_ShouldFail", func(t *testing.T) {
		_, err := PlanDeductions(result, []ChosenSubstitute{{OriginalID: milk, SubstituteID: flax}})

		assert.Equal(t, ErrSubstituteNotAllowed, err)
	})

	t.Run("ChoiceForOptionalItem_ShouldFail", func(t *testing.T) {
		for _, original := range []uuid.UUID{salt, herbs} {
			_, err := PlanDeductions(result, []ChosenSubstitute{{OriginalID: original, SubstituteID: flax}})

			assert.Equal(t, ErrSubstituteNotAllowed, err)
		}
	})

	t.Run("ChoiceOutsideRecipe_ShouldFail", func(t *testing.T) {
		_, err := PlanDeductions(result, []ChosenSubstitute{
			{OriginalID: eggs, SubstituteID: flax},
			{OriginalID: uuid.New(), SubstituteID: flax},
		})

		assert.Equal(t, ErrSubstituteNotAllowed, err)
	})

	t.Run("DuplicateChoice_ShouldFail", func(t *testing.T) {
		_, err := PlanDeductions(result, []ChosenSubstitute{
			{OriginalID: eggs, SubstituteID: flax},
			{OriginalID: eggs, SubstituteID: flax},
		})

		assert.Equal(t, ErrDuplicateSubstitute, err)
	})
}
