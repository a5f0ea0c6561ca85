package kitchen

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// FeasibilityTestSuite exercises the pure evaluation over hand-built snapshots
type FeasibilityTestSuite struct {
	suite.Suite
	recipeID uuid.UUID
	pantryID uuid.UUID
}

func (suite *FeasibilityTestSuite) SetupTest() {
	suite.recipeID = uuid.New()
	suite.pantryID = uuid.New()
}

func (suite *FeasibilityTestSuite) requirement(name string, qty float64, unit string, position int) RecipeRequirement {
	req, err := NewRecipeRequirement(suite.recipeID, uuid.New(), qty, unit, position)
	require.NoError(suite.T(), err)
	req.IngredientName = name
	return *req
}

func (suite *FeasibilityTestSuite) stock(ingredientID uuid.UUID, name string, qty float64, unit string) PantryStock {
	s, err := NewPantryStock(suite.pantryID, ingredientID, qty, unit)
	require.NoError(suite.T(), err)
	s.IngredientName = name
	return *s
}

func (suite *FeasibilityTestSuite) TestStatusAndShortfall() {
	suite.Run("PartialChicken_ShouldReportShortfall", func() {
		// Arrange
		chicken := suite.requirement("chicken", 907.18, "g", 0)
		snap := Snapshot{
			Requirements: []RecipeRequirement{chicken},
			Stock:        []PantryStock{suite.stock(chicken.IngredientID, "chicken", 800, "g")},
		}

		// Act
		result, err := Evaluate(snap, Options{Scale: 1})

		// Assert
		require.NoError(suite.T(), err)
		require.Len(suite.T(), result.Items, 1)
		item := result.Items[0]
		assert.Equal(suite.T(), StatusPartial, item.Status)
		assert.InDelta(suite.T(), 107.18, item.Shortfall, 1e-9)
		assert.False(suite.T(), result.CanMake)
		assert.False(suite.T(), result.CanMakeWithSubstitutes)
		require.Len(suite.T(), result.ShoppingList, 1)
		assert.Equal(suite.T(), "chicken", result.ShoppingList[0].IngredientName)
		assert.Equal(suite.T(), "g", result.ShoppingList[0].Unit)
		assert.Equal(suite.T(), "107.18 g", result.ShoppingList[0].Display)
	})

	suite.Run("CrossUnitStock_ShouldBeReconciled", func() {
		flour := suite.requirement("flour", 500, "g", 0)
		snap := Snapshot{
			Requirements: []RecipeRequirement{flour},
			Stock:        []PantryStock{suite.stock(flour.IngredientID, "flour", 1, "kg")},
		}

		result, err := Evaluate(snap, Options{Scale: 1})

		require.NoError(suite.T(), err)
		assert.True(suite.T(), result.CanMake)
		assert.Equal(suite.T(), StatusHave, result.Items[0].Status)
		assert.False(suite.T(), result.Items[0].UnitMismatch)
	})

	suite.Run("IncompatibleUnits_ShouldFlagMismatch", func() {
		garlic := suite.requirement("garlic", 2, "clove", 0)
		snap := Snapshot{
			Requirements: []RecipeRequirement{garlic},
			Stock:        []PantryStock{suite.stock(garlic.IngredientID, "garlic", 50, "g")},
		}

		result, err := Evaluate(snap, Options{Scale: 1})

		require.NoError(suite.T(), err)
		assert.True(suite.T(), result.Items[0].UnitMismatch)
		assert.Equal(suite.T(), StatusHave, result.Items[0].Status)
	})

	suite.Run("ShortfallIdentity_ShouldHoldForEveryItem", func() {
		reqs := []RecipeRequirement{
			suite.requirement("a", 100, "g", 0),
			suite.requirement("b", 2, "cup", 1),
			suite.requirement("c", 3, "piece", 2),
		}
		stock := []PantryStock{
			suite.stock(reqs[0].IngredientID, "a", 40, "g"),
			suite.stock(reqs[1].IngredientID, "b", 1, "l"),
		}

		for _, scale := range []float64{0.5, 1, 2.5} {
			result, err := Evaluate(Snapshot{Requirements: reqs, Stock: stock}, Options{Scale: scale})
			require.NoError(suite.T(), err)

			for _, it := range result.Items {
				assert.InDelta(suite.T(), math.Max(0, it.Needed-it.Have), it.Shortfall, 1e-12)
			}
		}
	})
}

func (suite *FeasibilityTestSuite) TestOptionalRequirements() {
	salt := suite.requirement("salt", 1, "pinch", 0)
	salt.Optional = true
	parsley := suite.requirement("parsley", 10, "g", 1)
	parsley.Optional = true
	snap := Snapshot{
		Requirements: []RecipeRequirement{salt, parsley},
		Stock:        []PantryStock{suite.stock(parsley.IngredientID, "parsley", 4, "g")},
	}

	result, err := Evaluate(snap, Options{Scale: 1})

	require.NoError(suite.T(), err)
	assert.True(suite.T(), result.CanMake)
	assert.Empty(suite.T(), result.Missing)
	assert.Empty(suite.T(), result.ShoppingList)
	assert.Equal(suite.T(), StatusMissing, result.Items[0].Status)
	assert.Equal(suite.T(), StatusPartial, result.Items[1].Status)
}

func (suite *FeasibilityTestSuite) TestSubstitutes() {
	butter := suite.requirement("butter", 100, "g", 0)
	oilID, margarineID, lardID, ghee := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	rules := map[uuid.UUID][]SubstitutionRule{
		butter.IngredientID: {
			{ID: uuid.New(), OriginalID: butter.IngredientID, SubstituteID: oilID, SubstituteName: "oil", Context: ContextCooking, Quality: QualityGood, Ratio: 0.8},
			{ID: uuid.New(), OriginalID: butter.IngredientID, SubstituteID: margarineID, SubstituteName: "margarine", Context: ContextAny, Quality: QualityPerfect, Ratio: 1},
			{ID: uuid.New(), OriginalID: butter.IngredientID, SubstituteID: lardID, SubstituteName: "lard", Context: ContextBaking, Quality: QualityGood, Ratio: 1},
			{ID: uuid.New(), OriginalID: butter.IngredientID, SubstituteID: ghee, SubstituteName: "ghee", Context: ContextAny, Quality: QualityPerfect, Ratio: 1},
		},
	}
	stock := []PantryStock{
		suite.stock(butter.IngredientID, "butter", 20, "g"),
		suite.stock(oilID, "oil", 500, "g"),
		suite.stock(margarineID, "margarine", 50, "g"),
		suite.stock(lardID, "lard", 300, "g"),
	}
	snap := Snapshot{Requirements: []RecipeRequirement{butter}, Stock: stock, Rules: rules}

	suite.Run("ZeroStockSubstitute_ShouldBeOmitted", func() {
		result, err := Evaluate(snap, Options{Scale: 1})
		require.NoError(suite.T(), err)

		require.Len(suite.T(), result.Missing, 1)
		for _, opt := range result.Missing[0].Substitutes {
			assert.NotEqual(suite.T(), ghee, opt.SubstituteID)
		}
	})

	suite.Run("Ranking_ShouldPutBestQualityFirst", func() {
		result, err := Evaluate(snap, Options{Scale: 1})
		require.NoError(suite.T(), err)

		subs := result.Missing[0].Substitutes
		require.Len(suite.T(), subs, 3)
		assert.Equal(suite.T(), margarineID, subs[0].SubstituteID)
		assert.InDelta(suite.T(), 80, subs[0].RequiredAmount, 1e-9)
		assert.False(suite.T(), subs[0].CanFullySubstitute)

		oil := subs[1]
		if oil.SubstituteID != oilID {
			oil = subs[2]
		}
		assert.InDelta(suite.T(), 64, oil.RequiredAmount, 1e-9)
		assert.True(suite.T(), oil.CanFullySubstitute)
		assert.True(suite.T(), result.CanMakeWithSubstitutes)
		assert.False(suite.T(), result.CanMake)
		assert.Empty(suite.T(), result.ShoppingList)
	})

	suite.Run("EqualQuality_ShouldTieBreakById", func() {
		result, err := Evaluate(snap, Options{Scale: 1})
		require.NoError(suite.T(), err)

		subs := result.Missing[0].Substitutes
		assert.Less(suite.T(), subs[1].SubstituteID.String(), subs[2].SubstituteID.String())
	})

	suite.Run("AvailabilityTieBreak_ShouldPreferMoreStock", func() {
		result, err := Evaluate(snap, Options{Scale: 1, TieBreak: TieBreakAvailability})
		require.NoError(suite.T(), err)

		subs := result.Missing[0].Substitutes
		assert.Equal(suite.T(), oilID, subs[1].SubstituteID)
		assert.Equal(suite.T(), lardID, subs[2].SubstituteID)
	})

	suite.Run("ContextFilter_ShouldKeepAnyAndMatching", func() {
		result, err := Evaluate(snap, Options{Scale: 1, Context: ContextBaking})
		require.NoError(suite.T(), err)

		var ids []uuid.UUID
		for _, opt := range result.Missing[0].Substitutes {
			ids = append(ids, opt.SubstituteID)
		}
		assert.ElementsMatch(suite.T(), []uuid.UUID{margarineID, lardID}, ids)
	})

	suite.Run("SameInputs_ShouldBeDeterministic", func() {
		first, err := Evaluate(snap, Options{Scale: 1.5})
		require.NoError(suite.T(), err)
		second, err := Evaluate(snap, Options{Scale: 1.5})
		require.NoError(suite.T(), err)

		assert.Equal(suite.T(), first, second)
	})
}

func (suite *FeasibilityTestSuite) TestInvalidOptions() {
	_, err := Evaluate(Snapshot{}, Options{Scale: 0})
	assert.Equal(suite.T(), ErrInvalidScale, err)

	_, err = Evaluate(Snapshot{}, Options{Scale: -1})
	assert.Equal(suite.T(), ErrInvalidScale, err)

	_, err = Evaluate(Snapshot{}, Options{Scale: 1, TieBreak: "random"})
	assert.Equal(suite.T(), ErrInvalidTieBreak, err)
}

func TestFeasibilityTestSuite(t *testing.T) {
	suite.Run(t, new(FeasibilityTestSuite))
}
