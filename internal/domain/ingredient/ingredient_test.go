package ingredient

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IngredientTestSuite provides a test suite for the catalog entity and helpers
type IngredientTestSuite struct {
	suite.Suite
}

func (suite *IngredientTestSuite) TestNormalizeName() {
	cases := map[string]string{
		"  Crème  Fraîche ": "creme fraiche",
		"TOMATO":            "tomato",
		"Jalapeño\tPepper":  "jalapeno pepper",
		"ﬁg":                "fig",
		"":                  "",
	}

	for in, want := range cases {
		assert.Equal(suite.T(), want, NormalizeName(in), in)
	}

	suite.Run("Normalized_ShouldBeIdempotent", func() {
		once := NormalizeName(" Piment d'Espelette ")
		assert.Equal(suite.T(), once, NormalizeName(once))
	})
}

func (suite *IngredientTestSuite) TestAliases() {
	suite.Run("Duplicates_ShouldKeepFirstInsertion", func() {
		// Act
		a := NewAliases("Scallion", "green onion", "SCALLION", " ", "Spring Onion")

		// Assert
		assert.Equal(suite.T(), Aliases{"scallion", "green onion", "spring onion"}, a)
	})

	suite.Run("Without_ShouldNotMutateReceiver", func() {
		a := NewAliases("a", "b", "c")

		out := a.Without("b")

		assert.Equal(suite.T(), Aliases{"a", "c"}, out)
		assert.Equal(suite.T(), Aliases{"a", "b", "c"}, a)
	})
}

func (suite *IngredientTestSuite) TestNewSubmission() {
	suite.Run("ValidName_ShouldBePendingAndNonCanonical", func() {
		submitter := uuid.New()

		ing, err := NewSubmission(" Za'atar ", submitter, SubmissionOptions{
			Category: "Spice",
			Aliases:  []string{"zaatar", "za'atar", "Zahtar"},
		})

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "za'atar", ing.CanonicalName)
		assert.Equal(suite.T(), "spice", ing.Category)
		assert.Equal(suite.T(), Aliases{"zaatar", "zahtar"}, ing.Aliases)
		assert.True(suite.T(), ing.PendingReview)
		assert.False(suite.T(), ing.IsCanonical)
		assert.False(suite.T(), ing.Searchable())
		require.NotNil(suite.T(), ing.SubmittedBy)
		assert.Equal(suite.T(), submitter, *ing.SubmittedBy)
	})

	suite.Run("BlankName_ShouldReturnError", func() {
		ing, err := NewSubmission("   ", uuid.New(), SubmissionOptions{})

		assert.Nil(suite.T(), ing)
		assert.Equal(suite.T(), ErrEmptyName, err)
	})

	suite.Run("Promote_ShouldMakeSearchable", func() {
		ing, err := NewSubmission("sumac", uuid.Nil, SubmissionOptions{})
		require.NoError(suite.T(), err)
		assert.Nil(suite.T(), ing.SubmittedBy)

		require.NoError(suite.T(), ing.Promote())

		assert.True(suite.T(), ing.IsCanonical)
		assert.True(suite.T(), ing.Searchable())
		assert.Equal(suite.T(), ErrAlreadyCanonical, ing.Promote())
	})
}

func (suite *IngredientTestSuite) TestTrigramSimilarity() {
	assert.Equal(suite.T(), 1.0, TrigramSimilarity("tomato", "Tomato"))
	assert.InDelta(suite.T(), 0.6, TrigramSimilarity("tomato", "tomatoes"), 1e-9)
	assert.Equal(suite.T(), 0.0, TrigramSimilarity("tomato", "xyz"))
	assert.Equal(suite.T(), 0.0, TrigramSimilarity("", "tomato"))

	suite.Run("AliasScore_ShouldWinWhenHigher", func() {
		ing := &Ingredient{CanonicalName: "scallion", Aliases: NewAliases("green onion")}

		assert.Equal(suite.T(), 1.0, BestTextSimilarity("green onion", ing))
	})
}

func (suite *IngredientTestSuite) TestCosineSimilarity() {
	assert.InDelta(suite.T(), 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(suite.T(), 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(suite.T(), 0.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}))
	assert.Equal(suite.T(), 0.0, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(suite.T(), 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}

func (suite *IngredientTestSuite) TestMergeCandidates() {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	fuzzy := []Candidate{
		{ID: a, CanonicalName: "basil", Similarity: 0.5, Source: SourceFuzzy},
		{ID: b, CanonicalName: "thai basil", Similarity: 0.4, Source: SourceFuzzy},
	}
	semantic := []Candidate{
		{ID: b, CanonicalName: "holy basil", Similarity: 0.9, Source: SourceSemantic},
		{ID: c, CanonicalName: "oregano", Similarity: 0.75, Source: SourceSemantic},
	}

	merged := MergeCandidates(2, fuzzy, semantic)

	require.Len(suite.T(), merged, 2)
	assert.Equal(suite.T(), b, merged[0].ID)
	assert.Equal(suite.T(), "thai basil", merged[0].CanonicalName)
	assert.Equal(suite.T(), SourceFuzzy, merged[0].Source)
	assert.Equal(suite.T(), 0.9, merged[0].Similarity)
	assert.Equal(suite.T(), c, merged[1].ID)
}

func TestIngredientTestSuite(t *testing.T) {
	suite.Run(t, new(IngredientTestSuite))
}
