package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/alchemorsel/kitchen/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ResolverServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.IngredientStore
	embedder *testutils.MockEmbedder
	metrics  *testutils.RecordingMetrics
	factory  *testutils.IngredientFactory
	service  *Service
}

func (s *ResolverServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewIngredientStore()
	s.embedder = &testutils.MockEmbedder{Dim: 3}
	s.metrics = testutils.NewRecordingMetrics()
	s.factory = testutils.NewIngredientFactory(42)

	svc, err := NewService(s.store, s.embedder, DefaultOptions(), s.metrics, zap.NewNop())
	s.Require().NoError(err)
	s.service = svc
}

func (s *ResolverServiceTestSuite) seed(items ...*ingredient.Ingredient) {
	for _, ing := range items {
		s.Require().NoError(s.store.Create(s.ctx, ing))
	}
}

func (s *ResolverServiceTestSuite) resolve(text string) *inbound.Resolution {
	res, err := s.service.ResolveIngredient(s.ctx, inbound.ResolveIngredientQuery{Text: text})
	s.Require().NoError(err)
	return res
}

func (s *ResolverServiceTestSuite) TestResolveIngredient() {
	s.Run("ExactName_ShouldMatchWithFullConfidence", func() {
		s.SetupTest()
		tomato := s.factory.Canonical("tomato")
		s.seed(tomato)

		res := s.resolve("tomato")

		s.Equal(inbound.ActionMatched, res.Action)
		s.Equal(1.0, res.Confidence)
		s.Equal(ingredient.SourceExact, res.Tier)
		s.Require().NotNil(res.Ingredient)
		s.Equal(tomato.ID, res.Ingredient.ID)
		s.embedder.AssertNotCalled(s.T(), "Embed", mock.Anything, mock.Anything)
	})

	s.Run("AliasWithCaseAndSpacing_ShouldMatchExactly", func() {
		s.SetupTest()
		scallion := s.factory.Canonical("green onion", "scallion", "spring onion")
		s.seed(scallion)

		res := s.resolve("  SCALLION ")

		s.Equal(inbound.ActionMatched, res.Action)
		s.Equal(scallion.ID, res.Ingredient.ID)
		s.Equal(ingredient.SourceExact, res.Tier)
	})

	s.Run("CloseSpelling_ShouldMatchOnFuzzyTier", func() {
		s.SetupTest()
		chicken := s.factory.Canonical("chicken breast")
		s.seed(chicken)

		// 14 shared trigrams of 17 scores above the 0.8 confidence bar
		res := s.resolve("chicken breasts")

		s.Equal(inbound.ActionMatched, res.Action)
		s.Equal(ingredient.SourceFuzzy, res.Tier)
		s.Greater(res.Confidence, 0.8)
		s.Equal(chicken.ID, res.Ingredient.ID)
	})

	s.Run("ModerateFuzzyScore_ShouldConfirmWithoutSemanticTier", func() {
		s.SetupTest()
		s.seed(s.factory.Canonical("tomato"))

		res := s.resolve("tomatoe")

		s.Equal(inbound.ActionConfirm, res.Action)
		s.Require().Len(res.Suggestions, 1)
		s.InDelta(6.0/9.0, res.Suggestions[0].Similarity, 1e-9)
		s.Equal(ingredient.SourceFuzzy, res.Suggestions[0].Source)
		s.embedder.AssertNotCalled(s.T(), "Embed", mock.Anything, mock.Anything)
	})

	s.Run("WeakFuzzyScore_ShouldFallThroughToSemanticTier", func() {
		s.SetupTest()
		onion := s.factory.WithEmbedding("green onion", []float32{1, 0, 0})
		s.seed(onion, s.factory.WithEmbedding("strawberry", []float32{0, 1, 0}))
		s.embedder.On("Embed", mock.Anything, "scallion").Return([]float32{0.9, 0.1, 0}, nil).Once()

		res := s.resolve("scallion")

		s.Equal(inbound.ActionConfirm, res.Action)
		s.Equal(ingredient.SourceSemantic, res.Tier)
		s.Require().Len(res.Suggestions, 1)
		s.Equal(onion.ID, res.Suggestions[0].ID)
		s.Greater(res.Suggestions[0].Similarity, 0.7)
		s.embedder.AssertExpectations(s.T())
	})

	s.Run("PrecomputedEmbedding_ShouldSkipEmbedder", func() {
		s.SetupTest()
		onion := s.factory.WithEmbedding("green onion", []float32{1, 0, 0})
		s.seed(onion)

		res, err := s.service.ResolveIngredient(s.ctx, inbound.ResolveIngredientQuery{
			Text:      "scallion",
			Embedding: []float32{1, 0, 0},
		})

		s.Require().NoError(err)
		s.Equal(inbound.ActionConfirm, res.Action)
		s.Equal(onion.ID, res.Suggestions[0].ID)
		s.InDelta(1.0, res.Confidence, 1e-9)
		s.embedder.AssertNotCalled(s.T(), "Embed", mock.Anything, mock.Anything)
	})

	s.Run("EmbedderFailure_ShouldDegradeToTextTiers", func() {
		s.SetupTest()
		s.seed(s.factory.WithEmbedding("green onion", []float32{1, 0, 0}))
		s.embedder.On("Embed", mock.Anything, "scallion").Return(nil, errors.New("model offline"))

		res := s.resolve("scallion")

		s.Equal(inbound.ActionCreateNew, res.Action)
		s.Empty(res.Suggestions)
	})

	s.Run("NoCandidates_ShouldCreateNew", func() {
		s.SetupTest()
		s.seed(s.factory.Canonical("tomato"))
		s.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0, 0, 1}, nil)

		res := s.resolve("dragonfruit")

		s.Equal(inbound.ActionCreateNew, res.Action)
		s.Nil(res.Ingredient)
		s.Equal(1, s.metrics.Count(s.metrics.Resolutions, "create_new/merge"))
	})

	s.Run("PendingIngredient_ShouldNotBeServed", func() {
		s.SetupTest()
		s.seed(s.factory.Pending("yuzu"))
		s.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0, 0, 1}, nil)

		res := s.resolve("yuzu")

		s.Equal(inbound.ActionCreateNew, res.Action)
	})

	s.Run("MismatchedEmbeddingDimension_ShouldFailValidation", func() {
		s.SetupTest()

		_, err := s.service.ResolveIngredient(s.ctx, inbound.ResolveIngredientQuery{
			Text:      "tomato",
			Embedding: []float32{1, 0},
		})

		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
		s.ErrorIs(err, ingredient.ErrDimensionMismatch)
	})

	s.Run("BlankText_ShouldFailValidation", func() {
		s.SetupTest()

		_, err := s.service.ResolveIngredient(s.ctx, inbound.ResolveIngredientQuery{Text: " \t "})

		s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
	})

	s.Run("CancelledContext_ShouldReturnCancelled", func() {
		s.SetupTest()
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()

		_, err := s.service.ResolveIngredient(ctx, inbound.ResolveIngredientQuery{Text: "tomato"})

		s.True(apperrors.Is(err, apperrors.CodeCancelled))
	})
}

func (s *ResolverServiceTestSuite) TestResolveIngredient_Monotonicity() {
	s.store = memory.NewIngredientStore()
	s.seed(
		s.factory.WithEmbedding("onion", []float32{1, 0, 0}),
		s.factory.WithEmbedding("red onion", []float32{0.9, 0.1, 0}),
		s.factory.WithEmbedding("green onion", []float32{0.8, 0.2, 0}),
		s.factory.WithEmbedding("onion powder", []float32{0.7, 0, 0.3}),
		s.factory.WithEmbedding("shallot", []float32{0.95, 0, 0.05}),
	)
	embedder := &testutils.MockEmbedder{Dim: 3}
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0.05, 0}, nil)

	svc, err := NewService(s.store, embedder, DefaultOptions(), nil, zap.NewNop())
	s.Require().NoError(err)

	count := func(res *inbound.Resolution) int {
		if res.Action == inbound.ActionMatched {
			return 1
		}
		return len(res.Suggestions)
	}

	thresholds := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	for _, text := range []string{"onions", "onion soup", "shallots", "red onions"} {
		prev := -1
		for _, ft := range thresholds {
			ft := ft
			res, err := svc.ResolveIngredient(s.ctx, inbound.ResolveIngredientQuery{Text: text, FuzzyThreshold: &ft})
			s.Require().NoError(err)
			if prev >= 0 {
				s.LessOrEqual(count(res), prev, "fuzzy threshold %v for %q", ft, text)
			}
			prev = count(res)
		}

		prev = -1
		for _, st := range thresholds {
			st := st
			res, err := svc.ResolveIngredient(s.ctx, inbound.ResolveIngredientQuery{Text: text, SemanticThreshold: &st})
			s.Require().NoError(err)
			if prev >= 0 {
				s.LessOrEqual(count(res), prev, "semantic threshold %v for %q", st, text)
			}
			prev = count(res)
		}
	}
}

func (s *ResolverServiceTestSuite) TestResolveIngredient_FuzzyThresholdAboveSemanticCeiling() {
	raised := 0.7

	s.Run("NearMissBelowRaisedThreshold_ShouldKeepSemanticGateClosed", func() {
		s.SetupTest()
		s.seed(s.factory.WithEmbedding("tomato", []float32{1, 0, 0}))
		s.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

		res := s.resolve("tomatoe")
		s.Equal(inbound.ActionConfirm, res.Action)
		s.Require().Len(res.Suggestions, 1)

		// "tomatoe" scores 6/9 against "tomato": above the ceiling, below 0.7
		res, err := s.service.ResolveIngredient(s.ctx, inbound.ResolveIngredientQuery{Text: "tomatoe", FuzzyThreshold: &raised})
		s.Require().NoError(err)
		s.Equal(inbound.ActionCreateNew, res.Action)
		s.Empty(res.Suggestions)
		s.embedder.AssertNotCalled(s.T(), "Embed", mock.Anything, mock.Anything)
	})

	s.Run("WeakTextScore_ShouldStillReachSemanticTier", func() {
		s.SetupTest()
		tomato := s.factory.WithEmbedding("tomato", []float32{1, 0, 0})
		s.seed(tomato)
		s.embedder.On("Embed", mock.Anything, "roma").Return([]float32{1, 0, 0}, nil)

		res, err := s.service.ResolveIngredient(s.ctx, inbound.ResolveIngredientQuery{Text: "roma", FuzzyThreshold: &raised})
		s.Require().NoError(err)

		s.Equal(inbound.ActionConfirm, res.Action)
		s.Require().Len(res.Suggestions, 1)
		s.Equal(tomato.ID, res.Suggestions[0].ID)
		s.Equal(ingredient.SourceSemantic, res.Suggestions[0].Source)
		s.InDelta(1.0, res.Suggestions[0].Similarity, 1e-9)
		s.embedder.AssertExpectations(s.T())
	})
}

func (s *ResolverServiceTestSuite) TestCreateIngredient() {
	s.Run("NewName_ShouldBePendingReview", func() {
		s.SetupTest()
		s.embedder.On("Embed", mock.Anything, "dragonfruit").Return([]float32{0, 1, 0}, nil)

		res := s.resolve("Dragonfruit")
		s.Require().Equal(inbound.ActionCreateNew, res.Action)

		created, err := s.service.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{
			Name:        "  Dragonfruit ",
			SubmitterID: uuid.New(),
			Aliases:     []string{"pitaya", "Dragonfruit"},
		})

		s.Require().NoError(err)
		s.True(created.PendingReview)
		s.True(created.HasEmbedding)
		s.Equal("dragonfruit", created.CanonicalName)

		stored, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.False(stored.IsCanonical)
		s.Equal([]string{"pitaya"}, stored.Aliases.Strings())
	})

	s.Run("EmbedderFailure_ShouldStoreWithoutEmbedding", func() {
		s.SetupTest()
		s.embedder.On("Embed", mock.Anything, "yuzu").Return(nil, errors.New("timeout"))

		created, err := s.service.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{Name: "yuzu"})

		s.Require().NoError(err)
		s.False(created.HasEmbedding)
		s.Equal(1, s.store.Len())
	})

	s.Run("DuplicateName_ShouldReturnExists", func() {
		s.SetupTest()
		s.seed(s.factory.Canonical("tomato"))
		s.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

		_, err := s.service.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{Name: "Tomato"})

		s.True(apperrors.Is(err, apperrors.CodeIngredientExists))
		s.ErrorIs(err, ingredient.ErrDuplicateIngredient)
	})

	s.Run("EmptyName_ShouldFailValidation", func() {
		s.SetupTest()

		_, err := s.service.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{Name: ""})

		s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
		s.Equal(0, s.store.Len())
	})

	s.Run("PromotedIngredient_ShouldResolveExactly", func() {
		s.SetupTest()
		s.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0, 0, 1}, nil)
		created, err := s.service.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{Name: "yuzu"})
		s.Require().NoError(err)

		s.Require().NoError(s.store.Promote(s.ctx, created.ID))
		res := s.resolve("yuzu")

		s.Equal(inbound.ActionMatched, res.Action)
		s.Equal(created.ID, res.Ingredient.ID)
	})
}

func (s *ResolverServiceTestSuite) TestUpdateDefaults() {
	s.Run("ValidOptions_ShouldApplyToLaterCalls", func() {
		s.SetupTest()
		s.seed(s.factory.Canonical("tomato"))
		opts := DefaultOptions()
		opts.FuzzyThreshold = 0.7
		opts.SemanticCeiling = 0.7
		s.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0, 0, 1}, nil)

		s.Require().NoError(s.service.UpdateDefaults(opts))
		res := s.resolve("tomatoe")

		s.Equal(0.7, s.service.Defaults().FuzzyThreshold)
		s.Equal(inbound.ActionCreateNew, res.Action)
	})

	s.Run("OutOfRangeThreshold_ShouldBeRejected", func() {
		s.SetupTest()
		opts := DefaultOptions()
		opts.HighConfidence = 1.5

		err := s.service.UpdateDefaults(opts)

		s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
		s.Equal(0.8, s.service.Defaults().HighConfidence)
	})
}

func TestResolverServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ResolverServiceTestSuite))
}
