package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/infrastructure/ai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/kitchen/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type SeederTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.IngredientStore
	kitchen *memory.KitchenRepository
}

func (s *SeederTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewIngredientStore()
	s.kitchen = memory.NewKitchenRepository()
}

func (s *SeederTestSuite) TestRun() {
	s.Run("EmptyCatalog_ShouldCreateEverything", func() {
		// Arrange
		seeder := NewSeeder(s.store, s.kitchen, ai.NewHashingEmbedder(16), zap.NewNop())

		// Act
		report, err := seeder.Run(s.ctx)

		// Assert
		s.Require().NoError(err)
		s.Equal(len(Ingredients), report.IngredientsCreated)
		s.Equal(len(Rules), report.RulesCreated)
		s.Zero(report.EmbeddingFailures)

		butter, err := s.store.FindExact(s.ctx, "unsalted butter")
		s.Require().NoError(err)
		s.Require().NotNil(butter)
		s.Equal("butter", butter.CanonicalName)
		s.Len(butter.Embedding, 16)
		s.True(butter.IsCanonical)

		rules, err := s.kitchen.SubstitutionRules(s.ctx, []uuid.UUID{butter.ID})
		s.Require().NoError(err)
		s.Len(rules[butter.ID], 3)
	})

	s.Run("SecondRun_ShouldBeNoOp", func() {
		// Arrange
		seeder := NewSeeder(s.store, s.kitchen, nil, zap.NewNop())

		// Act
		report, err := seeder.Run(s.ctx)

		// Assert
		s.Require().NoError(err)
		s.Zero(report.IngredientsCreated)
		s.Zero(report.RulesCreated)
	})
}

func (s *SeederTestSuite) TestRun_EmbedderFailure_ShouldSeedWithoutVectors() {
	// Arrange
	embedder := &testutils.MockEmbedder{Dim: 4}
	embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	seeder := NewSeeder(s.store, s.kitchen, embedder, zap.NewNop())

	// Act
	report, err := seeder.Run(s.ctx)

	// Assert
	s.Require().NoError(err)
	s.Equal(len(Ingredients), report.EmbeddingFailures)

	salt, err := s.store.FindExact(s.ctx, "salt")
	s.Require().NoError(err)
	s.Require().NotNil(salt)
	s.False(salt.HasEmbedding())
}

func (s *SeederTestSuite) TestCatalog_RulesShouldReferenceSeededNames() {
	names := make(map[string]bool, len(Ingredients))
	for _, e := range Ingredients {
		names[ingredient.NormalizeName(e.Name)] = true
	}
	for _, r := range Rules {
		s.True(names[r.Original], "unknown original %q", r.Original)
		s.True(names[r.Substitute], "unknown substitute %q", r.Substitute)
		s.NotEqual(r.Original, r.Substitute)
	}
}

func TestSeederTestSuite(t *testing.T) {
	suite.Run(t, new(SeederTestSuite))
}
