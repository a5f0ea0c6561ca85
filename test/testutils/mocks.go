// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIngredientStore provides a mock implementation of IngredientStore
type MockIngredientStore struct {
	mock.Mock
}

// FindExact finds an ingredient by normalized name or alias
func (m *MockIngredientStore) FindExact(ctx context.Context, normalized string) (*ingredient.Ingredient, error) {
	args := m.Called(ctx, normalized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingredient.Ingredient), args.Error(1)
}

// FuzzySearch runs approximate text search
func (m *MockIngredientStore) FuzzySearch(ctx context.Context, term string, minSimilarity float64, limit int) ([]ingredient.Candidate, error) {
	args := m.Called(ctx, term, minSimilarity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ingredient.Candidate), args.Error(1)
}

// SemanticSearch runs vector search
func (m *MockIngredientStore) SemanticSearch(ctx context.Context, embedding []float32, minSimilarity float64, limit int) ([]ingredient.Candidate, error) {
	args := m.Called(ctx, embedding, minSimilarity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ingredient.Candidate), args.Error(1)
}

// Create stores an ingredient
func (m *MockIngredientStore) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	args := m.Called(ctx, ing)
	return args.Error(0)
}

// FindByID loads an ingredient
func (m *MockIngredientStore) FindByID(ctx context.Context, id uuid.UUID) (*ingredient.Ingredient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingredient.Ingredient), args.Error(1)
}

// Promote marks an ingredient canonical
func (m *MockIngredientStore) Promote(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEmbedder provides a mock implementation of Embedder
type MockEmbedder struct {
	mock.Mock
	Dim int
}

// Embed returns the configured vector
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// Dimension returns Dim
func (m *MockEmbedder) Dimension() int {
	return m.Dim
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

// Get retrieves a value
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Set stores a value
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete removes a value
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists checks a key
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// RecordingMetrics counts business measurements for assertions
type RecordingMetrics struct {
	mu          sync.Mutex
	Resolutions map[string]int
	Tiers       map[string]int
	Feasibility map[string]int
	Cooks       map[string]int
	Deductions  int
}

// NewRecordingMetrics creates an empty recorder
func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		Resolutions: make(map[string]int),
		Tiers:       make(map[string]int),
		Feasibility: make(map[string]int),
		Cooks:       make(map[string]int),
	}
}

func (r *RecordingMetrics) RecordResolution(action, tier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Resolutions[action+"/"+tier]++
}

func (r *RecordingMetrics) ObserveTier(tier string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Tiers[tier]++
}

func (r *RecordingMetrics) RecordFeasibility(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Feasibility[outcome]++
}

func (r *RecordingMetrics) RecordCook(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cooks[outcome]++
}

func (r *RecordingMetrics) RecordDeductions(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deductions += count
}

// Count returns a counter value under the lock
func (r *RecordingMetrics) Count(m map[string]int, key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return m[key]
}

// FailingKitchenRepository wraps a repository so that units of work fail on
// the Nth stock write. Earlier writes succeed and must be rolled back.
type FailingKitchenRepository struct {
	outbound.KitchenRepository
	FailOnWrite int
	Err         error
}

// Begin opens a unit of work that fails on the configured write
func (f *FailingKitchenRepository) Begin(ctx context.Context) (outbound.UnitOfWork, error) {
	uow, err := f.KitchenRepository.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingUnitOfWork{UnitOfWork: uow, failOn: f.FailOnWrite, err: f.Err}, nil
}

type failingUnitOfWork struct {
	outbound.UnitOfWork
	failOn int
	writes int
	err    error
}

func (u *failingUnitOfWork) UpdateStock(ctx context.Context, stock *kitchen.PantryStock) error {
	if err := u.tick(); err != nil {
		return err
	}
	return u.UnitOfWork.UpdateStock(ctx, stock)
}

func (u *failingUnitOfWork) DeleteStock(ctx context.Context, stockID uuid.UUID) error {
	if err := u.tick(); err != nil {
		return err
	}
	return u.UnitOfWork.DeleteStock(ctx, stockID)
}

func (u *failingUnitOfWork) tick() error {
	u.writes++
	if u.writes == u.failOn {
		return u.err
	}
	return nil
}
