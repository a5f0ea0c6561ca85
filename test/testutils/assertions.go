// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"testing"

	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FeasibilityAssertions provides feasibility-specific assertion methods
type FeasibilityAssertions struct {
	t *testing.T
}

// NewFeasibilityAssertions creates a new feasibility assertions helper
func NewFeasibilityAssertions(t *testing.T) *FeasibilityAssertions {
	return &FeasibilityAssertions{t: t}
}

// ItemStatus asserts the status of one ingredient's requirement
func (fa *FeasibilityAssertions) ItemStatus(result *kitchen.FeasibilityResult, ingredientID uuid.UUID, want kitchen.Status, msgAndArgs ...interface{}) kitchen.ItemStatus {
	fa.t.Helper()
	item, ok := result.Item(ingredientID)
	require.True(fa.t, ok, "no requirement for ingredient %s", ingredientID)
	assert.Equal(fa.t, want, item.Status, msgAndArgs...)
	return item
}

// ShortfallIdentity asserts shortfall == max(0, needed - have) for every
// item and that the missing list holds exactly the items with a shortfall
func (fa *FeasibilityAssertions) ShortfallIdentity(result *kitchen.FeasibilityResult) {
	fa.t.Helper()
	missing := 0
	for _, item := range result.Items {
		want := item.Needed - item.Have
		if want < 0 {
			want = 0
		}
		assert.InDelta(fa.t, want, item.Shortfall, 1e-9, "shortfall of %s", item.IngredientName)
		if item.Status != kitchen.StatusHave {
			missing++
		}
	}
	assert.Len(fa.t, result.Missing, missing)
}

// Cookable asserts whether the cooking gate passes
func (fa *FeasibilityAssertions) Cookable(result *kitchen.FeasibilityResult, want bool) {
	fa.t.Helper()
	assert.Equal(fa.t, want, result.Cookable(),
		"can_make=%t can_make_with_substitutes=%t", result.CanMake, result.CanMakeWithSubstitutes)
}

// ErrorCode asserts err is an AppError carrying code
func ErrorCode(t *testing.T, err error, code errors.ErrorCode, msgAndArgs ...interface{}) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	assert.Equal(t, code, errors.GetCode(err), msgAndArgs...)
}

// DatabaseAssertions provides database-specific assertions
type DatabaseAssertions struct {
	t  *testing.T
	db *TestDatabase
}

// NewDatabaseAssertions creates a new database assertions helper
func NewDatabaseAssertions(t *testing.T, db *TestDatabase) *DatabaseAssertions {
	return &DatabaseAssertions{t: t, db: db}
}

// RecordCount asserts the number of records in a table
func (da *DatabaseAssertions) RecordCount(table string, expectedCount int, msgAndArgs ...interface{}) {
	da.t.Helper()
	count, err := da.db.CountRecords(table)
	require.NoError(da.t, err, "Failed to count records")
	assert.Equal(da.t, expectedCount, count, msgAndArgs...)
}

// TableEmpty asserts that a table is empty
func (da *DatabaseAssertions) TableEmpty(table string, msgAndArgs ...interface{}) {
	da.RecordCount(table, 0, msgAndArgs...)
}
