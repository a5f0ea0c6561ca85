// Package gorm provides GORM model definitions and repositories for the
// ingredient catalog and the kitchen tables. It runs on SQLite and Postgres.
package gorm

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// IngredientModel represents the GORM model for catalog entries
type IngredientModel struct {
	ID            uuid.UUID        `gorm:"type:char(36);primaryKey"`
	CanonicalName string           `gorm:"type:varchar(200);uniqueIndex;not null"`
	Category      string           `gorm:"type:varchar(100);index"`
	Embedding     *pgvector.Vector `gorm:"type:vector"`
	IsCanonical   bool             `gorm:"not null"`
	PendingReview bool             `gorm:"not null;index"`
	ParentID      *uuid.UUID       `gorm:"type:char(36)"`
	SubmittedBy   *uuid.UUID       `gorm:"type:char(36)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Relationships
	Aliases []IngredientAliasModel `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

// IngredientAliasModel is one alternate spelling, kept in insertion order
type IngredientAliasModel struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	IngredientID uuid.UUID `gorm:"type:char(36);not null;index"`
	Alias        string    `gorm:"type:varchar(200);not null;index"`
	Position     int       `gorm:"not null;default:0"`
}

// PantryModel represents the GORM model for pantries
type PantryModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	OwnerID   uuid.UUID `gorm:"type:char(36);index"`
	CreatedAt time.Time
}

// RecipeModel represents the GORM model for recipes
type RecipeModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;index"`
	OwnerID   uuid.UUID `gorm:"type:char(36);index"`
	CreatedAt time.Time
}

// PantryStockModel is one ingredient held by a pantry
type PantryStockModel struct {
	ID                 uuid.UUID  `gorm:"type:char(36);primaryKey"`
	PantryID           uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_pantry_ingredient"`
	IngredientID       uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_pantry_ingredient"`
	DisplayQuantity    float64    `gorm:"not null"`
	DisplayUnit        string     `gorm:"type:varchar(50)"`
	NormalizedQuantity float64    `gorm:"not null;check:normalized_quantity >= 0"`
	NormalizedUnit     string     `gorm:"type:varchar(50);not null"`
	ExpiresAt          *time.Time `gorm:"index"`
	UpdatedAt          time.Time
}

// RecipeRequirementModel is one ingredient needed by a recipe
type RecipeRequirementModel struct {
	ID                 uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID           uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID       uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_recipe_ingredient"`
	DisplayQuantity    float64   `gorm:"not null"`
	DisplayUnit        string    `gorm:"type:varchar(50)"`
	NormalizedQuantity float64   `gorm:"not null;check:normalized_quantity >= 0"`
	NormalizedUnit     string    `gorm:"type:varchar(50);not null"`
	PrepNotes          string    `gorm:"type:text"`
	Optional           bool      `gorm:"not null"`
	Position           int       `gorm:"not null;default:0"`
}

// SubstitutionRuleModel says one ingredient may stand in for another
type SubstitutionRuleModel struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	OriginalID   uuid.UUID `gorm:"type:char(36);not null;index"`
	SubstituteID uuid.UUID `gorm:"type:char(36);not null"`
	Context      string    `gorm:"type:varchar(20);not null;default:'any'"`
	Quality      int       `gorm:"not null;check:quality BETWEEN 1 AND 3"`
	Ratio        float64   `gorm:"not null;check:ratio > 0"`
	Notes        string    `gorm:"type:text"`
}

// CookingEventModel is the append-only cook log
type CookingEventModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID    uuid.UUID `gorm:"type:char(36);not null;index"`
	PantryID    uuid.UUID `gorm:"type:char(36);not null;index"`
	ScaleFactor float64   `gorm:"not null"`
	Notes       string    `gorm:"type:text"`
	CookedAt    time.Time `gorm:"index"`
}

// AllModels lists every table for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&IngredientModel{},
		&IngredientAliasModel{},
		&PantryModel{},
		&RecipeModel{},
		&PantryStockModel{},
		&RecipeRequirementModel{},
		&SubstitutionRuleModel{},
		&CookingEventModel{},
	}
}

// BeforeCreate hook for IngredientModel
func (m *IngredientModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for IngredientAliasModel
func (m *IngredientAliasModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PantryStockModel
func (m *PantryStockModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for CookingEventModel
func (m *CookingEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (IngredientModel) TableName() string {
	return "ingredients"
}

func (IngredientAliasModel) TableName() string {
	return "ingredient_aliases"
}

func (PantryModel) TableName() string {
	return "pantries"
}

func (RecipeModel) TableName() string {
	return "recipes"
}

func (PantryStockModel) TableName() string {
	return "pantry_stock"
}

func (RecipeRequirementModel) TableName() string {
	return "recipe_requirements"
}

func (SubstitutionRuleModel) TableName() string {
	return "substitution_rules"
}

func (CookingEventModel) TableName() string {
	return "cooking_events"
}
