package gorm

import (
	"sort"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/pgvector/pgvector-go"
)

// IngredientToModel converts a domain ingredient to a GORM model
func IngredientToModel(ing *ingredient.Ingredient) *IngredientModel {
	model := &IngredientModel{
		ID:            ing.ID,
		CanonicalName: ing.CanonicalName,
		Category:      ing.Category,
		IsCanonical:   ing.IsCanonical,
		PendingReview: ing.PendingReview,
		ParentID:      ing.ParentID,
		SubmittedBy:   ing.SubmittedBy,
		CreatedAt:     ing.CreatedAt,
		UpdatedAt:     ing.UpdatedAt,
	}
	if ing.HasEmbedding() {
		vec := pgvector.NewVector(ing.Embedding)
		model.Embedding = &vec
	}

	model.Aliases = make([]IngredientAliasModel, 0, len(ing.Aliases))
	for i, alias := range ing.Aliases {
		model.Aliases = append(model.Aliases, IngredientAliasModel{
			IngredientID: ing.ID,
			Alias:        alias,
			Position:     i,
		})
	}
	return model
}

// ModelToIngredient converts a GORM model to a domain ingredient. Aliases
// are restored in insertion order.
func ModelToIngredient(model *IngredientModel) *ingredient.Ingredient {
	aliases := make([]IngredientAliasModel, len(model.Aliases))
	copy(aliases, model.Aliases)
	sort.SliceStable(aliases, func(i, j int) bool { return aliases[i].Position < aliases[j].Position })

	names := make(ingredient.Aliases, 0, len(aliases))
	for _, a := range aliases {
		names = append(names, a.Alias)
	}

	ing := &ingredient.Ingredient{
		ID:            model.ID,
		CanonicalName: model.CanonicalName,
		Aliases:       names,
		Category:      model.Category,
		IsCanonical:   model.IsCanonical,
		PendingReview: model.PendingReview,
		ParentID:      model.ParentID,
		SubmittedBy:   model.SubmittedBy,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
	if model.Embedding != nil {
		ing.Embedding = model.Embedding.Slice()
	}
	return ing
}

// StockToModel converts a pantry stock row to a GORM model
func StockToModel(s *kitchen.PantryStock) *PantryStockModel {
	return &PantryStockModel{
		ID:                 s.ID,
		PantryID:           s.PantryID,
		IngredientID:       s.IngredientID,
		DisplayQuantity:    s.DisplayQuantity,
		DisplayUnit:        s.DisplayUnit,
		NormalizedQuantity: s.NormalizedQuantity,
		NormalizedUnit:     s.NormalizedUnit,
		ExpiresAt:          s.ExpiresAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// ModelToStock converts a GORM model to a pantry stock row
func ModelToStock(m *PantryStockModel, name string) kitchen.PantryStock {
	return kitchen.PantryStock{
		ID:                 m.ID,
		PantryID:           m.PantryID,
		IngredientID:       m.IngredientID,
		IngredientName:     name,
		DisplayQuantity:    m.DisplayQuantity,
		DisplayUnit:        m.DisplayUnit,
		NormalizedQuantity: m.NormalizedQuantity,
		NormalizedUnit:     m.NormalizedUnit,
		ExpiresAt:          m.ExpiresAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// RequirementToModel converts a recipe requirement to a GORM model
func RequirementToModel(r *kitchen.RecipeRequirement) *RecipeRequirementModel {
	return &RecipeRequirementModel{
		ID:                 r.ID,
		RecipeID:           r.RecipeID,
		IngredientID:       r.IngredientID,
		DisplayQuantity:    r.DisplayQuantity,
		DisplayUnit:        r.DisplayUnit,
		NormalizedQuantity: r.NormalizedQuantity,
		NormalizedUnit:     r.NormalizedUnit,
		PrepNotes:          r.PrepNotes,
		Optional:           r.Optional,
		Position:           r.Position,
	}
}

// ModelToRequirement converts a GORM model to a recipe requirement
func ModelToRequirement(m *RecipeRequirementModel, name string) kitchen.RecipeRequirement {
	return kitchen.RecipeRequirement{
		ID:                 m.ID,
		RecipeID:           m.RecipeID,
		IngredientID:       m.IngredientID,
		IngredientName:     name,
		DisplayQuantity:    m.DisplayQuantity,
		DisplayUnit:        m.DisplayUnit,
		NormalizedQuantity: m.NormalizedQuantity,
		NormalizedUnit:     m.NormalizedUnit,
		PrepNotes:          m.PrepNotes,
		Optional:           m.Optional,
		Position:           m.Position,
	}
}

// RuleToModel converts a substitution rule to a GORM model
func RuleToModel(r *kitchen.SubstitutionRule) *SubstitutionRuleModel {
	return &SubstitutionRuleModel{
		ID:           r.ID,
		OriginalID:   r.OriginalID,
		SubstituteID: r.SubstituteID,
		Context:      string(r.Context),
		Quality:      int(r.Quality),
		Ratio:        r.Ratio,
		Notes:        r.Notes,
	}
}

// ModelToRule converts a GORM model to a substitution rule
func ModelToRule(m *SubstitutionRuleModel, substituteName string) kitchen.SubstitutionRule {
	return kitchen.SubstitutionRule{
		ID:             m.ID,
		OriginalID:     m.OriginalID,
		SubstituteID:   m.SubstituteID,
		SubstituteName: substituteName,
		Context:        kitchen.Context(m.Context),
		Quality:        kitchen.Quality(m.Quality),
		Ratio:          m.Ratio,
		Notes:          m.Notes,
	}
}

// EventToModel converts a cooking event to a GORM model
func EventToModel(e *kitchen.CookingEvent) *CookingEventModel {
	return &CookingEventModel{
		ID:          e.ID,
		RecipeID:    e.RecipeID,
		PantryID:    e.PantryID,
		ScaleFactor: e.ScaleFactor,
		Notes:       e.Notes,
		CookedAt:    e.CookedAt,
	}
}

// ModelToEvent converts a GORM model to a cooking event
func ModelToEvent(m *CookingEventModel) kitchen.CookingEvent {
	return kitchen.CookingEvent{
		ID:          m.ID,
		RecipeID:    m.RecipeID,
		PantryID:    m.PantryID,
		ScaleFactor: m.ScaleFactor,
		Notes:       m.Notes,
		CookedAt:    m.CookedAt,
	}
}
