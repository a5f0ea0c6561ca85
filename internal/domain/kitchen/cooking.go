package kitchen

import (
	"github.com/google/uuid"
)

// ChosenSubstitute replaces an original ingredient during a cook. A nil
// Quantity means the amount computed by feasibility.
type ChosenSubstitute struct {
	OriginalID   uuid.UUID `json:"original_id" validate:"required"`
	SubstituteID uuid.UUID `json:"substitute_id" validate:"required"`
	Quantity     *float64  `json:"quantity,omitempty" validate:"omitempty,gt=0"`
}

// PlannedDeduction is one stock mutation the executor will apply. Amount
// is expressed in Unit, which may differ from the target row's unit.
type PlannedDeduction struct {
	TargetID     uuid.UUID
	TargetName   string
	OriginalID   uuid.UUID
	Substituted  bool
	Amount       float64
	Unit         string
	ClampToStock bool
}

// Deduction is what was actually removed from the pantry
type Deduction struct {
	IngredientID   uuid.UUID  `json:"ingredient_id"`
	IngredientName string     `json:"ingredient_name"`
	ReplacedID     *uuid.UUID `json:"replaced_id,omitempty"`
	Amount         float64    `json:"amount"`
	Unit           string     `json:"unit"`
	Remaining      float64    `json:"remaining"`
	Removed        bool       `json:"removed"`
}

// PlanDeductions turns a feasibility result and the caller's substitute
// choices into an ordered list of deductions. Optional missing items are
// skipped and optional partial items are clamped to what is on hand. Every
// choice must name a recipe ingredient and one of its substitute options.
func PlanDeductions(result *FeasibilityResult, chosen []ChosenSubstitute) ([]PlannedDeduction, error) {
	choices := make(map[uuid.UUID]ChosenSubstitute, len(chosen))
	for _, c := range chosen {
		if _, dup := choices[c.OriginalID]; dup {
			return nil, ErrDuplicateSubstitute
		}
		choices[c.OriginalID] = c
	}

	plan := make([]PlannedDeduction, 0, len(result.Items))
	used := 0
	for _, item := range result.Items {
		if choice, ok := choices[item.IngredientID]; ok {
			used++
			option, found := findOption(item, choice.SubstituteID)
			if !found {
				return nil, ErrSubstituteNotAllowed
			}
			amount := option.RequiredAmount
			if choice.Quantity != nil {
				amount = *choice.Quantity
			}
			plan = append(plan, PlannedDeduction{
				TargetID:    option.SubstituteID,
				TargetName:  option.SubstituteName,
				OriginalID:  item.IngredientID,
				Substituted: true,
				Amount:      amount,
				Unit:        option.Unit,
			})
			continue
		}

		if item.Optional && item.Status == StatusMissing {
			continue
		}

		plan = append(plan, PlannedDeduction{
			TargetID:     item.IngredientID,
			TargetName:   item.IngredientName,
			OriginalID:   item.IngredientID,
			Amount:       item.Needed,
			Unit:         item.Unit,
			ClampToStock: item.Optional,
		})
	}
	if used != len(choices) {
		return nil, ErrSubstituteNotAllowed
	}
	return plan, nil
}

func findOption(item ItemStatus, substituteID uuid.UUID) (SubstituteOption, bool) {
	for _, o := range item.Substitutes {
		if o.SubstituteID == substituteID {
			return o, true
		}
	}
	return SubstituteOption{}, false
}
