package kitchen

import (
	"math"
	"sort"

	"github.com/alchemorsel/kitchen/internal/domain/units"
	"github.com/google/uuid"
)

// Status of a single requirement against the pantry
type Status string

const (
	StatusHave    Status = "have"
	StatusPartial Status = "partial"
	StatusMissing Status = "missing"
)

// TieBreak orders substitutes of equal quality
type TieBreak string

const (
	// TieBreakSubstituteID orders by substitute id, ascending
	TieBreakSubstituteID TieBreak = "substitute_id"
	// TieBreakAvailability prefers the substitute with more stock on hand,
	// then falls back to substitute id
	TieBreakAvailability TieBreak = "availability"
)

// Valid reports whether t is a known tie-break
func (t TieBreak) Valid() bool {
	return t == TieBreakSubstituteID || t == TieBreakAvailability
}

// Snapshot is everything Evaluate reads. Rules are keyed by the original
// ingredient id.
type Snapshot struct {
	Requirements []RecipeRequirement
	Stock        []PantryStock
	Rules        map[uuid.UUID][]SubstitutionRule
}

// Options tune an evaluation
type Options struct {
	Scale    float64
	Context  Context
	TieBreak TieBreak
}

// SubstituteOption is a viable stand-in for a missing ingredient
type SubstituteOption struct {
	RuleID             uuid.UUID `json:"rule_id"`
	SubstituteID       uuid.UUID `json:"substitute_id"`
	SubstituteName     string    `json:"substitute_name"`
	Quality            Quality   `json:"quality"`
	Context            Context   `json:"context"`
	Ratio              float64   `json:"ratio"`
	Available          float64   `json:"available"`
	RequiredAmount     float64   `json:"required_amount"`
	Unit               string    `json:"unit"`
	CanFullySubstitute bool      `json:"can_fully_substitute"`
}

// ItemStatus is the evaluation of one requirement
type ItemStatus struct {
	RequirementID  uuid.UUID          `json:"requirement_id"`
	IngredientID   uuid.UUID          `json:"ingredient_id"`
	IngredientName string             `json:"ingredient_name"`
	Needed         float64            `json:"needed"`
	Have           float64            `json:"have"`
	Shortfall      float64            `json:"shortfall"`
	Unit           string             `json:"unit"`
	Status         Status             `json:"status"`
	Optional       bool               `json:"optional"`
	UnitMismatch   bool               `json:"unit_mismatch,omitempty"`
	Substitutes    []SubstituteOption `json:"substitutes,omitempty"`
}

// HasFullSubstitute reports whether any substitute covers the shortfall
func (i ItemStatus) HasFullSubstitute() bool {
	for _, s := range i.Substitutes {
		if s.CanFullySubstitute {
			return true
		}
	}
	return false
}

// ShoppingItem is a shortfall that nothing in the pantry covers
type ShoppingItem struct {
	IngredientID   uuid.UUID `json:"ingredient_id"`
	IngredientName string    `json:"ingredient_name"`
	Shortfall      float64   `json:"shortfall"`
	Unit           string    `json:"unit"`
	Display        string    `json:"display"`
}

// FeasibilityResult is the outcome of Evaluate
type FeasibilityResult struct {
	Scale                  float64        `json:"scale"`
	Items                  []ItemStatus   `json:"items"`
	Missing                []ItemStatus   `json:"missing"`
	CanMake                bool           `json:"can_make"`
	CanMakeWithSubstitutes bool           `json:"can_make_with_substitutes"`
	ShoppingList           []ShoppingItem `json:"shopping_list"`
}

// Cookable reports whether the cooking gate passes
func (r *FeasibilityResult) Cookable() bool {
	return r.CanMake || r.CanMakeWithSubstitutes
}

// Item returns the status for an ingredient id
func (r *FeasibilityResult) Item(ingredientID uuid.UUID) (ItemStatus, bool) {
	for _, it := range r.Items {
		if it.IngredientID == ingredientID {
			return it, true
		}
	}
	return ItemStatus{}, false
}

// Evaluate compares requirements against stock. It performs no I/O and
// the same snapshot and options always produce the same result.
func Evaluate(snap Snapshot, opts Options) (*FeasibilityResult, error) {
	if opts.Scale <= 0 || math.IsNaN(opts.Scale) || math.IsInf(opts.Scale, 0) {
		return nil, ErrInvalidScale
	}
	if opts.TieBreak == "" {
		opts.TieBreak = TieBreakSubstituteID
	}
	if !opts.TieBreak.Valid() {
		return nil, ErrInvalidTieBreak
	}

	pantry := make(map[uuid.UUID]PantryStock, len(snap.Stock))
	for _, s := range snap.Stock {
		pantry[s.IngredientID] = s
	}

	reqs := make([]RecipeRequirement, len(snap.Requirements))
	copy(reqs, snap.Requirements)
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].Position != reqs[j].Position {
			return reqs[i].Position < reqs[j].Position
		}
		return reqs[i].IngredientID.String() < reqs[j].IngredientID.String()
	})

	result := &FeasibilityResult{
		Scale:        opts.Scale,
		Items:        make([]ItemStatus, 0, len(reqs)),
		Missing:      []ItemStatus{},
		ShoppingList: []ShoppingItem{},
	}

	for _, req := range reqs {
		item := evaluateRequirement(req, pantry, opts.Scale)

		if !item.Optional && item.Status != StatusHave {
			item.Substitutes = rankSubstitutes(snap.Rules[req.IngredientID], pantry, item, opts)
			result.Missing = append(result.Missing, item)
		}
		result.Items = append(result.Items, item)
	}

	result.CanMake = len(result.Missing) == 0
	result.CanMakeWithSubstitutes = true
	for _, m := range result.Missing {
		if m.HasFullSubstitute() {
			continue
		}
		result.CanMakeWithSubstitutes = false
		result.ShoppingList = append(result.ShoppingList, ShoppingItem{
			IngredientID:   m.IngredientID,
			IngredientName: m.IngredientName,
			Shortfall:      m.Shortfall,
			Unit:           m.Unit,
			Display:        units.FormatForDisplay(m.Shortfall, m.Unit),
		})
	}

	return result, nil
}

func evaluateRequirement(req RecipeRequirement, pantry map[uuid.UUID]PantryStock, scale float64) ItemStatus {
	needed := req.NormalizedQuantity * scale
	item := ItemStatus{
		RequirementID:  req.ID,
		IngredientID:   req.IngredientID,
		IngredientName: req.IngredientName,
		Needed:         needed,
		Unit:           req.NormalizedUnit,
		Optional:       req.Optional,
	}

	if stock, ok := pantry[req.IngredientID]; ok {
		have, compatible := units.ConvertNormalized(stock.NormalizedQuantity, stock.NormalizedUnit, req.NormalizedUnit)
		item.Have = have
		item.UnitMismatch = !compatible
	}

	switch {
	case item.Have >= needed:
		item.Status = StatusHave
	case item.Have > 0:
		item.Status = StatusPartial
	default:
		item.Status = StatusMissing
	}
	item.Shortfall = math.Max(0, needed-item.Have)
	return item
}

func rankSubstitutes(rules []SubstitutionRule, pantry map[uuid.UUID]PantryStock, item ItemStatus, opts Options) []SubstituteOption {
	var out []SubstituteOption
	for _, rule := range rules {
		if !rule.Context.Allows(opts.Context) {
			continue
		}
		stock, ok := pantry[rule.SubstituteID]
		if !ok || stock.NormalizedQuantity <= 0 {
			continue
		}

		available, _ := units.ConvertNormalized(stock.NormalizedQuantity, stock.NormalizedUnit, item.Unit)
		required := item.Shortfall * rule.Ratio
		name := rule.SubstituteName
		if name == "" {
			name = stock.IngredientName
		}
		out = append(out, SubstituteOption{
			RuleID:             rule.ID,
			SubstituteID:       rule.SubstituteID,
			SubstituteName:     name,
			Quality:            rule.Quality,
			Context:            rule.Context,
			Ratio:              rule.Ratio,
			Available:          available,
			RequiredAmount:     required,
			Unit:               item.Unit,
			CanFullySubstitute: available >= required,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Quality != b.Quality {
			return a.Quality < b.Quality
		}
		if opts.TieBreak == TieBreakAvailability && a.Available != b.Available {
			return a.Available > b.Available
		}
		if a.SubstituteID != b.SubstituteID {
			return a.SubstituteID.String() < b.SubstituteID.String()
		}
		return a.RuleID.String() < b.RuleID.String()
	})
	return out
}
