package kitchen

import (
	"github.com/google/uuid"
)

// Quality ranks substitutes. Lower values are better.
type Quality int

const (
	QualityPerfect  Quality = 1
	QualityGood     Quality = 2
	QualityWorkable Quality = 3
)

// String returns the quality name
func (q Quality) String() string {
	switch q {
	case QualityPerfect:
		return "perfect"
	case QualityGood:
		return "good"
	case QualityWorkable:
		return "workable"
	default:
		return "unknown"
	}
}

// ParseQuality maps a quality name to its tier
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "perfect":
		return QualityPerfect, nil
	case "good":
		return QualityGood, nil
	case "workable":
		return QualityWorkable, nil
	default:
		return 0, ErrInvalidQuality
	}
}

// Context tags where a substitution is valid
type Context string

const (
	ContextAny     Context = "any"
	ContextBaking  Context = "baking"
	ContextCooking Context = "cooking"
	ContextRaw     Context = "raw"
)

// Valid reports whether c is a known context
func (c Context) Valid() bool {
	switch c {
	case ContextAny, ContextBaking, ContextCooking, ContextRaw:
		return true
	}
	return false
}

// Allows reports whether a rule tagged c applies when cooking in ctx. An
// empty ctx means no filter.
func (c Context) Allows(ctx Context) bool {
	return ctx == "" || c == ContextAny || c == ctx
}

// SubstitutionRule says SubstituteID can stand in for OriginalID at Ratio
// units of substitute per unit of original.
type SubstitutionRule struct {
	ID             uuid.UUID
	OriginalID     uuid.UUID
	SubstituteID   uuid.UUID
	SubstituteName string
	Context        Context
	Quality        Quality
	Ratio          float64
	Notes          string
}

// NewSubstitutionRule validates and builds a rule
func NewSubstitutionRule(originalID, substituteID uuid.UUID, ctx Context, quality Quality, ratio float64) (*SubstitutionRule, error) {
	if originalID == substituteID {
		return nil, ErrSelfSubstitution
	}
	if ratio <= 0 {
		return nil, ErrInvalidRatio
	}
	if ctx == "" {
		ctx = ContextAny
	}
	if !ctx.Valid() {
		return nil, ErrInvalidContext
	}
	if quality < QualityPerfect || quality > QualityWorkable {
		return nil, ErrInvalidQuality
	}
	return &SubstitutionRule{
		ID:           uuid.New(),
		OriginalID:   originalID,
		SubstituteID: substituteID,
		Context:      ctx,
		Quality:      quality,
		Ratio:        ratio,
	}, nil
}
