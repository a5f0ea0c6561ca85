package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalized is a quantity expressed both in base units and in the units the
// user entered it with
type Normalized struct {
	NormalizedQuantity float64
	NormalizedUnit     string
	DisplayQuantity    float64
	DisplayUnit        string
}

// Normalize rescales quantity into the base unit of its class. Unknown and
// non-convertible units pass through with only the unit string lowercased.
func Normalize(quantity float64, unitText string) Normalized {
	def, ok := Lookup(unitText)
	if !ok || !def.Convertible() {
		unit := strings.ToLower(strings.TrimSpace(unitText))
		return Normalized{
			NormalizedQuantity: quantity,
			NormalizedUnit:     unit,
			DisplayQuantity:    quantity,
			DisplayUnit:        unit,
		}
	}

	return Normalized{
		NormalizedQuantity: quantity * def.Factor,
		NormalizedUnit:     def.Base,
		DisplayQuantity:    quantity,
		DisplayUnit:        def.Name,
	}
}

// Convert converts quantity between two units of the same class, always
// going through the shared base unit.
func Convert(quantity float64, fromUnit, toUnit string) (float64, error) {
	from, ok := Lookup(fromUnit)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, fromUnit)
	}
	to, ok := Lookup(toUnit)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, toUnit)
	}
	if !from.Convertible() {
		return 0, fmt.Errorf("%w: %q", ErrNonConvertibleUnit, fromUnit)
	}
	if !to.Convertible() {
		return 0, fmt.Errorf("%w: %q", ErrNonConvertibleUnit, toUnit)
	}
	if from.Class != to.Class {
		return 0, fmt.Errorf("%w: %s (%s) to %s (%s)", ErrIncompatibleUnitClass, fromUnit, from.Class, toUnit, to.Class)
	}

	base := quantity * from.Factor
	return base / to.Factor, nil
}

// Compatible reports whether two unit strings can be compared, either
// because they are the same unit or because Convert would succeed.
func Compatible(a, b string) bool {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return true
	}
	_, err := Convert(1, a, b)
	return err == nil
}

// ConvertNormalized expresses quantity (in fromUnit) in toUnit. When the units are
// identical or not convertible into each other the quantity is returned
// unchanged and ok is false only in the latter case.
func ConvertNormalized(quantity float64, fromUnit, toUnit string) (float64, bool) {
	if strings.EqualFold(strings.TrimSpace(fromUnit), strings.TrimSpace(toUnit)) {
		return quantity, true
	}
	converted, err := Convert(quantity, fromUnit, toUnit)
	if err != nil {
		return quantity, false
	}
	return converted, true
}

type fraction struct {
	value float64
	glyph string
}

var displayFractions = []fraction{
	{0.25, "¼"},
	{0.33, "⅓"},
	{0.5, "½"},
	{0.66, "⅔"},
	{0.75, "¾"},
}

const fractionTolerance = 0.05

// FormatForDisplay renders a quantity for people. Never compare on its output.
func FormatForDisplay(quantity float64, unit string) string {
	rounded := math.Round(quantity*100) / 100
	whole := math.Floor(rounded)
	frac := rounded - whole

	text := strconv.FormatFloat(rounded, 'f', -1, 64)
	if glyph, ok := nearestFraction(frac); ok {
		text = glyph
		if whole > 0 {
			text = strconv.FormatFloat(whole, 'f', 0, 64) + glyph
		}
	}

	unit = strings.TrimSpace(unit)
	if unit == "" {
		return text
	}
	return text + " " + unit
}

func nearestFraction(frac float64) (string, bool) {
	best := ""
	bestDist := math.Inf(1)
	for _, f := range displayFractions {
		d := math.Abs(frac - f.value)
		if d <= fractionTolerance && d < bestDist {
			best, bestDist = f.glyph, d
		}
	}
	return best, best != ""
}
