// Package units holds the static unit catalog and the pure conversion
// functions used to put user-entered quantities on a comparable scale.
package units

import "strings"

// Class groups units that can be converted into each other
type Class string

const (
	ClassVolume Class = "volume"
	ClassWeight Class = "weight"
	ClassCount  Class = "count"
	ClassOther  Class = "other"
)

// Base unit symbols per convertible class
const (
	BaseVolume = "ml"
	BaseWeight = "g"
	BaseCount  = "piece"
)

// Definition describes one unit. Definitions are immutable once the
// catalog is built.
type Definition struct {
	Name      string
	Spellings []string
	Class     Class
	Factor    float64 // multiplier into the base unit of Class
	Base      string
}

// Convertible reports whether the unit can be rescaled
func (d Definition) Convertible() bool {
	return d.Class != ClassOther
}

var definitions = []Definition{
	// Volume (base ml)
	{Name: "ml", Spellings: []string{"milliliter", "milliliters", "millilitre", "millilitres", "mls"}, Class: ClassVolume, Factor: 1, Base: BaseVolume},
	{Name: "l", Spellings: []string{"liter", "liters", "litre", "litres", "ltr"}, Class: ClassVolume, Factor: 1000, Base: BaseVolume},
	{Name: "tsp", Spellings: []string{"teaspoon", "teaspoons", "tsps", "t"}, Class: ClassVolume, Factor: 4.929, Base: BaseVolume},
	{Name: "tbsp", Spellings: []string{"tablespoon", "tablespoons", "tbsps", "tbs", "tbl", "T"}, Class: ClassVolume, Factor: 14.787, Base: BaseVolume},
	{Name: "cup", Spellings: []string{"cups", "c"}, Class: ClassVolume, Factor: 236.588, Base: BaseVolume},
	{Name: "fl oz", Spellings: []string{"floz", "fl-oz", "fluid ounce", "fluid ounces"}, Class: ClassVolume, Factor: 29.574, Base: BaseVolume},
	{Name: "pint", Spellings: []string{"pints", "pt"}, Class: ClassVolume, Factor: 473.176, Base: BaseVolume},
	{Name: "quart", Spellings: []string{"quarts", "qt"}, Class: ClassVolume, Factor: 946.353, Base: BaseVolume},
	{Name: "gallon", Spellings: []string{"gallons", "gal"}, Class: ClassVolume, Factor: 3785.41, Base: BaseVolume},

	// Weight (base g)
	{Name: "mg", Spellings: []string{"milligram", "milligrams"}, Class: ClassWeight, Factor: 0.001, Base: BaseWeight},
	{Name: "g", Spellings: []string{"gram", "grams", "gr", "gm"}, Class: ClassWeight, Factor: 1, Base: BaseWeight},
	{Name: "kg", Spellings: []string{"kilogram", "kilograms", "kilo", "kilos", "kgs"}, Class: ClassWeight, Factor: 1000, Base: BaseWeight},
	{Name: "oz", Spellings: []string{"ounce", "ounces"}, Class: ClassWeight, Factor: 28.3495, Base: BaseWeight},
	{Name: "lb", Spellings: []string{"pound", "pounds", "lbs"}, Class: ClassWeight, Factor: 453.592, Base: BaseWeight},

	// Count (base piece)
	{Name: "piece", Spellings: []string{"pieces", "pc", "pcs", "each", "ea", "whole", "item", "items"}, Class: ClassCount, Factor: 1, Base: BaseCount},
	{Name: "dozen", Spellings: []string{"dozens", "doz"}, Class: ClassCount, Factor: 12, Base: BaseCount},

	// Non-convertible
	{Name: "pinch", Spellings: []string{"pinches"}, Class: ClassOther, Factor: 1, Base: "pinch"},
	{Name: "dash", Spellings: []string{"dashes"}, Class: ClassOther, Factor: 1, Base: "dash"},
	{Name: "clove", Spellings: []string{"cloves"}, Class: ClassOther, Factor: 1, Base: "clove"},
	{Name: "can", Spellings: []string{"cans", "tin", "tins"}, Class: ClassOther, Factor: 1, Base: "can"},
	{Name: "package", Spellings: []string{"packages", "pkg", "packet", "packets"}, Class: ClassOther, Factor: 1, Base: "package"},
	{Name: "bunch", Spellings: []string{"bunches"}, Class: ClassOther, Factor: 1, Base: "bunch"},
	{Name: "slice", Spellings: []string{"slices"}, Class: ClassOther, Factor: 1, Base: "slice"},
	{Name: "sprig", Spellings: []string{"sprigs"}, Class: ClassOther, Factor: 1, Base: "sprig"},
	{Name: "handful", Spellings: []string{"handfuls"}, Class: ClassOther, Factor: 1, Base: "handful"},
	{Name: "stick", Spellings: []string{"sticks"}, Class: ClassOther, Factor: 1, Base: "stick"},
	{Name: "to taste", Spellings: []string{"taste"}, Class: ClassOther, Factor: 1, Base: "to taste"},
}

// index maps every lowercased spelling to its definition. The uppercase
// "T" spelling for tablespoon is only honoured through exact matching in
// caseSensitive, since lowercasing would collide with "t" (teaspoon).
var (
	index         = make(map[string]Definition)
	caseSensitive = make(map[string]Definition)
)

func init() {
	for _, def := range definitions {
		index[strings.ToLower(def.Name)] = def
		for _, s := range def.Spellings {
			if s == "T" {
				caseSensitive[s] = def
				continue
			}
			index[strings.ToLower(s)] = def
		}
	}
}

// Lookup finds the definition for a user-entered unit string
func Lookup(unitText string) (Definition, bool) {
	key := strings.TrimSuffix(strings.TrimSpace(unitText), ".")
	if def, ok := caseSensitive[key]; ok {
		return def, true
	}
	def, ok := index[strings.ToLower(key)]
	return def, ok
}

// Definitions returns a copy of the catalog
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}
