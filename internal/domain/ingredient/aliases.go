package ingredient

// Aliases is an ordered set of normalized alternative names. Insertion
// order is preserved and duplicates are dropped on the way in.
type Aliases []string

// NewAliases normalizes and de-duplicates raw alias strings
func NewAliases(raw ...string) Aliases {
	var out Aliases
	for _, a := range raw {
		out = out.Add(a)
	}
	return out
}

// Add appends alias unless its normalized form is empty or already present
func (a Aliases) Add(alias string) Aliases {
	n := NormalizeName(alias)
	if n == "" || a.Contains(n) {
		return a
	}
	return append(a, n)
}

// Contains reports whether the normalized alias is present
func (a Aliases) Contains(normalized string) bool {
	for _, existing := range a {
		if existing == normalized {
			return true
		}
	}
	return false
}

// Without returns a copy minus the given normalized value
func (a Aliases) Without(normalized string) Aliases {
	out := make(Aliases, 0, len(a))
	for _, existing := range a {
		if existing != normalized {
			out = append(out, existing)
		}
	}
	return out
}

// Strings returns a copy as a plain slice
func (a Aliases) Strings() []string {
	out := make([]string, len(a))
	copy(out, a)
	return out
}
