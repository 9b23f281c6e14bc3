package model

import "sort"

// Coloring maps region IDs to color labels. It may be partial.
type Coloring map[string]string

// Clone returns an independent copy. A nil coloring clones to an empty,
// non-nil map so callers can always range and index safely.
func (c Coloring) Clone() Coloring {
	out := make(Coloring, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Equal reports whether both colorings hold exactly the same assignments.
func (c Coloring) Equal(other Coloring) bool {
	if len(c) != len(other) {
		return false
	}
	for k, v := range c {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Regions returns the colored region IDs in sorted order.
func (c Coloring) Regions() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Labels returns the distinct color labels in use, sorted.
func (c Coloring) Labels() []string {
	seen := make(map[string]struct{}, len(c))
	out := make([]string, 0, len(c))
	for _, v := range c {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
