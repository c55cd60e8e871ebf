package model

import "strings"

// Categories is the ordered, duplicate-free set of category labels.
// Order is insertion order and only matters for display.
type Categories []string

// NewCategories trims, drops empties and de-duplicates labels, keeping
// the first occurrence.
func NewCategories(labels []string) Categories {
	out := make(Categories, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func (c Categories) Contains(name string) bool {
	for _, l := range c {
		if l == name {
			return true
		}
	}
	return false
}

// With returns c plus name appended, or c unchanged when name is empty or present.
func (c Categories) With(name string) Categories {
	name = strings.TrimSpace(name)
	if name == "" || c.Contains(name) {
		return c
	}
	out := make(Categories, len(c), len(c)+1)
	copy(out, c)
	return append(out, name)
}

// Without returns c minus name.
func (c Categories) Without(name string) Categories {
	out := make(Categories, 0, len(c))
	for _, l := range c {
		if l != name {
			out = append(out, l)
		}
	}
	return out
}

func (c Categories) Clone() Categories {
	out := make(Categories, len(c))
	copy(out, c)
	return out
}
