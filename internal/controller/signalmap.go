package controller

import (
	"fmt"
	"sort"
)

// SignalMap maps a raw message signature ("B0 14 7F") to a signal label.
// Several signatures may share a label.
type SignalMap map[string]string

// Lookup returns the label for a signature.
func (m SignalMap) Lookup(signature string) (string, bool) {
	label, ok := m[signature]
	return label, ok
}

// HasLabel reports whether any signature maps to label.
func (m SignalMap) HasLabel(label string) bool {
	for _, l := range m {
		if l == label {
			return true
		}
	}
	return false
}

// Labels returns the distinct labels, sorted.
func (m SignalMap) Labels() []string {
	seen := make(map[string]bool, len(m))
	labels := make([]string, 0, len(m))
	for _, l := range m {
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	return labels
}

// NextLabel returns "signal{N}" with N starting at the map size and
// increasing until the label is unused.
func (m SignalMap) NextLabel() string {
	for n := len(m); ; n++ {
		label := fmt.Sprintf("signal%d", n)
		if !m.HasLabel(label) {
			return label
		}
	}
}

// Clone returns a copy. A nil map clones to an empty one.
func (m SignalMap) Clone() SignalMap {
	out := make(SignalMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
