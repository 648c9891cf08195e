package telemetry

import (
	"sort"
	"strings"
)

// Series maps a stable name to a full history sequence. Every stepped
// component exposes its histories this way so drivers and renderers can read
// them without knowing the component's concrete type.
type Series map[string][]float64

// Put stores a copy of values under key.
func (s Series) Put(key string, values []float64) {
	s[key] = append([]float64(nil), values...)
}

// PutBools stores a boolean history as 0/1 values.
func (s Series) PutBools(key string, values []bool) {
	out := make([]float64, len(values))
	for i, v := range values {
		if v {
			out[i] = 1
		}
	}
	s[key] = out
}

// Merge copies every entry of other into s under prefix + "/" + key.
func (s Series) Merge(prefix string, other Series) {
	for k, v := range other {
		s[Key(prefix, k)] = v
	}
}

// Keys returns the series names in sorted order.
func (s Series) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Key joins name parts with "/", skipping empty parts.
func Key(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "/")
}
