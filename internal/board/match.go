// Package board is the matching and aggregation engine: it cross-references
// the registry against the differently-keyed overview datasets and builds
// one normalized card per entity.
package board

import (
	"regexp"
	"strings"
)

// versionSuffix strips trailing version markers (" V2", " V3", trailing
// digits) for the second matching tier.
var versionSuffix = regexp.MustCompile(`(?i)(\s+v\d+|\s*\d+)$`)

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stripVersion(s string) string {
	return strings.TrimSpace(versionSuffix.ReplaceAllString(norm(s), ""))
}

// Match locates the record whose name matches query, trying three tiers in
// order and stopping at the first hit:
//
//  1. exact case-insensitive trimmed equality
//  2. equality after stripping trailing version suffixes from both sides
//  3. substring containment in either direction
//
// Tier order means a verbatim "Aave V3" entry always beats an "Aave" entry
// reached by suffix stripping.
func Match[T any](query string, records []T, name func(T) string) (T, bool) {
	var zero T
	q := norm(query)
	if q == "" {
		return zero, false
	}

	for _, r := range records {
		if norm(name(r)) == q {
			return r, true
		}
	}

	qs := stripVersion(q)
	for _, r := range records {
		if stripVersion(name(r)) == qs && qs != "" {
			return r, true
		}
	}

	for _, r := range records {
		n := norm(name(r))
		if n == "" {
			continue
		}
		if strings.Contains(n, q) || strings.Contains(q, n) {
			return r, true
		}
	}
	return zero, false
}

// Rolling7 computes a trailing 7-day rolling sum over a daily series. The
// output has one point per input point; the first six windows are partial.
func Rolling7(values []float64) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= 7 {
			sum -= values[i-7]
		}
		out[i] = sum
	}
	return out
}
