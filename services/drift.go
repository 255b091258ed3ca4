package services

import (
	"math"
	"sort"
)

// Frequencies returns the normalised share of each non-empty value. Values
// are compared as stored, so "Brooklyn " and "Brooklyn" are distinct
// categories. The shares sum to 1; an input with no non-empty values yields
// an empty map.
func Frequencies(values []string) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
		total++
	}

	freq := make(map[string]float64, len(counts))
	for k, n := range counts {
		freq[k] = float64(n) / float64(total)
	}
	return freq
}

// Align re-indexes two distributions onto the sorted union of their
// categories. A category missing from one side gets probability 0 there.
func Align(p, q map[string]float64) (categories []string, pv, qv []float64) {
	seen := make(map[string]struct{}, len(p)+len(q))
	for k := range p {
		seen[k] = struct{}{}
	}
	for k := range q {
		seen[k] = struct{}{}
	}
	categories = make([]string, 0, len(seen))
	for k := range seen {
		categories = append(categories, k)
	}
	sort.Strings(categories)

	pv = make([]float64, len(categories))
	qv = make([]float64, len(categories))
	for i, c := range categories {
		pv[i] = p[c]
		qv[i] = q[c]
	}
	return categories, pv, qv
}

// KLDivergence computes D(p || q) in bits over aligned distributions. Terms
// with p_i = 0 contribute nothing; p_i > 0 with q_i = 0 makes the result +Inf.
func KLDivergence(p, q []float64) float64 {
	var d float64
	for i := range p {
		if p[i] <= 0 {
			continue
		}
		if i >= len(q) || q[i] <= 0 {
			return math.Inf(1)
		}
		d += p[i] * math.Log2(p[i]/q[i])
	}
	return d
}
