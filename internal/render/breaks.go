package render

import "sort"

// Breaks returns choropleth class edges from observed zone areas: the
// sorted distinct values, plus one edge above the maximum so the largest
// value falls inside the last class. The binning is data-driven and
// non-uniform; equal areas share a class.
func Breaks(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	uniq := make([]float64, 0, len(values))
	seen := make(map[float64]bool, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			uniq = append(uniq, v)
		}
	}
	sort.Float64s(uniq)
	return append(uniq, uniq[len(uniq)-1]+1)
}

// BinIndex returns the class index of v against the given edges: the last
// edge that does not exceed v. Values below every edge map to class 0.
func BinIndex(v float64, breaks []float64) int {
	idx := sort.SearchFloat64s(breaks, v)
	if idx < len(breaks) && breaks[idx] == v {
		return idx
	}
	if idx == 0 {
		return 0
	}
	return idx - 1
}
