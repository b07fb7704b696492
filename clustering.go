package pdftables

import (
	"math"
	"sort"
)

// ClusterList sorts float64 values and groups them into clusters where
// each consecutive pair is within tolerance, matching pdfplumber's
// cluster_list behaviour. Repeated values are kept in their cluster; a
// zero tolerance or fewer than two values yields one cluster per value.
func ClusterList(values []float64, tolerance float64) [][]float64 {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if tolerance == 0 || len(sorted) < 2 {
		clusters := make([][]float64, len(sorted))
		for i, v := range sorted {
			clusters[i] = []float64{v}
		}
		return clusters
	}

	var clusters [][]float64
	current := []float64{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-current[len(current)-1] <= tolerance {
			current = append(current, sorted[i])
		} else {
			clusters = append(clusters, current)
			current = []float64{sorted[i]}
		}
	}
	clusters = append(clusters, current)
	return clusters
}

// ClusterIndicesBy clusters indices 0..n-1 of a slice by a key function,
// using ClusterList on the keys and mapping clusters back to the original
// indices via bit-exact key membership.
func ClusterIndicesBy(n int, key func(i int) float64, tolerance float64) [][]int {
	if n == 0 {
		return nil
	}

	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = key(i)
	}
	clusters := ClusterList(values, tolerance)

	// bit pattern -> list of indices sharing that exact key value.
	byBits := make(map[uint64][]int)
	for i := 0; i < n; i++ {
		bits := math.Float64bits(values[i])
		byBits[bits] = append(byBits[bits], i)
	}
	consumed := make(map[uint64]int)

	result := make([][]int, 0, len(clusters))
	for _, cluster := range clusters {
		var indices []int
		for _, v := range cluster {
			bits := math.Float64bits(v)
			pool := byBits[bits]
			start := consumed[bits]
			if start < len(pool) {
				indices = append(indices, pool[start])
				consumed[bits] = start + 1
			}
		}
		result = append(result, indices)
	}
	return result
}

// ClusterWordsByTop groups words into rows by the top coordinate of their
// bounding box, within tolerance.
func ClusterWordsByTop(words []EnrichedWord, tolerance float64) [][]EnrichedWord {
	clusters := ClusterIndicesBy(len(words), func(i int) float64 { return words[i].Box.Y0 }, tolerance)
	result := make([][]EnrichedWord, 0, len(clusters))
	for _, indices := range clusters {
		group := make([]EnrichedWord, 0, len(indices))
		for _, i := range indices {
			group = append(group, words[i])
		}
		result = append(result, group)
	}
	return result
}
