package tsp

import "math"

// heldKarp solves the instance exactly. City 0 is fixed as the start; the
// state (mask, j) stores the cheapest path that leaves city 0, visits exactly
// the cities of mask (bit j-1 stands for city j) and ends at city j.
//
// Ties keep the first candidate in ascending city order, so the result is
// deterministic.
func heldKarp(dist [][]float64) []int {
	n := len(dist)
	m := n - 1
	full := 1<<m - 1

	cost := make([]float64, (full+1)*m)
	parent := make([]int8, (full+1)*m)
	for i := range cost {
		cost[i] = math.Inf(1)
		parent[i] = -1
	}
	at := func(mask, j int) int { return mask*m + j }

	for j := 0; j < m; j++ {
		cost[at(1<<j, j)] = dist[0][j+1]
	}

	for mask := 1; mask <= full; mask++ {
		for j := 0; j < m; j++ {
			if mask&(1<<j) == 0 {
				continue
			}
			base := cost[at(mask, j)]
			if math.IsInf(base, 1) {
				continue
			}
			for k := 0; k < m; k++ {
				if mask&(1<<k) != 0 {
					continue
				}
				next := mask | 1<<k
				if c := base + dist[j+1][k+1]; c < cost[at(next, k)] {
					cost[at(next, k)] = c
					parent[at(next, k)] = int8(j)
				}
			}
		}
	}

	last := 0
	best := math.Inf(1)
	for j := 0; j < m; j++ {
		if c := cost[at(full, j)] + dist[j+1][0]; c < best {
			best = c
			last = j
		}
	}

	tour := make([]int, n)
	mask := full
	for pos := n - 1; pos >= 1; pos-- {
		tour[pos] = last + 1
		prev := int(parent[at(mask, last)])
		mask &^= 1 << last
		last = prev
	}
	tour[0] = 0
	return tour
}
