package tsp

import "vrpdfd/pkg/domain"

// twoOptTour builds an initial tour (the hint, or farthest insertion) and
// improves it with 2-opt until no improving exchange is left.
func twoOptTour(dist [][]float64, hint []int) []int {
	var tour []int
	if hint != nil {
		tour = append([]int(nil), hint...)
	} else {
		tour = farthestInsertion(dist)
	}
	twoOpt(dist, tour)
	return tour
}

// farthestInsertion starts from city 0 and the city farthest from it, then
// repeatedly inserts the city farthest from the current tour at the position
// that lengthens the tour the least.
func farthestInsertion(dist [][]float64) []int {
	n := len(dist)
	inTour := make([]bool, n)
	gap := make([]float64, n)

	far := 1
	for j := 2; j < n; j++ {
		if dist[0][j] > dist[0][far] {
			far = j
		}
	}
	tour := make([]int, 0, n)
	tour = append(tour, 0, far)
	inTour[0], inTour[far] = true, true
	for j := 0; j < n; j++ {
		gap[j] = min(dist[0][j], dist[far][j])
	}

	for len(tour) < n {
		pick := -1
		for j := 0; j < n; j++ {
			if !inTour[j] && (pick == -1 || gap[j] > gap[pick]) {
				pick = j
			}
		}

		bestPos := 0
		bestDelta := domain.Infinity
		for i := range tour {
			a, b := tour[i], tour[(i+1)%len(tour)]
			if d := dist[a][pick] + dist[pick][b] - dist[a][b]; d < bestDelta {
				bestDelta = d
				bestPos = i + 1
			}
		}
		tour = append(tour, 0)
		copy(tour[bestPos+1:], tour[bestPos:])
		tour[bestPos] = pick
		inTour[pick] = true

		for j := 0; j < n; j++ {
			gap[j] = min(gap[j], dist[pick][j])
		}
	}
	return tour
}

// twoOpt applies first-improvement 2-opt moves in place: the edges (a,b) and
// (c,d) are replaced by (a,c) and (b,d) by reversing the segment b..c.
func twoOpt(dist [][]float64, tour []int) {
	n := len(tour)
	if n < 4 {
		return
	}
	for improved := true; improved; {
		improved = false
		for i := 0; i < n-2; i++ {
			for j := i + 2; j < n; j++ {
				if i == 0 && j == n-1 {
					continue
				}
				a, b := tour[i], tour[i+1]
				c, d := tour[j], tour[(j+1)%n]
				if dist[a][c]+dist[b][d]-dist[a][b]-dist[c][d] < -domain.Epsilon {
					reverse(tour[i+1 : j+1])
					improved = true
				}
			}
		}
	}
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
