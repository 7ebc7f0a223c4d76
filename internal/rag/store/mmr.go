package store

import "math"

// maximalMarginalRelevance greedily selects up to k candidate indices,
// scoring each remaining candidate as
// lambda*sim(query, c) - (1-lambda)*max(sim(c, selected)).
// Candidates are assumed ordered by relevance, so the ranking is stable for
// degenerate inputs (empty vectors, k >= len(candidates)).
func maximalMarginalRelevance(query []float32, candidates [][]float32, lambda float64, k int) []int {
	if k >= len(candidates) {
		out := make([]int, len(candidates))
		for i := range out {
			out[i] = i
		}
		return out
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = cosineSimilarity(query, c)
	}

	selected := make([]int, 0, k)
	remaining := make(map[int]bool, len(candidates))
	for i := range candidates {
		remaining[i] = true
	}

	for len(selected) < k && len(remaining) > 0 {
		best := -1
		bestScore := math.Inf(-1)
		for i := 0; i < len(candidates); i++ {
			if !remaining[i] {
				continue
			}
			// The true max over the selected set; it can be negative, so
			// anti-correlated candidates get a redundancy bonus.
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = math.Inf(-1)
				for _, j := range selected {
					if sim := cosineSimilarity(candidates[i], candidates[j]); sim > redundancy {
						redundancy = sim
					}
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		selected = append(selected, best)
		delete(remaining, best)
	}
	return selected
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
