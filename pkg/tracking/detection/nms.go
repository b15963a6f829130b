package detection

import "sort"

// NMS runs greedy, class-agnostic non-maximum suppression and returns the kept indices in
// descending confidence order. Equal confidences keep their input order. A box is dropped
// when its IoU with an already kept box is at or above nmsThresh. Scores at or below
// scoreThresh are ignored.
func NMS(boxes []Box, scores []float32, scoreThresh, nmsThresh float32) []int {
	order := make([]int, 0, len(boxes))
	for i := range boxes {
		if i < len(scores) && scores[i] > scoreThresh {
			order = append(order, i)
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	limit := float64(nmsThresh)
	var keep []int
	for _, idx := range order {
		suppressed := false
		for _, k := range keep {
			if boxes[idx].IoU(boxes[k]) >= limit {
				suppressed = true
				break
			}
		}
		if !suppressed {
			keep = append(keep, idx)
		}
	}
	return keep
}
