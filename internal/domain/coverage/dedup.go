package coverage

import (
	"slices"

	"damage-control-bot/internal/domain/entity"
)

// DefaultIoUThreshold порог IoU, начиная с которого рамки считаются одной деталью
const DefaultIoUThreshold = 0.5

// Deduplicate подавляет пересекающиеся детекции (NMS): из каждой группы рамок
// с IoU >= threshold остаётся детекция с наибольшей уверенностью.
// Метки не учитываются. Результат идёт в исходном порядке входа.
func Deduplicate(detections []entity.Detection, threshold float64) []entity.Detection {
	if len(detections) == 0 {
		return nil
	}

	order := make([]int, len(detections))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ca, cb := detections[a].Confidence, detections[b].Confidence
		switch {
		case ca > cb:
			return -1
		case ca < cb:
			return 1
		}
		return 0
	})

	kept := make([]int, 0, len(order))
	for len(order) > 0 {
		best := order[0]
		kept = append(kept, best)

		rest := order[:0]
		for _, idx := range order[1:] {
			if detections[best].Box.IoU(detections[idx].Box) < threshold {
				rest = append(rest, idx)
			}
		}
		order = rest
	}

	slices.Sort(kept)
	out := make([]entity.Detection, len(kept))
	for i, idx := range kept {
		out[i] = detections[idx]
	}
	return out
}
