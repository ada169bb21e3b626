package coverage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"damage-control-bot/internal/domain/entity"
)

func TestDeduplicate_KeepsHighestConfidence(t *testing.T) {
	// две рамки 100x100, сдвиг на 5 пикселей по X: IoU = 9500/10500 ≈ 0.905
	low := entity.Detection{Label: "bumper", Confidence: 0.6, Box: entity.BBox{X1: 0, Y1: 0, X2: 100, Y2: 100}}
	high := entity.Detection{Label: "bumper", Confidence: 0.9, Box: entity.BBox{X1: 5, Y1: 0, X2: 105, Y2: 100}}
	require.Greater(t, low.Box.IoU(high.Box), 0.9)

	out := Deduplicate([]entity.Detection{low, high}, DefaultIoUThreshold)
	require.Equal(t, []entity.Detection{high}, out)
}

func TestDeduplicate_IgnoresLabels(t *testing.T) {
	door := entity.Detection{Label: "door", Confidence: 0.7, Box: entity.BBox{X1: 0, Y1: 0, X2: 50, Y2: 50}}
	window := entity.Detection{Label: "window", Confidence: 0.4, Box: entity.BBox{X1: 0, Y1: 0, X2: 50, Y2: 50}}

	out := Deduplicate([]entity.Detection{window, door}, DefaultIoUThreshold)
	require.Equal(t, []entity.Detection{door}, out)
}

func TestDeduplicate_PreservesInputOrder(t *testing.T) {
	dets := []entity.Detection{
		{Label: "hood", Confidence: 0.3, Box: entity.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		{Label: "wheel", Confidence: 0.9, Box: entity.BBox{X1: 100, Y1: 100, X2: 120, Y2: 120}},
		{Label: "mirror", Confidence: 0.5, Box: entity.BBox{X1: 200, Y1: 0, X2: 210, Y2: 10}},
	}

	out := Deduplicate(dets, DefaultIoUThreshold)
	require.Equal(t, dets, out)
}

func TestDeduplicate_ThresholdIsInclusive(t *testing.T) {
	a := entity.Detection{Label: "door", Confidence: 0.8, Box: entity.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	b := entity.Detection{Label: "door", Confidence: 0.7, Box: entity.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	iou := a.Box.IoU(b.Box)

	require.Len(t, Deduplicate([]entity.Detection{a, b}, iou), 1)
}

func TestDeduplicate_TiesKeepFirst(t *testing.T) {
	first := entity.Detection{Label: "first", Confidence: 0.5, Box: entity.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	second := entity.Detection{Label: "second", Confidence: 0.5, Box: entity.BBox{X1: 1, Y1: 0, X2: 11, Y2: 10}}

	out := Deduplicate([]entity.Detection{first, second}, DefaultIoUThreshold)
	require.Equal(t, []entity.Detection{first}, out)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	dets := []entity.Detection{
		{Label: "bumper", Confidence: 0.8, Box: entity.BBox{X1: 0, Y1: 0, X2: 100, Y2: 50}},
		{Label: "bumper", Confidence: 0.6, Box: entity.BBox{X1: 10, Y1: 0, X2: 110, Y2: 50}},
		{Label: "headlight", Confidence: 0.7, Box: entity.BBox{X1: 80, Y1: 0, X2: 140, Y2: 40}},
		{Label: "hood", Confidence: 0.4, Box: entity.BBox{X1: 0, Y1: 60, X2: 100, Y2: 120}},
		{Label: "hood", Confidence: 0.9, Box: entity.BBox{X1: 2, Y1: 62, X2: 98, Y2: 118}},
		{Label: "point", Confidence: 0.2, Box: entity.BBox{X1: 5, Y1: 5, X2: 5, Y2: 5}},
	}

	once := Deduplicate(dets, DefaultIoUThreshold)
	twice := Deduplicate(once, DefaultIoUThreshold)
	require.Equal(t, once, twice)

	for i := range once {
		for j := i + 1; j < len(once); j++ {
			require.Less(t, once[i].Box.IoU(once[j].Box), DefaultIoUThreshold)
		}
	}
}

func TestDeduplicate_Empty(t *testing.T) {
	require.Empty(t, Deduplicate(nil, DefaultIoUThreshold))
}
