package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBBoxIoU_Identical(t *testing.T) {
	b := BBox{X1: 10, Y1: 10, X2: 50, Y2: 30}
	require.InDelta(t, 1.0, b.IoU(b), 1e-9)
}

func TestBBoxIoU_Disjoint(t *testing.T) {
	a := BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := BBox{X1: 20, Y1: 20, X2: 30, Y2: 30}
	require.Equal(t, 0.0, a.IoU(b))
	require.Equal(t, 0.0, b.IoU(a))
}

func TestBBoxIoU_Contained(t *testing.T) {
	outer := BBox{X1: 0, Y1: 0, X2: 100, Y2: 100}
	inner := BBox{X1: 25, Y1: 25, X2: 75, Y2: 75}
	// пересечение = площадь внутренней, объединение = площадь внешней
	require.InDelta(t, 2500.0/10000.0, outer.IoU(inner), 1e-9)
}

func TestBBoxIoU_PartialOverlap(t *testing.T) {
	a := BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := BBox{X1: 5, Y1: 0, X2: 15, Y2: 10}
	require.InDelta(t, 50.0/150.0, a.IoU(b), 1e-9)
}

func TestBBoxIoU_Degenerate(t *testing.T) {
	point := BBox{X1: 5, Y1: 5, X2: 5, Y2: 5}
	require.Equal(t, 0.0, point.IoU(point))

	inverted := BBox{X1: 10, Y1: 10, X2: 0, Y2: 0}
	require.Equal(t, 0.0, inverted.Area())
	require.Equal(t, 0.0, inverted.IoU(BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}))
}

func TestBBoxCenter(t *testing.T) {
	b := BBox{X1: 10, Y1: 20, X2: 18, Y2: 26}
	x, y := b.Center()
	require.Equal(t, 14.0, x)
	require.Equal(t, 23.0, y)
}
