package entity

// BBox прямоугольник детекции в пиксельных координатах (x1<x2, y1<y2)
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width возвращает ширину, для вырожденной рамки 0
func (b BBox) Width() float64 {
	return max(0, b.X2-b.X1)
}

// Height возвращает высоту, для вырожденной рамки 0
func (b BBox) Height() float64 {
	return max(0, b.Y2-b.Y1)
}

// Area возвращает площадь рамки
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// Center возвращает координаты центра рамки
func (b BBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// IoU считает отношение площади пересечения к площади объединения.
// Если площадь объединения нулевая, возвращает 0.
func (b BBox) IoU(other BBox) float64 {
	inter := BBox{
		X1: max(b.X1, other.X1),
		Y1: max(b.Y1, other.Y1),
		X2: min(b.X2, other.X2),
		Y2: min(b.Y2, other.Y2),
	}.Area()

	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection деталь автомобиля, найденная внешним детектором
type Detection struct {
	Label      string  `json:"label"`      // название детали ("bumper", "front door")
	Confidence float64 `json:"confidence"` // уверенность детектора в [0,1]
	Box        BBox    `json:"bbox"`
}

// DepthStats статистика карты глубины изображения
type DepthStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}
