package coverage

import (
	"math"

	"damage-control-bot/internal/domain/entity"
)

// Коэффициенты оценки ущерба по карте глубины
const (
	depthMeanFactor = 10.0
	depthMaxFactor  = 5.0
)

// Estimate результат оценки ущерба
type Estimate struct {
	Total         float64
	Breakdown     []entity.CostItem
	DepthFallback bool // оценка получена по карте глубины
}

// Estimator переводит детали в денежную оценку ущерба
type Estimator struct {
	costs    *CostTable
	minDepth float64
}

// NewEstimator создаёт оценщик на основе справочников
func NewEstimator(tables *Tables) *Estimator {
	return &Estimator{
		costs:    tables.Costs,
		minDepth: tables.MinDepthEstimate,
	}
}

// Estimate суммирует стоимость деталей с поправкой на уверенность детектора.
// Если детали не дали суммы, а статистика глубины есть, используется
// mean*10 + max*5, но не меньше минимальной оценки.
func (e *Estimator) Estimate(detections []entity.Detection, depth *entity.DepthStats) Estimate {
	est := Estimate{Breakdown: make([]entity.CostItem, 0, len(detections))}

	var total float64
	for _, d := range detections {
		base := e.costs.Lookup(d.Label)
		adjusted := base * d.Confidence
		total += adjusted

		est.Breakdown = append(est.Breakdown, entity.CostItem{
			Part:          d.Label,
			Confidence:    roundTo(d.Confidence*100, 1),
			BaseCost:      base,
			EstimatedCost: roundTo(adjusted, 2),
		})
	}

	if total == 0 && depth != nil {
		total = max(depth.Mean*depthMeanFactor+depth.Max*depthMaxFactor, e.minDepth)
		est.DepthFallback = true
	}

	est.Total = roundTo(total, 2)
	return est
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}
