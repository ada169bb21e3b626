package coverage

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"damage-control-bot/internal/domain/entity"
)

var (
	// ErrInvalidDetection у детекции некорректная уверенность
	ErrInvalidDetection = errors.New("invalid detection")
	// ErrInvalidTerms в условиях договора отрицательная или нечисловая сумма
	ErrInvalidTerms = errors.New("invalid contract terms")
	// ErrInvalidDepth статистика глубины содержит нечисловые значения
	ErrInvalidDepth = errors.New("invalid depth stats")
)

// Пороги тяжести повреждений
const (
	severePartCount   = 3
	severeMeanDepth   = 150.0
	moderatePartCount = 2
	moderateMeanDepth = 100.0
)

// Engine принимает решение о покрытии страхового случая.
// Не хранит изменяемого состояния и безопасен для параллельных вызовов.
type Engine struct {
	coverage  *CoverageMap
	estimator *Estimator
	extractor *Extractor
	threshold float64
}

// NewEngine создаёт движок на основе справочников и порога IoU
func NewEngine(tables *Tables, iouThreshold float64) *Engine {
	return &Engine{
		coverage:  tables.Coverage,
		estimator: NewEstimator(tables),
		extractor: NewExtractor(tables),
		threshold: iouThreshold,
	}
}

// ExtractTerms извлекает условия из текста договора
func (e *Engine) ExtractTerms(text string) entity.ContractTerms {
	return e.extractor.Extract(text)
}

// Deduplicate подавляет пересекающиеся детекции с порогом движка
func (e *Engine) Deduplicate(detections []entity.Detection) []entity.Detection {
	return Deduplicate(detections, e.threshold)
}

// Evaluate извлекает условия из текста договора и принимает решение
func (e *Engine) Evaluate(detections []entity.Detection, depth *entity.DepthStats, contractText, damageType string) (*entity.Decision, error) {
	return e.Decide(detections, depth, e.extractor.Extract(contractText), damageType)
}

// Decide принимает решение по детекциям, статистике глубины и условиям договора.
// Отказ в покрытии не является ошибкой; ошибка означает некорректные входные данные.
func (e *Engine) Decide(detections []entity.Detection, depth *entity.DepthStats, terms entity.ContractTerms, damageType string) (*entity.Decision, error) {
	if err := validate(detections, depth, terms); err != nil {
		return nil, err
	}

	applicable := e.applicableGuarantees(terms, damageType)
	guaranteeActive := len(applicable) > 0

	parts := e.Deduplicate(detections)
	est := e.estimator.Estimate(parts, depth)
	cost := est.Total

	franchise := terms.Franchise.Or(0)
	limit := terms.Cap.Ptr()

	covered := guaranteeActive &&
		cost > franchise &&
		(limit == nil || cost <= *limit)

	var reimbursement float64
	if covered {
		reimbursement = cost - franchise
		if limit != nil {
			reimbursement = min(reimbursement, *limit)
		}
		reimbursement = roundTo(reimbursement, 2)
	}

	return &entity.Decision{
		Covered:              covered,
		Reason:               reason(guaranteeActive, cost, franchise, limit),
		DamageType:           damageType,
		GuaranteeActive:      guaranteeActive,
		EstimatedDamage:      cost,
		Franchise:            franchise,
		Cap:                  limit,
		Reimbursement:        reimbursement,
		OutOfPocket:          roundTo(cost-reimbursement, 2),
		Severity:             assessSeverity(len(parts), depth),
		DetectedParts:        len(parts),
		ApplicableGuarantees: applicable,
		Breakdown:            est.Breakdown,
		DepthFallback:        est.DepthFallback,
	}, nil
}

// applicableGuarantees возвращает активные гарантии, покрывающие тип случая.
// Гарантия third_party ничего не покрывает: она касается ущерба третьим лицам.
func (e *Engine) applicableGuarantees(terms entity.ContractTerms, damageType string) []entity.Guarantee {
	applicable := make([]entity.Guarantee, 0)
	for _, g := range terms.ActiveGuarantees() {
		if e.coverage.Covers(g, damageType) {
			applicable = append(applicable, g)
		}
	}
	return applicable
}

// assessSeverity: сначала проверяется severe, затем moderate
func assessSeverity(partCount int, depth *entity.DepthStats) entity.Severity {
	var meanDepth float64
	if depth != nil {
		meanDepth = depth.Mean
	}

	switch {
	case partCount >= severePartCount || meanDepth > severeMeanDepth:
		return entity.SeveritySevere
	case partCount >= moderatePartCount || meanDepth > moderateMeanDepth:
		return entity.SeverityModerate
	default:
		return entity.SeverityMinor
	}
}

// reason объясняет решение по первому сработавшему условию
func reason(guaranteeActive bool, cost, franchise float64, limit *float64) string {
	switch {
	case !guaranteeActive:
		return "Тип страхового случая не покрывается активными гарантиями договора"
	case cost <= franchise:
		return fmt.Sprintf("Оценка ущерба (%s €) не превышает франшизу (%s €)", formatAmount(cost), formatAmount(franchise))
	case limit != nil && cost > *limit:
		return fmt.Sprintf("Оценка ущерба (%s €) превышает лимит возмещения (%s €)", formatAmount(cost), formatAmount(*limit))
	default:
		return "Страховой случай покрывается договором"
	}
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func validate(detections []entity.Detection, depth *entity.DepthStats, terms entity.ContractTerms) error {
	for i, d := range detections {
		if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
			return fmt.Errorf("%w: detection %d (%s) confidence %v", ErrInvalidDetection, i, d.Label, d.Confidence)
		}
	}

	if depth != nil && slices.ContainsFunc([]float64{depth.Min, depth.Max, depth.Mean, depth.Std}, notFinite) {
		return fmt.Errorf("%w: %+v", ErrInvalidDepth, *depth)
	}

	for name, amount := range map[string]entity.Amount{"franchise": terms.Franchise, "cap": terms.Cap} {
		if v := amount.Ptr(); v != nil && (notFinite(*v) || *v < 0) {
			return fmt.Errorf("%w: %s %v", ErrInvalidTerms, name, *v)
		}
	}
	return nil
}

func notFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
