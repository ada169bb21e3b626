package entity

// Severity тяжесть повреждений
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// CostItem строка расчёта стоимости по одной детали
type CostItem struct {
	Part          string  `json:"part"`
	Confidence    float64 `json:"confidence"` // проценты, округление до 0.1
	BaseCost      float64 `json:"base_cost"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Decision итог проверки страхового случая.
// Создаётся заново на каждый запрос.
type Decision struct {
	Covered              bool        `json:"covered"`
	Reason               string      `json:"reason"`
	DamageType           string      `json:"damage_type"`
	GuaranteeActive      bool        `json:"guarantee_active"`
	EstimatedDamage      float64     `json:"estimated_damage"`
	Franchise            float64     `json:"franchise"`
	Cap                  *float64    `json:"cap"`
	Reimbursement        float64     `json:"reimbursement"`
	OutOfPocket          float64     `json:"out_of_pocket"`
	Severity             Severity    `json:"severity"`
	DetectedParts        int         `json:"detected_parts"`
	ApplicableGuarantees []Guarantee `json:"applicable_guarantees"`
	Breakdown            []CostItem  `json:"breakdown"`
	DepthFallback        bool        `json:"depth_fallback"`
}
