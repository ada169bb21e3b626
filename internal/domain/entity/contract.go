package entity

import (
	"maps"
	"slices"
)

// Guarantee название гарантии договора
type Guarantee string

const (
	GuaranteeAllRisks           Guarantee = "all_risks"           // tous risques
	GuaranteeThirdParty         Guarantee = "third_party"         // responsabilité civile
	GuaranteeTheft              Guarantee = "theft"               // vol
	GuaranteeFire               Guarantee = "fire"                // incendie
	GuaranteeGlassBreakage      Guarantee = "glass_breakage"      // bris de glace
	GuaranteeRoadsideAssistance Guarantee = "roadside_assistance" // assistance, dépannage
)

// Amount денежная сумма, найденная (или нет) в тексте договора
type Amount struct {
	Found bool     `json:"found"`
	Value *float64 `json:"amount"`
}

// FoundAmount создаёт найденную сумму
func FoundAmount(v float64) Amount {
	return Amount{Found: true, Value: &v}
}

// Or возвращает значение суммы или def, если сумма не найдена
func (a Amount) Or(def float64) float64 {
	if !a.Found || a.Value == nil {
		return def
	}
	return *a.Value
}

// Ptr возвращает указатель на значение или nil, если сумма не найдена
func (a Amount) Ptr() *float64 {
	if !a.Found || a.Value == nil {
		return nil
	}
	v := *a.Value
	return &v
}

// ContractTerms условия договора: франшиза, лимит и активные гарантии
type ContractTerms struct {
	Franchise  Amount             `json:"franchise"`
	Cap        Amount             `json:"cap"`
	Guarantees map[Guarantee]bool `json:"guarantees"`
}

// ActiveGuarantees возвращает активные гарантии в алфавитном порядке
func (c ContractTerms) ActiveGuarantees() []Guarantee {
	active := make([]Guarantee, 0, len(c.Guarantees))
	for g, on := range c.Guarantees {
		if on {
			active = append(active, g)
		}
	}
	slices.Sort(active)
	return active
}

// Clone возвращает глубокую копию условий
func (c ContractTerms) Clone() ContractTerms {
	return ContractTerms{
		Franchise:  c.Franchise.clone(),
		Cap:        c.Cap.clone(),
		Guarantees: maps.Clone(c.Guarantees),
	}
}

func (a Amount) clone() Amount {
	return Amount{Found: a.Found, Value: a.Ptr()}
}
