package coverage

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"damage-control-bot/internal/domain/entity"
)

// ErrInvalidAmount числовое значение в договоре не удалось разобрать
var ErrInvalidAmount = errors.New("invalid amount")

// Шаблоны в порядке приоритета: используется первый сработавший.
var (
	franchisePatterns = compileAll(
		`franchise[:\s]+(\d+[\s,.]?\d*)\s*€`,
		`franchise[:\s]+(\d+[\s,.]?\d*)\s*euros?`,
		`montant de la franchise[:\s]+(\d+[\s,.]?\d*)\s*€`,
	)
	capPatterns = compileAll(
		`plafond[:\s]+(\d+[\s,.]?\d*)\s*€`,
		`plafond de garantie[:\s]+(\d+[\s,.]?\d*)\s*€`,
		`limite de garantie[:\s]+(\d+[\s,.]?\d*)\s*€`,
		`montant maximum[:\s]+(\d+[\s,.]?\d*)\s*€`,
		`montant maximum[:\s]+(\d+[\s,.]?\d*)\s*euros?`,
	)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return out
}

// Extractor извлекает условия договора из текста.
// Безопасен для параллельного использования.
type Extractor struct {
	rules []GuaranteeRule
}

// NewExtractor создаёт извлекатель с синонимами гарантий из справочников
func NewExtractor(tables *Tables) *Extractor {
	rules := tables.Coverage.Rules()
	for i := range rules {
		keywords := make([]string, len(rules[i].Keywords))
		for j, kw := range rules[i].Keywords {
			keywords[j] = lowerFrench(norm.NFKC.String(kw))
		}
		rules[i].Keywords = keywords
	}
	return &Extractor{rules: rules}
}

// Extract возвращает франшизу, лимит и флаги гарантий.
// Ненайденные или нечитаемые суммы помечаются как не найденные.
func (e *Extractor) Extract(text string) entity.ContractTerms {
	// NFKC сводит неразрывные пробелы и лигатуры из PDF к обычным символам
	normalized := norm.NFKC.String(text)

	return entity.ContractTerms{
		Franchise:  matchAmount(franchisePatterns, normalized),
		Cap:        matchAmount(capPatterns, normalized),
		Guarantees: e.detectGuarantees(normalized),
	}
}

// detectGuarantees ищет синонимы гарантий без учёта регистра.
// Отрицания ("vol exclu") не распознаются.
func (e *Extractor) detectGuarantees(text string) map[entity.Guarantee]bool {
	lowered := lowerFrench(text)

	found := make(map[entity.Guarantee]bool, len(e.rules))
	for _, r := range e.rules {
		active := false
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(lowered, kw) {
				active = true
				break
			}
		}
		found[r.Name] = active
	}
	return found
}

// cases.Caser хранит состояние, поэтому создаётся на каждый вызов
func lowerFrench(s string) string {
	return cases.Lower(language.French).String(s)
}

func matchAmount(patterns []*regexp.Regexp, text string) entity.Amount {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := ParseAmount(m[1])
		if err != nil {
			return entity.Amount{}
		}
		return entity.FoundAmount(v)
	}
	return entity.Amount{}
}

// ParseAmount разбирает сумму: пробелы как разделители тысяч удаляются,
// запятая считается десятичной точкой.
func ParseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative %q", ErrInvalidAmount, raw)
	}
	return v, nil
}
