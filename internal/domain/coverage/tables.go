package coverage

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"damage-control-bot/internal/domain/entity"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// DefaultPartCost стоимость неизвестной детали
const DefaultPartCost = 500.0

// DefaultMinDepthEstimate минимальная оценка по карте глубины
const DefaultMinDepthEstimate = 200.0

// CostTable неизменяемая таблица стоимости деталей.
// Ключи нормализованы к нижнему регистру.
type CostTable struct {
	costs    map[string]float64
	keys     []string // длинные ключи первыми, затем по алфавиту
	fallback float64
}

// NewCostTable создаёт таблицу. fallback используется для неизвестных деталей.
func NewCostTable(costs map[string]float64, fallback float64) *CostTable {
	t := &CostTable{
		costs:    make(map[string]float64, len(costs)),
		keys:     make([]string, 0, len(costs)),
		fallback: fallback,
	}
	for k, v := range costs {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if _, dup := t.costs[key]; !dup {
			t.keys = append(t.keys, key)
		}
		t.costs[key] = v
	}
	slices.SortFunc(t.keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return t
}

// Lookup возвращает базовую стоимость детали: точное совпадение без учёта
// регистра, затем первый ключ, входящий в метку или содержащий её, иначе fallback.
func (t *CostTable) Lookup(label string) float64 {
	part := strings.ToLower(strings.TrimSpace(label))
	if cost, ok := t.costs[part]; ok {
		return cost
	}
	if part != "" {
		for _, key := range t.keys {
			if strings.Contains(part, key) || strings.Contains(key, part) {
				return t.costs[key]
			}
		}
	}
	return t.fallback
}

// Fallback возвращает стоимость по умолчанию
func (t *CostTable) Fallback() float64 {
	return t.fallback
}

// Len возвращает число деталей в таблице
func (t *CostTable) Len() int {
	return len(t.keys)
}

// GuaranteeRule описание одной гарантии: покрываемые типы случаев и синонимы в тексте
type GuaranteeRule struct {
	Name        entity.Guarantee `yaml:"name"`
	CoversAll   bool             `yaml:"covers_all"`
	DamageTypes []string         `yaml:"damage_types"`
	Keywords    []string         `yaml:"keywords"`
}

// covers сообщает, покрывает ли гарантия тип случая
func (r GuaranteeRule) covers(damageType string) bool {
	return r.CoversAll || slices.Contains(r.DamageTypes, damageType)
}

// CoverageMap неизменяемое соответствие гарантий и типов случаев
type CoverageMap struct {
	rules  []GuaranteeRule
	byName map[entity.Guarantee]GuaranteeRule
}

// NewCoverageMap создаёт карту покрытия. Порядок правил сохраняется.
func NewCoverageMap(rules []GuaranteeRule) (*CoverageMap, error) {
	m := &CoverageMap{
		rules:  make([]GuaranteeRule, 0, len(rules)),
		byName: make(map[entity.Guarantee]GuaranteeRule, len(rules)),
	}
	for _, r := range rules {
		if r.Name == "" {
			return nil, errors.New("guarantee rule without name")
		}
		if _, dup := m.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate guarantee rule: %s", r.Name)
		}
		r.DamageTypes = slices.Clone(r.DamageTypes)
		r.Keywords = slices.Clone(r.Keywords)
		m.rules = append(m.rules, r)
		m.byName[r.Name] = r
	}
	return m, nil
}

// Covers сообщает, покрывает ли гарантия g тип случая damageType.
// Неизвестная гарантия ничего не покрывает.
func (m *CoverageMap) Covers(g entity.Guarantee, damageType string) bool {
	r, ok := m.byName[g]
	return ok && r.covers(damageType)
}

// Rules возвращает копию правил в исходном порядке
func (m *CoverageMap) Rules() []GuaranteeRule {
	return slices.Clone(m.rules)
}

// Tables статические справочники ядра, загружаются один раз при старте
type Tables struct {
	Costs            *CostTable
	Coverage         *CoverageMap
	MinDepthEstimate float64
}

type tablesFile struct {
	DefaultPartCost  *float64           `yaml:"default_part_cost"`
	MinDepthEstimate *float64           `yaml:"min_depth_estimate"`
	Parts            map[string]float64 `yaml:"parts"`
	Guarantees       []GuaranteeRule    `yaml:"guarantees"`
}

// ParseTables разбирает YAML со справочниками
func ParseTables(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	if len(f.Parts) == 0 {
		return nil, errors.New("parse tables: no parts defined")
	}
	for part, cost := range f.Parts {
		if cost < 0 {
			return nil, fmt.Errorf("parse tables: negative cost for %q", part)
		}
	}

	fallback := DefaultPartCost
	if f.DefaultPartCost != nil {
		fallback = *f.DefaultPartCost
	}
	minDepth := DefaultMinDepthEstimate
	if f.MinDepthEstimate != nil {
		minDepth = *f.MinDepthEstimate
	}

	coverage, err := NewCoverageMap(f.Guarantees)
	if err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}

	return &Tables{
		Costs:            NewCostTable(f.Parts, fallback),
		Coverage:         coverage,
		MinDepthEstimate: minDepth,
	}, nil
}

// LoadTables читает справочники из файла; пустой путь означает встроенные значения
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return ParseTables(data)
}

// DefaultTables возвращает встроенные справочники
func DefaultTables() (*Tables, error) {
	return ParseTables(defaultTablesYAML)
}
