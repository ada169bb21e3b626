package telegram

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"damage-control-bot/internal/domain/entity"
)

// damageTypes варианты на клавиатуре выбора типа случая, в порядке показа
var damageTypes = []struct {
	Code  string
	Title string
}{
	{"accident", "🚗 ДТП"},
	{"collision", "💥 Столкновение"},
	{"impact", "🔨 Удар"},
	{"vandalism", "🧨 Вандализм"},
	{"theft", "🕵️ Кража"},
	{"attempted_theft", "🔓 Попытка кражи"},
	{"fire", "🔥 Пожар"},
	{"explosion", "💣 Взрыв"},
	{"glass_breakage", "🪟 Бой стекла"},
	{"windshield", "🛡 Лобовое стекло"},
	{"window", "🚪 Боковое стекло"},
}

var guaranteeTitles = map[entity.Guarantee]string{
	entity.GuaranteeAllRisks:           "все риски",
	entity.GuaranteeThirdParty:         "гражданская ответственность",
	entity.GuaranteeTheft:              "кража",
	entity.GuaranteeFire:               "пожар",
	entity.GuaranteeGlassBreakage:      "бой стекла",
	entity.GuaranteeRoadsideAssistance: "помощь на дороге",
}

var severityTitles = map[entity.Severity]string{
	entity.SeverityMinor:    "незначительные",
	entity.SeverityModerate: "средние",
	entity.SeveritySevere:   "серьёзные",
}

var printer = message.NewPrinter(language.Russian)

func damageTypeTitle(code string) string {
	for _, dt := range damageTypes {
		if dt.Code == code {
			return dt.Title
		}
	}
	return code
}

func guaranteeTitle(g entity.Guarantee) string {
	if t, ok := guaranteeTitles[g]; ok {
		return t
	}
	return string(g)
}

func formatMoney(v float64) string {
	return printer.Sprintf("%.2f €", v)
}

func formatGuarantees(gs []entity.Guarantee) string {
	if len(gs) == 0 {
		return "не найдены"
	}
	titles := make([]string, 0, len(gs))
	for _, g := range gs {
		titles = append(titles, guaranteeTitle(g))
	}
	return strings.Join(titles, ", ")
}

// formatTerms краткая сводка условий договора
func formatTerms(source string, terms entity.ContractTerms) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📄 Договор: %s\n\n", source)

	if terms.Franchise.Found {
		fmt.Fprintf(&sb, "Франшиза: %s\n", formatMoney(terms.Franchise.Or(0)))
	} else {
		sb.WriteString("Франшиза: не указана (считаем 0 €)\n")
	}

	if terms.Cap.Found {
		fmt.Fprintf(&sb, "Лимит возмещения: %s\n", formatMoney(terms.Cap.Or(0)))
	} else {
		sb.WriteString("Лимит возмещения: не указан\n")
	}

	fmt.Fprintf(&sb, "Гарантии: %s", formatGuarantees(terms.ActiveGuarantees()))
	return sb.String()
}

// formatDecision текст решения по заявке
func formatDecision(record *entity.ClaimRecord) string {
	d := record.Decision
	var sb strings.Builder

	if d.Covered {
		sb.WriteString("✅ Случай покрывается страховкой\n")
	} else {
		sb.WriteString("❌ Случай не покрывается страховкой\n")
	}
	fmt.Fprintf(&sb, "%s\n\n", d.Reason)

	fmt.Fprintf(&sb, "Тип случая: %s\n", damageTypeTitle(d.DamageType))
	fmt.Fprintf(&sb, "Повреждения: %s, деталей: %d\n", severityTitles[d.Severity], d.DetectedParts)
	fmt.Fprintf(&sb, "Оценка ущерба: %s", formatMoney(d.EstimatedDamage))
	if d.DepthFallback {
		sb.WriteString(" (по карте глубины)")
	}
	sb.WriteString("\n")

	for _, item := range d.Breakdown {
		fmt.Fprintf(&sb, "  • %s (%.1f%%): %s\n", item.Part, item.Confidence, formatMoney(item.EstimatedCost))
	}

	fmt.Fprintf(&sb, "Франшиза: %s\n", formatMoney(d.Franchise))
	if d.Cap != nil {
		fmt.Fprintf(&sb, "Лимит: %s\n", formatMoney(*d.Cap))
	}
	fmt.Fprintf(&sb, "Гарантии для случая: %s\n\n", formatGuarantees(d.ApplicableGuarantees))

	fmt.Fprintf(&sb, "💶 К возмещению: %s\n", formatMoney(d.Reimbursement))
	fmt.Fprintf(&sb, "👛 За ваш счёт: %s\n\n", formatMoney(d.OutOfPocket))
	fmt.Fprintf(&sb, "Заявка №%s", shortID(record.ID))

	return sb.String()
}

// formatHistory список последних заявок
func formatHistory(records []*entity.ClaimRecord) string {
	if len(records) == 0 {
		return "📭 История заявок пуста."
	}

	var sb strings.Builder
	sb.WriteString("🗂 Последние заявки:\n")
	for _, r := range records {
		mark := "❌"
		if r.Decision.Covered {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "\n%s %s · %s · %s\n   ущерб %s, возмещение %s",
			mark,
			r.CreatedAt.Format("02.01.2006 15:04"),
			shortID(r.ID),
			damageTypeTitle(r.Decision.DamageType),
			formatMoney(r.Decision.EstimatedDamage),
			formatMoney(r.Decision.Reimbursement),
		)
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
