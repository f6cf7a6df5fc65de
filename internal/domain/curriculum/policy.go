// Package curriculum содержит политику кредитов учебного плана.
// Курсы, чей код найден в таблице, становятся credit-locked: их кредиты
// фиксированы, а нулькредитные дополнительно объявляются обязательными
// (только зачёт/незачёт).
package curriculum

import "strings"

// ══════════════════════════════════════════════════════════════════════════════
// CREDIT POLICY
// ══════════════════════════════════════════════════════════════════════════════

// Policy - неизменяемая таблица соответствия кода курса фиксированным
// кредитам. Поиск - точное совпадение без учёта регистра и внешних пробелов.
type Policy struct {
	credits map[string]float64
}

// NewPolicy создаёт политику из таблицы код -> кредиты.
// Ключи нормализуются; отрицательные значения отбрасываются.
func NewPolicy(table map[string]float64) *Policy {
	p := &Policy{credits: make(map[string]float64, len(table))}
	for code, credits := range table {
		norm := NormalizeCode(code)
		if norm == "" || credits < 0 {
			continue
		}
		p.credits[norm] = credits
	}
	return p
}

// NormalizeCode приводит код курса к каноническому виду таблицы.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreditsFor возвращает фиксированные кредиты курса по его коду.
// Второе значение false означает, что курс не входит в таблицу и его
// кредиты редактируются свободно.
func (p *Policy) CreditsFor(code string) (float64, bool) {
	credits, ok := p.credits[NormalizeCode(code)]
	return credits, ok
}

// IsMandatory проверяет, является ли курс обязательным: в таблице и ровно
// с нулём кредитов. Такой курс оценивается только зачётом/незачётом.
func (p *Policy) IsMandatory(code string) bool {
	credits, ok := p.credits[NormalizeCode(code)]
	return ok && credits == 0
}

// Size возвращает количество записей в таблице.
func (p *Policy) Size() int {
	return len(p.credits)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT TABLE
// Учебный план механико-машиностроительного направления: ядро (PCC, ESC,
// BSC, HSM), профессиональные и открытые элективы. Нулькредитные записи
// (ME225, SH202) - обязательные курсы.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultPolicy возвращает политику с таблицей учебного плана по умолчанию.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string]float64{
		// Core
		"MA201": 4, "PH201": 4, "CY201": 4, "HS201": 3, "ME201": 1.5,
		"PH202": 1.5, "CY202": 1.5, "MA202": 4, "EE201": 4, "CS201": 3,
		"ME202": 3, "EE202": 1.5, "CS202": 1.5, "ME203": 4, "ME204": 4,
		"ME205": 4, "ME206": 3, "ME207": 3, "ME208": 4, "ME209": 4,
		"ME210": 3, "ME211": 4, "ME212": 1.5, "ME213": 4, "ME214": 4,
		"ME215": 4, "ME216": 1.5, "ME217": 4, "ME218": 4, "ME219": 4,
		"ME220": 1, "ME221": 1.5, "ME222": 4, "ME223": 3, "ME224": 4,
		"ME225": 0, "ME226": 1, "ME227": 2, "ME228": 8, "HS202": 3,
		"SH201": 2, "EC234": 3, "SH202": 0,

		// Professional electives
		"MEY01": 3, "MEY02": 3, "MEY03": 3, "MEY04": 3, "MEY05": 3,
		"MEY06": 3, "MEY07": 3, "MEY08": 3, "MEY09": 3, "MEY10": 3,
		"MEY11": 3, "MEY12": 3, "MEY13": 3, "MEY14": 3, "MEY15": 3,

		// Open electives
		"MEO01": 3, "MEO02": 3, "MEO03": 3, "MEO04": 3, "MEO05": 3,
		"MEO06": 3, "MEO07": 3, "MEO08": 3, "MEO09": 3,

		// Swayam
		"SWOXX1": 2, "SWOXX2": 2,
	})
}
