// Package grading содержит шкалу оценок и движок расчёта GPA GearGrade.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package grading

import "strings"

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Symbol представляет буквенное обозначение оценки ("A", "P", "F" и т.д.).
type Symbol string

// Normalize приводит символ к каноническому виду (верхний регистр, без пробелов).
func (s Symbol) Normalize() Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(string(s))))
}

// String возвращает строковое представление символа.
func (s Symbol) String() string {
	return string(s)
}

// Tag определяет политику учёта оценки в GPA.
type Tag string

const (
	// TagGraded - оценка участвует и в числителе, и в знаменателе.
	TagGraded Tag = "graded"

	// TagFailed - оценка даёт 0 в числитель, но кредиты попадают в знаменатель.
	// Проваленные и незавершённые попытки считаются против среднего.
	TagFailed Tag = "failed"

	// TagExcluded - оценка не участвует ни в числителе, ни в знаменателе
	// (pass/fail результаты без штрафа).
	TagExcluded Tag = "excluded"
)

// IsValid проверяет, что тег корректен.
func (t Tag) IsValid() bool {
	switch t {
	case TagGraded, TagFailed, TagExcluded:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Definition описывает одну оценку шкалы.
type Definition struct {
	// Symbol - буквенное обозначение.
	Symbol Symbol

	// Points - балл оценки в расчёте GPA (неотрицательный).
	Points float64

	// Numeric - вторичная числовая шкала 0-100, используется только
	// внешним advisory-сервисом, не участвует в GPA.
	Numeric float64

	// Tag - политика учёта в GPA.
	Tag Tag
}

// Scale - замкнутая шкала оценок. Набор символов фиксируется при создании
// и не расширяется во время работы.
type Scale struct {
	defs  []Definition
	index map[Symbol]Definition
}

// NewScale создаёт шкалу из набора определений. Дубликаты символов и
// отрицательные баллы отбрасываются молча: шкала - конфигурация, а не
// пользовательский ввод.
func NewScale(defs []Definition) *Scale {
	s := &Scale{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[Symbol]Definition, len(defs)),
	}

	for _, d := range defs {
		d.Symbol = d.Symbol.Normalize()
		if d.Symbol == "" || d.Points < 0 {
			continue
		}
		if !d.Tag.IsValid() {
			d.Tag = TagExcluded
		}
		if _, exists := s.index[d.Symbol]; exists {
			continue
		}
		s.defs = append(s.defs, d)
		s.index[d.Symbol] = d
	}

	return s
}

// DefaultScale возвращает десятибалльную шкалу GearGrade.
// S..E - проходные оценки; F и I тянут кредиты в знаменатель с нулём баллов;
// P - зачёт без влияния на GPA, зарезервирован за обязательными курсами.
func DefaultScale() *Scale {
	return NewScale([]Definition{
		{Symbol: "S", Points: 10, Numeric: 95, Tag: TagGraded},
		{Symbol: "A", Points: 9, Numeric: 90, Tag: TagGraded},
		{Symbol: "B", Points: 8, Numeric: 80, Tag: TagGraded},
		{Symbol: "C", Points: 7, Numeric: 70, Tag: TagGraded},
		{Symbol: "D", Points: 6, Numeric: 60, Tag: TagGraded},
		{Symbol: "E", Points: 5, Numeric: 50, Tag: TagGraded},
		{Symbol: "F", Points: 0, Numeric: 40, Tag: TagFailed},
		{Symbol: "I", Points: 0, Numeric: 0, Tag: TagFailed},
		{Symbol: "P", Points: 0, Numeric: 75, Tag: TagExcluded},
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUPS (тотальные функции - никогда не падают)
// ══════════════════════════════════════════════════════════════════════════════

// PointsOf возвращает балл оценки. Неизвестный символ даёт 0.
func (s *Scale) PointsOf(symbol Symbol) float64 {
	if d, ok := s.index[symbol.Normalize()]; ok {
		return d.Points
	}
	return 0
}

// TagOf возвращает политику учёта оценки. Неизвестный символ исключается
// из расчёта целиком.
func (s *Scale) TagOf(symbol Symbol) Tag {
	if d, ok := s.index[symbol.Normalize()]; ok {
		return d.Tag
	}
	return TagExcluded
}

// NumericOf возвращает значение вторичной числовой шкалы. Неизвестный
// символ даёт 0.
func (s *Scale) NumericOf(symbol Symbol) float64 {
	if d, ok := s.index[symbol.Normalize()]; ok {
		return d.Numeric
	}
	return 0
}

// Contains проверяет, входит ли символ в шкалу.
func (s *Scale) Contains(symbol Symbol) bool {
	_, ok := s.index[symbol.Normalize()]
	return ok
}

// Symbols возвращает все символы шкалы в порядке определения.
func (s *Scale) Symbols() []Symbol {
	out := make([]Symbol, len(s.defs))
	for i, d := range s.defs {
		out[i] = d.Symbol
	}
	return out
}

// MaxPoints возвращает максимальный балл шкалы (верхняя граница GPA).
func (s *Scale) MaxPoints() float64 {
	max := 0.0
	for _, d := range s.defs {
		if d.Tag == TagGraded && d.Points > max {
			max = d.Points
		}
	}
	return max
}

// Канонические символы, на которые ссылаются политики транскрипта.
const (
	// SymbolDefault - оценка по умолчанию для нового курса.
	SymbolDefault Symbol = "A"

	// SymbolPass - зачёт. Зарезервирован за обязательными (нулькредитными)
	// курсами.
	SymbolPass Symbol = "P"

	// SymbolFail - незачёт/провал.
	SymbolFail Symbol = "F"
)
