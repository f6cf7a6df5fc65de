// Package transcript содержит доменную модель транскрипта студента:
// семестры, курсы и хранилище с инвариантами структуры.
package transcript

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/geargrade/geargrade-backend/internal/domain/grading"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Course - один курс внутри семестра.
type Course struct {
	// ID - уникальный идентификатор курса (UUID в строковом формате).
	ID string

	// Name - название курса. Движок не валидирует содержимое; если название
	// совпадает с кодом учебного плана, курс становится credit-locked.
	Name string

	// Credits - кредиты курса. Допустимы дробные значения (например, 1.5).
	// Для credit-locked курсов поле только для чтения.
	Credits float64

	// Grade - символ оценки из шкалы. Неизвестный символ движок трактует
	// как 0 баллов.
	Grade grading.Symbol
}

// Clone создаёт копию курса по значению.
func (c Course) Clone() Course {
	return c
}

// Input возвращает срез курса для движка GPA.
func (c Course) Input() grading.CourseInput {
	return grading.CourseInput{Credits: c.Credits, Grade: c.Grade}
}

// String возвращает строковое представление курса для логирования.
func (c Course) String() string {
	return fmt.Sprintf("Course{ID: %s, Name: %q, Credits: %g, Grade: %s}",
		c.ID, c.Name, c.Credits, c.Grade)
}

// Semester - семестр с упорядоченным списком курсов. Порядок курсов -
// порядок добавления; он значим для отображения, но не для расчёта.
type Semester struct {
	// ID - уникальный идентификатор семестра (UUID в строковом формате).
	ID string

	// Name - отображаемое имя ("Semester 1", "Semester 2", ...).
	Name string

	// Courses - курсы семестра в порядке добавления.
	Courses []Course
}

// Clone создаёт глубокую копию семестра.
func (s Semester) Clone() Semester {
	clone := s
	clone.Courses = make([]Course, len(s.Courses))
	copy(clone.Courses, s.Courses)
	return clone
}

// CloneSemesters создаёт глубокую копию списка семестров.
func CloneSemesters(semesters []Semester) []Semester {
	out := make([]Semester, len(semesters))
	for i, s := range semesters {
		out[i] = s.Clone()
	}
	return out
}

// Значения по умолчанию для новых курсов.
const (
	// DefaultCredits - кредиты нового курса.
	DefaultCredits = 3.0
)

// DefaultTranscript возвращает стартовый транскрипт: один семестр с двумя
// примерами курсов. Используется при первом запуске и как fallback при
// повреждённом снапшоте.
func DefaultTranscript(newID func() string) []Semester {
	if newID == nil {
		newID = uuid.NewString
	}
	return []Semester{
		{
			ID:   newID(),
			Name: "Semester 1",
			Courses: []Course{
				{ID: newID(), Name: "Example Course 1", Credits: 3, Grade: "A"},
				{ID: newID(), Name: "Example Course 2", Credits: 4, Grade: "B"},
			},
		},
	}
}
