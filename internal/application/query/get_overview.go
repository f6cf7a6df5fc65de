// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET OVERVIEW QUERY
// Собирает полную картину транскрипта: дерево семестров, средний балл
// каждого семестра, кумулятивный CGPA и заработанные кредиты. Это
// главный read-эндпоинт - всё, что нужно для отрисовки экрана.
// ══════════════════════════════════════════════════════════════════════════════

// GetOverviewQuery содержит параметры запроса обзора.
type GetOverviewQuery struct {
	// IncludeCourses - включить курсы каждого семестра (по умолчанию true
	// на уровне вызывающей стороны; здесь явный флаг).
	IncludeCourses bool

	// IncludeScale - включить справочник шкалы оценок для рендеринга
	// выпадающих списков.
	IncludeScale bool
}

// CourseDTO - курс для отображения.
type CourseDTO struct {
	// ID - идентификатор курса.
	ID string `json:"id"`

	// Name - название курса.
	Name string `json:"name"`

	// Credits - кредиты курса.
	Credits float64 `json:"credits"`

	// CreditsLocked - true, если кредиты зафиксированы учебным планом.
	CreditsLocked bool `json:"credits_locked"`

	// Mandatory - true, если курс обязательный (нулевые кредиты, только P/F).
	Mandatory bool `json:"mandatory"`

	// Grade - символ оценки.
	Grade string `json:"grade"`

	// Points - баллы за оценку по шкале.
	Points float64 `json:"points"`
}

// SemesterDTO - семестр для отображения.
type SemesterDTO struct {
	// ID - идентификатор семестра.
	ID string `json:"id"`

	// Name - название семестра.
	Name string `json:"name"`

	// GPA - средний балл семестра.
	GPA float64 `json:"gpa"`

	// GPAFormatted - средний балл строкой с двумя знаками.
	GPAFormatted string `json:"gpa_formatted"`

	// CourseCount - количество курсов.
	CourseCount int `json:"course_count"`

	// Courses - курсы семестра (если запрошены).
	Courses []CourseDTO `json:"courses,omitempty"`
}

// GradeOptionDTO - один символ шкалы для справочника.
type GradeOptionDTO struct {
	// Symbol - символ оценки.
	Symbol string `json:"symbol"`

	// Points - баллы символа.
	Points float64 `json:"points"`

	// Counted - true, если символ входит в знаменатель GPA.
	Counted bool `json:"counted"`
}

// GetOverviewResult содержит результат запроса обзора.
type GetOverviewResult struct {
	// CGPA - кумулятивный средний балл.
	CGPA float64 `json:"cgpa"`

	// CGPAFormatted - CGPA строкой с двумя знаками.
	CGPAFormatted string `json:"cgpa_formatted"`

	// TotalCredits - заработанные кредиты.
	TotalCredits float64 `json:"total_credits"`

	// SemesterCount - количество семестров.
	SemesterCount int `json:"semester_count"`

	// CourseCount - общее количество курсов.
	CourseCount int `json:"course_count"`

	// Semesters - семестры в порядке добавления.
	Semesters []SemesterDTO `json:"semesters"`

	// GradeOptions - справочник шкалы (если запрошен).
	GradeOptions []GradeOptionDTO `json:"grade_options,omitempty"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// OverviewView - то, что обработчику нужно от хранилища транскрипта.
// *transcript.Store реализует его напрямую.
type OverviewView interface {
	Semesters() []transcript.Semester
	SemesterGPA(semesterID string) (float64, bool)
	CGPA() float64
	TotalCredits() float64
}

// GetOverviewHandler обрабатывает запросы обзора транскрипта.
type GetOverviewHandler struct {
	store  OverviewView
	scale  *grading.Scale
	policy CreditPolicy
}

// CreditPolicy - то, что обработчику нужно от политики кредитов.
type CreditPolicy interface {
	CreditsFor(name string) (float64, bool)
	IsMandatory(name string) bool
}

// NewGetOverviewHandler создаёт новый обработчик.
func NewGetOverviewHandler(store OverviewView, scale *grading.Scale, policy CreditPolicy) *GetOverviewHandler {
	if scale == nil {
		scale = grading.DefaultScale()
	}
	return &GetOverviewHandler{store: store, scale: scale, policy: policy}
}

// Handle выполняет запрос.
func (h *GetOverviewHandler) Handle(ctx context.Context, query GetOverviewQuery) (*GetOverviewResult, error) {
	semesters := h.store.Semesters()

	result := &GetOverviewResult{
		CGPA:          h.store.CGPA(),
		TotalCredits:  h.store.TotalCredits(),
		SemesterCount: len(semesters),
		Semesters:     make([]SemesterDTO, 0, len(semesters)),
		GeneratedAt:   time.Now().UTC(),
	}
	result.CGPAFormatted = formatGPA(result.CGPA)

	for _, sem := range semesters {
		gpa, _ := h.store.SemesterGPA(sem.ID)
		dto := SemesterDTO{
			ID:           sem.ID,
			Name:         sem.Name,
			GPA:          gpa,
			GPAFormatted: formatGPA(gpa),
			CourseCount:  len(sem.Courses),
		}
		result.CourseCount += len(sem.Courses)

		if query.IncludeCourses {
			dto.Courses = make([]CourseDTO, 0, len(sem.Courses))
			for _, c := range sem.Courses {
				dto.Courses = append(dto.Courses, h.buildCourseDTO(c))
			}
		}
		result.Semesters = append(result.Semesters, dto)
	}

	if query.IncludeScale {
		result.GradeOptions = h.buildGradeOptions()
	}
	return result, nil
}

// buildCourseDTO строит DTO курса с данными политики кредитов.
func (h *GetOverviewHandler) buildCourseDTO(c transcript.Course) CourseDTO {
	dto := CourseDTO{
		ID:      c.ID,
		Name:    c.Name,
		Credits: c.Credits,
		Grade:   string(c.Grade),
		Points:  h.scale.PointsOf(c.Grade),
	}
	if h.policy != nil {
		_, dto.CreditsLocked = h.policy.CreditsFor(c.Name)
		dto.Mandatory = h.policy.IsMandatory(c.Name)
	}
	return dto
}

// buildGradeOptions строит справочник символов шкалы.
func (h *GetOverviewHandler) buildGradeOptions() []GradeOptionDTO {
	symbols := h.scale.Symbols()
	options := make([]GradeOptionDTO, 0, len(symbols))
	for _, sym := range symbols {
		options = append(options, GradeOptionDTO{
			Symbol:  string(sym),
			Points:  h.scale.PointsOf(sym),
			Counted: h.scale.TagOf(sym) != grading.TagExcluded,
		})
	}
	return options
}

// formatGPA форматирует средний балл с двумя знаками после запятой.
func formatGPA(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
