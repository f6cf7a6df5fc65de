package query

import (
	"context"
	"time"

	"github.com/geargrade/geargrade-backend/internal/domain/planner"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROJECTION QUERY
// Возвращает what-if прогноз: гипотетические семестры планировщика и
// прогнозируемый CGPA по объединению реальных и гипотетических курсов.
// Базовый транскрипт этот запрос не трогает.
// ══════════════════════════════════════════════════════════════════════════════

// GetProjectionQuery содержит параметры запроса прогноза.
type GetProjectionQuery struct {
	// IncludeCourses - включить курсы гипотетических семестров.
	IncludeCourses bool
}

// HypotheticalSemesterDTO - гипотетический семестр для отображения.
type HypotheticalSemesterDTO struct {
	// ID - идентификатор семестра.
	ID string `json:"id"`

	// Name - название семестра.
	Name string `json:"name"`

	// CourseCount - количество курсов.
	CourseCount int `json:"course_count"`

	// Courses - курсы семестра (если запрошены).
	Courses []CourseDTO `json:"courses,omitempty"`
}

// GetProjectionResult содержит результат запроса прогноза.
type GetProjectionResult struct {
	// BaseCGPA - текущий CGPA реального транскрипта.
	BaseCGPA float64 `json:"base_cgpa"`

	// ProjectedCGPA - прогнозируемый CGPA с учётом гипотетических курсов.
	// При пустом планировщике в точности равен BaseCGPA.
	ProjectedCGPA float64 `json:"projected_cgpa"`

	// ProjectedCGPAFormatted - прогноз строкой с двумя знаками.
	ProjectedCGPAFormatted string `json:"projected_cgpa_formatted"`

	// Delta - разница между прогнозом и текущим CGPA.
	Delta float64 `json:"delta"`

	// Hypothetical - гипотетические семестры.
	Hypothetical []HypotheticalSemesterDTO `json:"hypothetical"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// ProjectionView - то, что обработчику нужно от планировщика.
// *planner.Planner реализует его напрямую.
type ProjectionView interface {
	Semesters() []transcript.Semester
	ProjectedCGPA() float64
}

// GetProjectionHandler обрабатывает запросы прогноза.
type GetProjectionHandler struct {
	planner  ProjectionView
	base     planner.BaseView
	overview *GetOverviewHandler
}

// NewGetProjectionHandler создаёт новый обработчик. Курсы в ответе
// строятся тем же DTO-конвейером, что и в обзоре.
func NewGetProjectionHandler(p ProjectionView, base planner.BaseView, overview *GetOverviewHandler) *GetProjectionHandler {
	return &GetProjectionHandler{planner: p, base: base, overview: overview}
}

// Handle выполняет запрос.
func (h *GetProjectionHandler) Handle(ctx context.Context, query GetProjectionQuery) (*GetProjectionResult, error) {
	semesters := h.planner.Semesters()

	result := &GetProjectionResult{
		BaseCGPA:      h.base.CGPA(),
		ProjectedCGPA: h.planner.ProjectedCGPA(),
		Hypothetical:  make([]HypotheticalSemesterDTO, 0, len(semesters)),
		GeneratedAt:   time.Now().UTC(),
	}
	result.ProjectedCGPAFormatted = formatGPA(result.ProjectedCGPA)
	result.Delta = result.ProjectedCGPA - result.BaseCGPA

	for _, sem := range semesters {
		dto := HypotheticalSemesterDTO{
			ID:          sem.ID,
			Name:        sem.Name,
			CourseCount: len(sem.Courses),
		}
		if query.IncludeCourses {
			dto.Courses = make([]CourseDTO, 0, len(sem.Courses))
			for _, c := range sem.Courses {
				dto.Courses = append(dto.Courses, h.overview.buildCourseDTO(c))
			}
		}
		result.Hypothetical = append(result.Hypothetical, dto)
	}
	return result, nil
}
