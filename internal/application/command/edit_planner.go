package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geargrade/geargrade-backend/internal/domain/planner"
	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDIT PLANNER COMMAND
// Мутации гипотетической коллекции what-if планировщика. Контракт действий
// тот же, что у транскрипта, но события здесь не триггерят autosave:
// гипотетические данные по определению одноразовые.
// ══════════════════════════════════════════════════════════════════════════════

// EditPlannerCommand содержит данные одной мутации планировщика.
type EditPlannerCommand struct {
	// Action - тип операции (тот же словарь, что и у транскрипта).
	Action EditAction

	// SemesterID - идентификатор гипотетического семестра.
	SemesterID string

	// CourseID - идентификатор гипотетического курса.
	CourseID string

	// Name - новое имя семестра (rename_semester).
	Name string

	// Course - частичные поля курса (update_course).
	Course transcript.CourseUpdate
}

// Validate проверяет корректность команды.
func (c EditPlannerCommand) Validate() error {
	switch c.Action {
	case ActionAddSemester, ActionReset:
	case ActionRenameSemester, ActionDeleteSemester, ActionAddCourse:
		if c.SemesterID == "" {
			return fmt.Errorf("edit_planner: semester_id is required for %s", c.Action)
		}
	case ActionUpdateCourse, ActionDeleteCourse:
		if c.SemesterID == "" || c.CourseID == "" {
			return fmt.Errorf("edit_planner: semester_id and course_id are required for %s", c.Action)
		}
	default:
		return fmt.Errorf("edit_planner: unknown action: %s", c.Action)
	}
	return nil
}

// EditPlannerResult содержит результат мутации планировщика.
type EditPlannerResult struct {
	// Applied - true, если мутация применена.
	Applied bool

	// Reason - причина отклонения (для Applied == false).
	Reason string

	// Semester - созданный гипотетический семестр (add_semester).
	Semester *transcript.Semester

	// Course - созданный или обновлённый гипотетический курс.
	Course *transcript.Course

	// ProjectedCGPA - прогнозируемый CGPA после операции.
	ProjectedCGPA float64
}

// EditPlannerHandler выполняет команды редактирования планировщика.
type EditPlannerHandler struct {
	planner *planner.Planner
	events  shared.EventPublisher
	logger  *slog.Logger
}

// NewEditPlannerHandler создаёт обработчик.
func NewEditPlannerHandler(p *planner.Planner, events shared.EventPublisher, logger *slog.Logger) *EditPlannerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditPlannerHandler{planner: p, events: events, logger: logger}
}

// Handle выполняет мутацию гипотетической коллекции.
func (h *EditPlannerHandler) Handle(ctx context.Context, cmd EditPlannerCommand) (EditPlannerResult, error) {
	if err := cmd.Validate(); err != nil {
		return EditPlannerResult{}, err
	}

	var (
		result    EditPlannerResult
		eventType shared.EventType = shared.EventPlannerChanged
	)

	switch cmd.Action {
	case ActionAddSemester:
		sem := h.planner.AddSemester()
		result = EditPlannerResult{Applied: true, Semester: &sem}

	case ActionRenameSemester:
		if !h.planner.RenameSemester(cmd.SemesterID, cmd.Name) {
			if !h.semesterExists(cmd.SemesterID) {
				return EditPlannerResult{}, shared.ErrSemesterNotFound
			}
			result = EditPlannerResult{Reason: shared.ErrEmptySemesterName.Message}
		} else {
			result = EditPlannerResult{Applied: true}
		}

	case ActionDeleteSemester:
		if !h.planner.DeleteSemester(cmd.SemesterID) {
			return EditPlannerResult{}, shared.ErrSemesterNotFound
		}
		result = EditPlannerResult{Applied: true}

	case ActionAddCourse:
		course, ok := h.planner.AddCourse(cmd.SemesterID)
		if !ok {
			return EditPlannerResult{}, shared.ErrSemesterNotFound
		}
		result = EditPlannerResult{Applied: true, Course: &course}

	case ActionUpdateCourse:
		course, ok := h.planner.UpdateCourse(cmd.SemesterID, cmd.CourseID, cmd.Course)
		if !ok {
			return EditPlannerResult{}, shared.ErrCourseNotFound
		}
		result = EditPlannerResult{Applied: true, Course: &course}

	case ActionDeleteCourse:
		if !h.planner.DeleteCourse(cmd.SemesterID, cmd.CourseID) {
			if !h.courseExists(cmd.SemesterID, cmd.CourseID) {
				return EditPlannerResult{}, shared.ErrCourseNotFound
			}
			result = EditPlannerResult{Reason: shared.ErrLastCourse.Message}
		} else {
			result = EditPlannerResult{Applied: true}
		}

	case ActionReset:
		h.planner.Reset()
		result = EditPlannerResult{Applied: true}
		eventType = shared.EventPlannerReset
	}

	result.ProjectedCGPA = h.planner.ProjectedCGPA()

	if result.Applied && h.events != nil {
		event := shared.NewBaseEvent(eventType, "planner")
		if err := h.events.Publish(event); err != nil {
			h.logger.Warn("failed to publish planner event",
				"action", cmd.Action, "error", err)
		}
	}

	return result, nil
}

func (h *EditPlannerHandler) semesterExists(semesterID string) bool {
	for _, s := range h.planner.Semesters() {
		if s.ID == semesterID {
			return true
		}
	}
	return false
}

func (h *EditPlannerHandler) courseExists(semesterID, courseID string) bool {
	for _, s := range h.planner.Semesters() {
		if s.ID != semesterID {
			continue
		}
		for _, c := range s.Courses {
			if c.ID == courseID {
				return true
			}
		}
	}
	return false
}
