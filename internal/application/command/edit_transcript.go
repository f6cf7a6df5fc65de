// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDIT TRANSCRIPT COMMAND
// Единая точка мутаций реального транскрипта: каждая операция хранилища
// плюс публикация события для autosave-обработчика. "Когда сохранять" -
// забота обработчика события, не хранилища.
// ══════════════════════════════════════════════════════════════════════════════

// EditAction определяет тип операции над транскриптом.
type EditAction string

const (
	// ActionAddSemester - добавить семестр.
	ActionAddSemester EditAction = "add_semester"

	// ActionRenameSemester - переименовать семестр.
	ActionRenameSemester EditAction = "rename_semester"

	// ActionDeleteSemester - удалить семестр.
	ActionDeleteSemester EditAction = "delete_semester"

	// ActionAddCourse - добавить курс в семестр.
	ActionAddCourse EditAction = "add_course"

	// ActionUpdateCourse - частично обновить курс.
	ActionUpdateCourse EditAction = "update_course"

	// ActionDeleteCourse - удалить курс из семестра.
	ActionDeleteCourse EditAction = "delete_course"

	// ActionReset - заменить коллекцию одним пустым семестром.
	ActionReset EditAction = "reset"
)

// EditTranscriptCommand содержит данные одной мутации транскрипта.
type EditTranscriptCommand struct {
	// Action - тип операции.
	Action EditAction

	// SemesterID - идентификатор семестра (для операций над семестром/курсом).
	SemesterID string

	// CourseID - идентификатор курса (для update/delete курса).
	CourseID string

	// Name - новое имя семестра (rename_semester).
	Name string

	// Course - частичные поля курса (update_course).
	Course transcript.CourseUpdate
}

// Validate проверяет корректность команды.
func (c EditTranscriptCommand) Validate() error {
	switch c.Action {
	case ActionAddSemester, ActionReset:
		// Параметры не требуются.
	case ActionRenameSemester, ActionDeleteSemester, ActionAddCourse:
		if c.SemesterID == "" {
			return fmt.Errorf("edit_transcript: semester_id is required for %s", c.Action)
		}
	case ActionUpdateCourse, ActionDeleteCourse:
		if c.SemesterID == "" || c.CourseID == "" {
			return fmt.Errorf("edit_transcript: semester_id and course_id are required for %s", c.Action)
		}
	default:
		return fmt.Errorf("edit_transcript: unknown action: %s", c.Action)
	}
	return nil
}

// EditTranscriptResult содержит результат мутации.
type EditTranscriptResult struct {
	// Applied - true, если мутация применена. Отклонённые структурные
	// операции (удаление последнего семестра/курса, пустое имя) дают
	// false без ошибки: вызывающая сторона отображает их как
	// недоступное действие.
	Applied bool

	// Reason - машиночитаемая причина отклонения (для Applied == false).
	Reason string

	// Semester - созданный семестр (add_semester).
	Semester *transcript.Semester

	// Course - созданный или обновлённый курс.
	Course *transcript.Course

	// CGPA - кумулятивный средний балл после операции.
	CGPA float64

	// TotalCredits - заработанные кредиты после операции.
	TotalCredits float64
}

// EditTranscriptHandler выполняет команды редактирования транскрипта.
type EditTranscriptHandler struct {
	store  *transcript.Store
	events shared.EventPublisher
	logger *slog.Logger
}

// NewEditTranscriptHandler создаёт обработчик.
func NewEditTranscriptHandler(store *transcript.Store, events shared.EventPublisher, logger *slog.Logger) *EditTranscriptHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditTranscriptHandler{store: store, events: events, logger: logger}
}

// Handle выполняет мутацию. Возвращает ошибку только для невалидных команд
// и ненайденных идентификаторов; структурные отказы - это Applied == false.
func (h *EditTranscriptHandler) Handle(ctx context.Context, cmd EditTranscriptCommand) (EditTranscriptResult, error) {
	if err := cmd.Validate(); err != nil {
		return EditTranscriptResult{}, err
	}

	var (
		result    EditTranscriptResult
		eventType shared.EventType
	)

	switch cmd.Action {
	case ActionAddSemester:
		sem := h.store.AddSemester()
		result = EditTranscriptResult{Applied: true, Semester: &sem}
		eventType = shared.EventSemesterAdded

	case ActionRenameSemester:
		if !h.store.RenameSemester(cmd.SemesterID, cmd.Name) {
			if !h.semesterExists(cmd.SemesterID) {
				return EditTranscriptResult{}, shared.ErrSemesterNotFound
			}
			result = EditTranscriptResult{Reason: shared.ErrEmptySemesterName.Message}
		} else {
			result = EditTranscriptResult{Applied: true}
			eventType = shared.EventSemesterRenamed
		}

	case ActionDeleteSemester:
		if !h.store.DeleteSemester(cmd.SemesterID) {
			if !h.semesterExists(cmd.SemesterID) {
				return EditTranscriptResult{}, shared.ErrSemesterNotFound
			}
			result = EditTranscriptResult{Reason: shared.ErrLastSemester.Message}
		} else {
			result = EditTranscriptResult{Applied: true}
			eventType = shared.EventSemesterDeleted
		}

	case ActionAddCourse:
		course, ok := h.store.AddCourse(cmd.SemesterID)
		if !ok {
			return EditTranscriptResult{}, shared.ErrSemesterNotFound
		}
		result = EditTranscriptResult{Applied: true, Course: &course}
		eventType = shared.EventCourseAdded

	case ActionUpdateCourse:
		course, ok := h.store.UpdateCourse(cmd.SemesterID, cmd.CourseID, cmd.Course)
		if !ok {
			return EditTranscriptResult{}, shared.ErrCourseNotFound
		}
		result = EditTranscriptResult{Applied: true, Course: &course}
		eventType = shared.EventCourseUpdated

	case ActionDeleteCourse:
		if !h.store.DeleteCourse(cmd.SemesterID, cmd.CourseID) {
			if !h.courseExists(cmd.SemesterID, cmd.CourseID) {
				return EditTranscriptResult{}, shared.ErrCourseNotFound
			}
			result = EditTranscriptResult{Reason: shared.ErrLastCourse.Message}
		} else {
			result = EditTranscriptResult{Applied: true}
			eventType = shared.EventCourseDeleted
		}

	case ActionReset:
		h.store.Reset()
		result = EditTranscriptResult{Applied: true}
		eventType = shared.EventTranscriptReset
	}

	result.CGPA = h.store.CGPA()
	result.TotalCredits = h.store.TotalCredits()

	if result.Applied && h.events != nil {
		event := shared.NewTranscriptChangedEvent(
			eventType, string(cmd.Action), cmd.SemesterID, cmd.CourseID,
			result.CGPA, result.TotalCredits,
		)
		if err := h.events.Publish(event); err != nil {
			// Сбой публикации не откатывает мутацию.
			h.logger.Warn("failed to publish transcript event",
				"action", cmd.Action, "error", err)
		}
	}

	return result, nil
}

func (h *EditTranscriptHandler) semesterExists(semesterID string) bool {
	for _, s := range h.store.Semesters() {
		if s.ID == semesterID {
			return true
		}
	}
	return false
}

func (h *EditTranscriptHandler) courseExists(semesterID, courseID string) bool {
	for _, s := range h.store.Semesters() {
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

// GradeUpdate - удобный конструктор частичного обновления оценки.
func GradeUpdate(symbol string) transcript.CourseUpdate {
	grade := grading.Symbol(symbol)
	return transcript.CourseUpdate{Grade: &grade}
}
