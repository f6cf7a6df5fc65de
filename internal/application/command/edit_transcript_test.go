package command

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// fakeBus собирает опубликованные события.
type fakeBus struct {
	events []shared.Event
	err    error
}

func (b *fakeBus) Publish(event shared.Event) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, event)
	return nil
}

func newTestStore() *transcript.Store {
	n := 0
	return transcript.NewStore(transcript.Params{
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
	})
}

func TestEditTranscript_AddSemesterPublishesEvent(t *testing.T) {
	store := newTestStore()
	bus := &fakeBus{}
	h := NewEditTranscriptHandler(store, bus, nil)

	result, err := h.Handle(context.Background(), EditTranscriptCommand{Action: ActionAddSemester})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	require.NotNil(t, result.Semester)

	require.Len(t, bus.events, 1)
	assert.Equal(t, shared.EventSemesterAdded, bus.events[0].EventType())
}

func TestEditTranscript_RejectedOperationIsNotAnError(t *testing.T) {
	store := newTestStore()
	bus := &fakeBus{}
	h := NewEditTranscriptHandler(store, bus, nil)

	sem := store.Semesters()[0]

	// Единственный семестр удалить нельзя - это отказ, не ошибка.
	result, err := h.Handle(context.Background(), EditTranscriptCommand{
		Action:     ActionDeleteSemester,
		SemesterID: sem.ID,
	})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, shared.ErrLastSemester.Message, result.Reason)
	assert.Empty(t, bus.events, "отклонённая операция не публикует событий")
}

func TestEditTranscript_NotFoundIsAnError(t *testing.T) {
	h := NewEditTranscriptHandler(newTestStore(), &fakeBus{}, nil)

	_, err := h.Handle(context.Background(), EditTranscriptCommand{
		Action:     ActionDeleteSemester,
		SemesterID: "missing",
	})
	assert.ErrorIs(t, err, shared.ErrSemesterNotFound)

	_, err = h.Handle(context.Background(), EditTranscriptCommand{
		Action:     ActionUpdateCourse,
		SemesterID: "missing",
		CourseID:   "missing",
	})
	assert.ErrorIs(t, err, shared.ErrCourseNotFound)
}

func TestEditTranscript_UpdateCourseRecomputesAggregates(t *testing.T) {
	store := newTestStore()
	bus := &fakeBus{}
	h := NewEditTranscriptHandler(store, bus, nil)

	sem := store.Semesters()[0]
	added, err := h.Handle(context.Background(), EditTranscriptCommand{
		Action:     ActionAddCourse,
		SemesterID: sem.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, added.Course)

	grade := "S"
	credits := 4.0
	symbol := shared.EventCourseUpdated
	result, err := h.Handle(context.Background(), EditTranscriptCommand{
		Action:     ActionUpdateCourse,
		SemesterID: sem.ID,
		CourseID:   added.Course.ID,
		Course: transcript.CourseUpdate{
			Credits: &credits,
			Grade:   gradePtr(grade),
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.InDelta(t, 10.0, result.CGPA, 1e-9)
	assert.InDelta(t, 4.0, result.TotalCredits, 1e-9)

	require.Len(t, bus.events, 2)
	assert.Equal(t, symbol, bus.events[1].EventType())

	changed, ok := bus.events[1].(shared.TranscriptChangedEvent)
	require.True(t, ok)
	assert.InDelta(t, 10.0, changed.CGPA, 1e-9)
}

func TestEditTranscript_ValidationErrors(t *testing.T) {
	h := NewEditTranscriptHandler(newTestStore(), &fakeBus{}, nil)

	_, err := h.Handle(context.Background(), EditTranscriptCommand{Action: "explode"})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), EditTranscriptCommand{Action: ActionAddCourse})
	assert.Error(t, err, "add_course требует semester_id")
}

func TestEditTranscript_PublishFailureDoesNotRollBack(t *testing.T) {
	store := newTestStore()
	bus := &fakeBus{err: assert.AnError}
	h := NewEditTranscriptHandler(store, bus, nil)

	result, err := h.Handle(context.Background(), EditTranscriptCommand{Action: ActionAddSemester})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Len(t, store.Semesters(), 2, "мутация остаётся применённой при сбое шины")
}

func gradePtr(s string) *grading.Symbol {
	g := grading.Symbol(s)
	return &g
}
