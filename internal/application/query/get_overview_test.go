package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geargrade/geargrade-backend/internal/domain/curriculum"
	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

func newPopulatedStore(t *testing.T) *transcript.Store {
	t.Helper()
	n := 0
	store := transcript.NewStore(transcript.Params{
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
	})
	store.Restore([]transcript.Semester{
		{
			Name: "Semester 1",
			Courses: []transcript.Course{
				{Name: "Algorithms", Credits: 3, Grade: "A"},
				{Name: "Databases", Credits: 4, Grade: "B"},
			},
		},
		{
			Name: "Semester 2",
			Courses: []transcript.Course{
				{Name: "Networks", Credits: 3, Grade: "S"},
			},
		},
	})
	return store
}

func TestGetOverview_Aggregates(t *testing.T) {
	store := newPopulatedStore(t)
	h := NewGetOverviewHandler(store, nil, curriculum.DefaultPolicy())

	result, err := h.Handle(context.Background(), GetOverviewQuery{IncludeCourses: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.SemesterCount)
	assert.Equal(t, 3, result.CourseCount)
	// (27 + 32 + 30) / 10 = 8.9
	assert.InDelta(t, 8.9, result.CGPA, 1e-9)
	assert.Equal(t, "8.90", result.CGPAFormatted)
	assert.InDelta(t, 10.0, result.TotalCredits, 1e-9)

	require.Len(t, result.Semesters, 2)
	first := result.Semesters[0]
	assert.Equal(t, "Semester 1", first.Name)
	assert.InDelta(t, 8.42, first.GPA, 1e-9)
	assert.Equal(t, "8.42", first.GPAFormatted)
	require.Len(t, first.Courses, 2)
	assert.Equal(t, "Algorithms", first.Courses[0].Name)
	assert.InDelta(t, 9.0, first.Courses[0].Points, 1e-9)
}

func TestGetOverview_CreditLockFlags(t *testing.T) {
	store := transcript.NewStore(transcript.Params{Policy: curriculum.DefaultPolicy()})
	sem := store.Semesters()[0]
	course, ok := store.AddCourse(sem.ID)
	require.True(t, ok)
	name := "MA201"
	_, ok = store.UpdateCourse(sem.ID, course.ID, transcript.CourseUpdate{Name: &name})
	require.True(t, ok)

	mandatory, ok := store.AddCourse(sem.ID)
	require.True(t, ok)
	mandatoryName := "ME225"
	_, ok = store.UpdateCourse(sem.ID, mandatory.ID, transcript.CourseUpdate{Name: &mandatoryName})
	require.True(t, ok)

	h := NewGetOverviewHandler(store, nil, curriculum.DefaultPolicy())
	result, err := h.Handle(context.Background(), GetOverviewQuery{IncludeCourses: true})
	require.NoError(t, err)

	courses := result.Semesters[0].Courses
	require.Len(t, courses, 2)
	assert.True(t, courses[0].CreditsLocked)
	assert.False(t, courses[0].Mandatory)
	assert.InDelta(t, 4.0, courses[0].Credits, 1e-9)

	assert.True(t, courses[1].CreditsLocked)
	assert.True(t, courses[1].Mandatory)
	assert.InDelta(t, 0.0, courses[1].Credits, 1e-9)
}

func TestGetOverview_GradeOptions(t *testing.T) {
	store := transcript.NewStore(transcript.Params{})
	h := NewGetOverviewHandler(store, grading.DefaultScale(), nil)

	result, err := h.Handle(context.Background(), GetOverviewQuery{IncludeScale: true})
	require.NoError(t, err)
	require.NotEmpty(t, result.GradeOptions)

	bySymbol := make(map[string]GradeOptionDTO, len(result.GradeOptions))
	for _, opt := range result.GradeOptions {
		bySymbol[opt.Symbol] = opt
	}
	assert.InDelta(t, 10.0, bySymbol["S"].Points, 1e-9)
	assert.True(t, bySymbol["F"].Counted, "провал входит в знаменатель")
	assert.False(t, bySymbol["P"].Counted, "зачёт исключён из расчёта")
}
