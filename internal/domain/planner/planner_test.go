package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// newBaseWithCourses готовит реальное хранилище со сценарием A:
// 3 кредита "A" + 4 кредита "B" -> CGPA 8.42.
func newBaseWithCourses(t *testing.T) *transcript.Store {
	t.Helper()
	store := transcript.NewStore(transcript.Params{})
	sem := store.Semesters()[0]

	a, _ := store.AddCourse(sem.ID)
	gradeA := grading.Symbol("A")
	store.UpdateCourse(sem.ID, a.ID, transcript.CourseUpdate{Grade: &gradeA})

	b, _ := store.AddCourse(sem.ID)
	creditsB := 4.0
	gradeB := grading.Symbol("B")
	store.UpdateCourse(sem.ID, b.ID, transcript.CourseUpdate{Credits: &creditsB, Grade: &gradeB})

	return store
}

func TestProjectedCGPA_IdentityWhenEmpty(t *testing.T) {
	base := newBaseWithCourses(t)
	p := NewPlanner(Params{Base: base})

	// Тождество: без гипотетических семестров прогноз в точности равен
	// базовому CGPA, без пересчёта.
	assert.True(t, p.IsEmpty())
	assert.Equal(t, base.CGPA(), p.ProjectedCGPA())
}

func TestAddSemester_SeedsDefaultCourse(t *testing.T) {
	p := NewPlanner(Params{Base: transcript.NewStore(transcript.Params{})})

	sem := p.AddSemester()
	assert.Equal(t, "Future Semester 1", sem.Name)
	require.Len(t, sem.Courses, 1)
	assert.Equal(t, transcript.DefaultCredits, sem.Courses[0].Credits)
	assert.Equal(t, grading.Symbol("S"), sem.Courses[0].Grade)

	second := p.AddSemester()
	assert.Equal(t, "Future Semester 2", second.Name)
}

func TestProjectedCGPA_CombinesBaseAndHypothetical(t *testing.T) {
	base := newBaseWithCourses(t)
	p := NewPlanner(Params{Base: base})

	// Гипотетический семестр с курсом S (3 кредита):
	// (3×9 + 4×8 + 3×10) / 10 = 89/10 = 8.9
	p.AddSemester()
	assert.InDelta(t, 8.9, p.ProjectedCGPA(), 1e-9)

	// База не тронута.
	assert.InDelta(t, 8.42, base.CGPA(), 1e-9)
}

func TestPlanner_DoesNotMutateBase(t *testing.T) {
	base := newBaseWithCourses(t)
	baseBefore := base.Semesters()
	p := NewPlanner(Params{Base: base})

	sem := p.AddSemester()
	course, ok := p.AddCourse(sem.ID)
	require.True(t, ok)

	name := "Hypothetical"
	credits := 2.0
	grade := grading.Symbol("C")
	p.UpdateCourse(sem.ID, course.ID, transcript.CourseUpdate{Name: &name, Credits: &credits, Grade: &grade})
	p.DeleteCourse(sem.ID, course.ID)
	p.RenameSemester(sem.ID, "Spring?")
	p.Reset()

	assert.Equal(t, baseBefore, base.Semesters())
}

func TestPlanner_OperationContract(t *testing.T) {
	p := NewPlanner(Params{Base: transcript.NewStore(transcript.Params{})})
	sem := p.AddSemester()

	// Пустое имя отклоняется.
	assert.False(t, p.RenameSemester(sem.ID, "  "))
	assert.True(t, p.RenameSemester(sem.ID, "Next Fall"))
	assert.Equal(t, "Next Fall", p.Semesters()[0].Name)

	// Последний курс семестра не удаляется.
	seed := p.Semesters()[0].Courses[0]
	assert.False(t, p.DeleteCourse(sem.ID, seed.ID))

	extra, ok := p.AddCourse(sem.ID)
	require.True(t, ok)
	assert.True(t, p.DeleteCourse(sem.ID, extra.ID))

	// Гипотетический семестр, в отличие от реального, можно удалить
	// последним: коллекция планировщика может опустеть.
	assert.True(t, p.DeleteSemester(sem.ID))
	assert.True(t, p.IsEmpty())
}

func TestPlanner_AppliesCreditPolicy(t *testing.T) {
	p := NewPlanner(Params{Base: transcript.NewStore(transcript.Params{})})
	sem := p.AddSemester()
	course, ok := p.AddCourse(sem.ID)
	require.True(t, ok)

	// Нулькредитный обязательный курс: кредиты фиксируются, оценка
	// принудительно P - ровно как в реальном хранилище.
	name := "ME225"
	credits := 3.0
	updated, ok := p.UpdateCourse(sem.ID, course.ID, transcript.CourseUpdate{Name: &name, Credits: &credits})
	require.True(t, ok)
	assert.Equal(t, 0.0, updated.Credits)
	assert.Equal(t, grading.SymbolPass, updated.Grade)

	// Разрешены только P и F.
	grade := grading.Symbol("S")
	updated, _ = p.UpdateCourse(sem.ID, course.ID, transcript.CourseUpdate{Grade: &grade})
	assert.Equal(t, grading.SymbolPass, updated.Grade)

	// Обычному гипотетическому курсу зачёт не ставится.
	name = "Free Elective"
	gradeP := grading.SymbolPass
	updated, _ = p.UpdateCourse(sem.ID, course.ID, transcript.CourseUpdate{Name: &name, Grade: &gradeP})
	assert.Equal(t, grading.SymbolDefault, updated.Grade)
}

func TestResetPlanner_ClearsOnlyHypothetical(t *testing.T) {
	base := newBaseWithCourses(t)
	p := NewPlanner(Params{Base: base})

	p.AddSemester()
	p.AddSemester()
	require.False(t, p.IsEmpty())

	p.Reset()

	assert.True(t, p.IsEmpty())
	assert.Equal(t, base.CGPA(), p.ProjectedCGPA())
	assert.Len(t, base.Semesters(), 1)
	assert.Len(t, base.Semesters()[0].Courses, 2)
}

func TestProjectedCGPA_CopiesByValue(t *testing.T) {
	base := newBaseWithCourses(t)
	p := NewPlanner(Params{Base: base})
	p.AddSemester()

	// Снимок гипотетических семестров - копия: мутации снаружи не влияют
	// на прогноз.
	view := p.Semesters()
	view[0].Courses[0].Credits = 1000

	assert.InDelta(t, 8.9, p.ProjectedCGPA(), 1e-9)
}
