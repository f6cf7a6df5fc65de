package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geargrade/geargrade-backend/internal/domain/grading"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(Params{})
}

func TestNewStore_StartsWithOneEmptySemester(t *testing.T) {
	store := newTestStore(t)

	semesters := store.Semesters()
	require.Len(t, semesters, 1)
	assert.Equal(t, "Semester 1", semesters[0].Name)
	assert.Empty(t, semesters[0].Courses)
	assert.Zero(t, store.CGPA())
	assert.Zero(t, store.TotalCredits())
}

func TestAddSemester_AutoNames(t *testing.T) {
	store := newTestStore(t)

	second := store.AddSemester()
	third := store.AddSemester()

	assert.Equal(t, "Semester 2", second.Name)
	assert.Equal(t, "Semester 3", third.Name)
	assert.Len(t, store.Semesters(), 3)
}

func TestRenameSemester(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]

	assert.True(t, store.RenameSemester(sem.ID, "Fall 2025"))
	assert.Equal(t, "Fall 2025", store.Semesters()[0].Name)

	// Пустое имя отклоняется, прежнее сохраняется.
	assert.False(t, store.RenameSemester(sem.ID, ""))
	assert.False(t, store.RenameSemester(sem.ID, "   "))
	assert.Equal(t, "Fall 2025", store.Semesters()[0].Name)

	// Неизвестный ID - no-op.
	assert.False(t, store.RenameSemester("missing", "X"))
}

func TestDeleteSemester_RefusesLast(t *testing.T) {
	store := newTestStore(t)
	only := store.Semesters()[0]

	assert.False(t, store.DeleteSemester(only.ID))
	assert.Len(t, store.Semesters(), 1)

	second := store.AddSemester()
	assert.True(t, store.DeleteSemester(second.ID))
	assert.Len(t, store.Semesters(), 1)

	// После любого числа операций коллекция не сжимается до нуля.
	assert.False(t, store.DeleteSemester(only.ID))
	assert.Len(t, store.Semesters(), 1)
}

func TestAddCourse_Defaults(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]

	course, ok := store.AddCourse(sem.ID)
	require.True(t, ok)

	assert.Empty(t, course.Name)
	assert.Equal(t, DefaultCredits, course.Credits)
	assert.Equal(t, grading.SymbolDefault, course.Grade)

	_, ok = store.AddCourse("missing")
	assert.False(t, ok)
}

func TestDeleteCourse_RefusesLast(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]

	first, _ := store.AddCourse(sem.ID)
	assert.False(t, store.DeleteCourse(sem.ID, first.ID))

	second, _ := store.AddCourse(sem.ID)
	assert.True(t, store.DeleteCourse(sem.ID, second.ID))
	assert.Len(t, store.Semesters()[0].Courses, 1)

	assert.False(t, store.DeleteCourse(sem.ID, first.ID))
	assert.Len(t, store.Semesters()[0].Courses, 1)
}

func TestUpdateCourse_PartialMerge(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]
	course, _ := store.AddCourse(sem.ID)

	name := "Thermodynamics"
	updated, ok := store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Name: &name})
	require.True(t, ok)
	assert.Equal(t, "Thermodynamics", updated.Name)
	assert.Equal(t, DefaultCredits, updated.Credits) // не тронуто
	assert.Equal(t, grading.SymbolDefault, updated.Grade)

	credits := 4.0
	grade := grading.Symbol("b")
	updated, ok = store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Credits: &credits, Grade: &grade})
	require.True(t, ok)
	assert.Equal(t, 4.0, updated.Credits)
	assert.Equal(t, grading.Symbol("B"), updated.Grade)

	_, ok = store.UpdateCourse(sem.ID, "missing", CourseUpdate{})
	assert.False(t, ok)
}

func TestUpdateCourse_Idempotent(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]
	course, _ := store.AddCourse(sem.ID)

	name := "ME203"
	credits := 2.5
	grade := grading.Symbol("C")
	update := CourseUpdate{Name: &name, Credits: &credits, Grade: &grade}

	once, ok := store.UpdateCourse(sem.ID, course.ID, update)
	require.True(t, ok)
	cgpaOnce := store.CGPA()

	twice, ok := store.UpdateCourse(sem.ID, course.ID, update)
	require.True(t, ok)

	assert.Equal(t, once, twice)
	assert.Equal(t, cgpaOnce, store.CGPA())
}

func TestUpdateCourse_CreditLock(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]
	course, _ := store.AddCourse(sem.ID)

	// Название совпало с таблицей учебного плана: кредиты фиксируются
	// немедленно, даже если одновременно передано другое значение.
	name := "MA201"
	credits := 99.0
	updated, _ := store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Name: &name, Credits: &credits})
	assert.Equal(t, 4.0, updated.Credits)

	// Попытка сменить кредиты у залоченного курса откатывается.
	credits = 1.0
	updated, _ = store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Credits: &credits})
	assert.Equal(t, 4.0, updated.Credits)

	// Название перестало совпадать - кредиты снова редактируются.
	name = "Free Elective"
	credits = 2.0
	updated, _ = store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Name: &name, Credits: &credits})
	assert.Equal(t, 2.0, updated.Credits)
}

func TestUpdateCourse_MandatoryCourse(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]
	course, _ := store.AddCourse(sem.ID)

	// ME225 - нулькредитный обязательный курс: оценка принудительно P.
	name := "ME225"
	updated, _ := store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Name: &name})
	assert.Equal(t, 0.0, updated.Credits)
	assert.Equal(t, grading.SymbolPass, updated.Grade)

	// Разрешены только P и F.
	grade := grading.Symbol("F")
	updated, _ = store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Grade: &grade})
	assert.Equal(t, grading.SymbolFail, updated.Grade)

	grade = "A"
	updated, _ = store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Grade: &grade})
	assert.Equal(t, grading.SymbolPass, updated.Grade)
}

func TestUpdateCourse_PassReservedForMandatory(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]
	course, _ := store.AddCourse(sem.ID)

	// Обычному курсу зачёт не ставится: откат к оценке по умолчанию.
	grade := grading.SymbolPass
	updated, _ := store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Grade: &grade})
	assert.Equal(t, grading.SymbolDefault, updated.Grade)

	// P у курса, который перестал быть обязательным, тоже не выживает.
	name := "ME225"
	store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Name: &name})
	name = "Regular Course"
	updated, _ = store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Name: &name})
	assert.Equal(t, grading.SymbolDefault, updated.Grade)

	// Залоченный, но не нулькредитный курс - тоже не обязательный.
	name = "ME225"
	store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Name: &name})
	name = "MA201"
	updated, _ = store.UpdateCourse(sem.ID, course.ID, CourseUpdate{Name: &name})
	assert.Equal(t, 4.0, updated.Credits)
	assert.Equal(t, grading.SymbolDefault, updated.Grade)
}

func TestAggregates_ScenarioAThroughC(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]

	a, _ := store.AddCourse(sem.ID)
	gradeA := grading.Symbol("A")
	store.UpdateCourse(sem.ID, a.ID, CourseUpdate{Grade: &gradeA})

	b, _ := store.AddCourse(sem.ID)
	creditsB := 4.0
	gradeB := grading.Symbol("B")
	store.UpdateCourse(sem.ID, b.ID, CourseUpdate{Credits: &creditsB, Grade: &gradeB})

	// Сценарий A: (3×9 + 4×8)/7 -> 8.42 (усечение по правилу регистратуры).
	assert.InDelta(t, 8.42, store.CGPA(), 1e-9)
	assert.InDelta(t, 7.0, store.TotalCredits(), 1e-9)

	// Сценарий B: обязательный нулькредитный курс ничего не меняет.
	m, _ := store.AddCourse(sem.ID)
	nameM := "ME225"
	store.UpdateCourse(sem.ID, m.ID, CourseUpdate{Name: &nameM})
	assert.InDelta(t, 8.42, store.CGPA(), 1e-9)
	assert.InDelta(t, 7.0, store.TotalCredits(), 1e-9)

	// Сценарий C: B -> F, кредиты остаются в знаменателе.
	gradeF := grading.Symbol("F")
	store.UpdateCourse(sem.ID, b.ID, CourseUpdate{Grade: &gradeF})
	assert.InDelta(t, 3.85, store.CGPA(), 1e-9)
	// Проваленный курс кредитов не приносит.
	assert.InDelta(t, 3.0, store.TotalCredits(), 1e-9)
}

func TestReset_ScenarioD(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]
	store.AddCourse(sem.ID)
	store.AddCourse(sem.ID)
	store.AddSemester()
	store.AddSemester()

	store.Reset()

	semesters := store.Semesters()
	require.Len(t, semesters, 1)
	assert.Equal(t, "Semester 1", semesters[0].Name)
	assert.Empty(t, semesters[0].Courses)
	assert.Zero(t, store.CGPA())
	assert.Zero(t, store.TotalCredits())
}

func TestSemesterGPA(t *testing.T) {
	store := newTestStore(t)
	first := store.Semesters()[0]
	second := store.AddSemester()

	c1, _ := store.AddCourse(first.ID)
	gradeS := grading.Symbol("S")
	store.UpdateCourse(first.ID, c1.ID, CourseUpdate{Grade: &gradeS})

	c2, _ := store.AddCourse(second.ID)
	gradeC := grading.Symbol("C")
	store.UpdateCourse(second.ID, c2.ID, CourseUpdate{Grade: &gradeC})

	gpa1, ok := store.SemesterGPA(first.ID)
	require.True(t, ok)
	assert.InDelta(t, 10.0, gpa1, 1e-9)

	gpa2, ok := store.SemesterGPA(second.ID)
	require.True(t, ok)
	assert.InDelta(t, 7.0, gpa2, 1e-9)

	_, ok = store.SemesterGPA("missing")
	assert.False(t, ok)
}

func TestRestore_ReappliesPolicy(t *testing.T) {
	store := newTestStore(t)

	// Устаревший снапшот с нарушенным credit-lock и лишней оценкой P.
	store.Restore([]Semester{
		{
			Name: "Imported",
			Courses: []Course{
				{Name: "MA201", Credits: 12, Grade: "A"},
				{Name: "ME225", Credits: 3, Grade: "B"},
				{Name: "Elective", Credits: 3, Grade: "P"},
			},
		},
	})

	courses := store.Semesters()[0].Courses
	require.Len(t, courses, 3)

	assert.Equal(t, 4.0, courses[0].Credits)
	assert.Equal(t, grading.Symbol("A"), courses[0].Grade)

	assert.Equal(t, 0.0, courses[1].Credits)
	assert.Equal(t, grading.SymbolPass, courses[1].Grade)

	assert.Equal(t, grading.SymbolDefault, courses[2].Grade)

	// Пустым ID назначены новые значения.
	assert.NotEmpty(t, store.Semesters()[0].ID)
	assert.NotEmpty(t, courses[0].ID)
}

func TestRestore_EmptySnapshotResets(t *testing.T) {
	store := newTestStore(t)
	store.AddSemester()

	store.Restore(nil)

	semesters := store.Semesters()
	require.Len(t, semesters, 1)
	assert.Equal(t, "Semester 1", semesters[0].Name)
	assert.Empty(t, semesters[0].Courses)
}

func TestSemesters_ReturnsDeepCopy(t *testing.T) {
	store := newTestStore(t)
	sem := store.Semesters()[0]
	store.AddCourse(sem.ID)

	view := store.Semesters()
	view[0].Name = "mutated"
	view[0].Courses[0].Credits = 42

	fresh := store.Semesters()
	assert.Equal(t, "Semester 1", fresh[0].Name)
	assert.Equal(t, DefaultCredits, fresh[0].Courses[0].Credits)
}

func TestDefaultTranscript(t *testing.T) {
	n := 0
	newID := func() string { n++; return string(rune('a' + n)) }

	semesters := DefaultTranscript(newID)
	require.Len(t, semesters, 1)
	require.Len(t, semesters[0].Courses, 2)
	assert.Equal(t, 3.0, semesters[0].Courses[0].Credits)
	assert.Equal(t, grading.Symbol("A"), semesters[0].Courses[0].Grade)
	assert.Equal(t, 4.0, semesters[0].Courses[1].Credits)
	assert.Equal(t, grading.Symbol("B"), semesters[0].Courses[1].Grade)
}
