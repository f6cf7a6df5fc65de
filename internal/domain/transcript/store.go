package transcript

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/geargrade/geargrade-backend/internal/domain/curriculum"
	"github.com/geargrade/geargrade-backend/internal/domain/grading"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// Единственный владелец дерева семестров. Все мутации синхронные и сразу
// видимые; после каждой мутации агрегаты (CGPA, заработанные кредиты)
// пересчитываются и кешируются до следующей мутации.
// ══════════════════════════════════════════════════════════════════════════════

// Store - изменяемая коллекция семестров с инвариантами структуры:
//   - коллекция из >= 1 семестра не может сжаться до 0 через DeleteSemester;
//   - семестр с >= 1 курсом не может остаться без курсов через DeleteCourse.
//
// Отклонённые удаления - no-op, а не ошибки: вызывающая сторона отображает
// их как недоступное действие.
type Store struct {
	mu sync.RWMutex

	scale  *grading.Scale
	policy *curriculum.Policy
	newID  func() string

	semesters []Semester

	// Кешированные агрегаты, валидны до следующей мутации.
	cgpa         float64
	totalCredits float64
}

// Params содержит зависимости хранилища.
type Params struct {
	// Scale - шкала оценок. Если nil, используется DefaultScale.
	Scale *grading.Scale

	// Policy - политика кредитов. Если nil, используется DefaultPolicy.
	Policy *curriculum.Policy

	// NewID - генератор идентификаторов. Если nil, используется UUID.
	NewID func() string
}

// NewStore создаёт пустое хранилище с одним семестром без курсов.
func NewStore(params Params) *Store {
	if params.Scale == nil {
		params.Scale = grading.DefaultScale()
	}
	if params.Policy == nil {
		params.Policy = curriculum.DefaultPolicy()
	}
	if params.NewID == nil {
		params.NewID = uuid.NewString
	}

	s := &Store{
		scale:  params.Scale,
		policy: params.Policy,
		newID:  params.NewID,
	}
	s.semesters = []Semester{{ID: s.newID(), Name: "Semester 1"}}
	s.recompute()
	return s
}

// Scale возвращает шкалу оценок хранилища.
func (s *Store) Scale() *grading.Scale {
	return s.scale
}

// Policy возвращает политику кредитов хранилища.
func (s *Store) Policy() *curriculum.Policy {
	return s.policy
}

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AddSemester добавляет новый семестр с автоматическим именем "Semester N"
// и без курсов. Возвращает копию созданного семестра.
func (s *Store) AddSemester() Semester {
	s.mu.Lock()
	defer s.mu.Unlock()

	sem := Semester{
		ID:   s.newID(),
		Name: fmt.Sprintf("Semester %d", len(s.semesters)+1),
	}
	s.semesters = append(s.semesters, sem)
	s.recompute()
	return sem.Clone()
}

// RenameSemester переименовывает семестр. Пустое имя отклоняется, прежнее
// имя сохраняется. Возвращает false, если семестр не найден или имя
// отклонено.
func (s *Store) RenameSemester(semesterID, name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.semesters {
		if s.semesters[i].ID == semesterID {
			s.semesters[i].Name = name
			return true
		}
	}
	return false
}

// DeleteSemester удаляет семестр. Удаление единственного семестра
// отклоняется (no-op). Возвращает true, если семестр был удалён.
func (s *Store) DeleteSemester(semesterID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.semesters) <= 1 {
		return false
	}

	for i := range s.semesters {
		if s.semesters[i].ID == semesterID {
			s.semesters = append(s.semesters[:i], s.semesters[i+1:]...)
			s.recompute()
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AddCourse добавляет в семестр курс с пустым названием, кредитами и
// оценкой по умолчанию. Возвращает копию созданного курса и false, если
// семестр не найден.
func (s *Store) AddCourse(semesterID string) (Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.semesters {
		if s.semesters[i].ID != semesterID {
			continue
		}
		course := Course{
			ID:      s.newID(),
			Name:    "",
			Credits: DefaultCredits,
			Grade:   grading.SymbolDefault,
		}
		s.reconcile(&course)
		s.semesters[i].Courses = append(s.semesters[i].Courses, course)
		s.recompute()
		return course.Clone(), true
	}
	return Course{}, false
}

// CourseUpdate - частичное обновление курса; nil-поля не меняются.
type CourseUpdate struct {
	Name    *string
	Credits *float64
	Grade   *grading.Symbol
}

// UpdateCourse сливает частичные поля в курс и заново применяет политику
// кредитов: смена названия в обе стороны (стал/перестал совпадать с
// таблицей) исправляет кредиты и оценку немедленно. Возвращает копию
// курса после согласования и false, если курс не найден.
func (s *Store) UpdateCourse(semesterID, courseID string, update CourseUpdate) (Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.semesters {
		if s.semesters[i].ID != semesterID {
			continue
		}
		for j := range s.semesters[i].Courses {
			course := &s.semesters[i].Courses[j]
			if course.ID != courseID {
				continue
			}

			if update.Name != nil {
				course.Name = *update.Name
			}
			if update.Credits != nil {
				course.Credits = *update.Credits
			}
			if update.Grade != nil {
				course.Grade = update.Grade.Normalize()
			}

			s.reconcile(course)
			s.recompute()
			return course.Clone(), true
		}
	}
	return Course{}, false
}

// DeleteCourse удаляет курс из семестра. Удаление последнего курса
// семестра отклоняется (no-op). Возвращает true, если курс был удалён.
func (s *Store) DeleteCourse(semesterID, courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.semesters {
		if s.semesters[i].ID != semesterID {
			continue
		}
		if len(s.semesters[i].Courses) <= 1 {
			return false
		}
		for j := range s.semesters[i].Courses {
			if s.semesters[i].Courses[j].ID == courseID {
				s.semesters[i].Courses = append(
					s.semesters[i].Courses[:j],
					s.semesters[i].Courses[j+1:]...,
				)
				s.recompute()
				return true
			}
		}
		return false
	}
	return false
}

// Reset заменяет всю коллекцию одним пустым семестром.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.semesters = []Semester{{ID: s.newID(), Name: "Semester 1"}}
	s.recompute()
}

// Restore заменяет дерево семестров содержимым снапшота. Ко всем курсам
// заново применяется политика кредитов - устаревший снапшот не может
// нарушить инварианты credit-lock. Пустой снапшот эквивалентен Reset.
func (s *Store) Restore(semesters []Semester) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(semesters) == 0 {
		s.semesters = []Semester{{ID: s.newID(), Name: "Semester 1"}}
		s.recompute()
		return
	}

	restored := CloneSemesters(semesters)
	for i := range restored {
		if restored[i].ID == "" {
			restored[i].ID = s.newID()
		}
		for j := range restored[i].Courses {
			if restored[i].Courses[j].ID == "" {
				restored[i].Courses[j].ID = s.newID()
			}
			s.reconcile(&restored[i].Courses[j])
		}
	}
	s.semesters = restored
	s.recompute()
}

// ══════════════════════════════════════════════════════════════════════════════
// READS & DERIVED AGGREGATES
// ══════════════════════════════════════════════════════════════════════════════

// Semesters возвращает глубокую копию всех семестров в порядке добавления.
func (s *Store) Semesters() []Semester {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneSemesters(s.semesters)
}

// AllCourses возвращает копии всех курсов всех семестров.
func (s *Store) AllCourses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allCoursesLocked()
}

// CGPA возвращает кешированный кумулятивный средний балл по всем курсам.
func (s *Store) CGPA() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cgpa
}

// TotalCredits возвращает кешированную сумму заработанных кредитов:
// кредиты курсов с проходной оценкой. Проваленные и исключённые из расчёта
// оценки кредитов не приносят (в отличие от знаменателя GPA, куда
// проваленные попытки входят).
func (s *Store) TotalCredits() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalCredits
}

// SemesterGPA возвращает средний балл одного семестра. Второе значение
// false, если семестр не найден.
func (s *Store) SemesterGPA(semesterID string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.semesters {
		if s.semesters[i].ID == semesterID {
			return s.scale.CalculateGPA(courseInputs(s.semesters[i].Courses)), true
		}
	}
	return 0, false
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNALS
// ══════════════════════════════════════════════════════════════════════════════

// reconcile применяет политику кредитов к курсу.
// Вызывается под мьютексом записи.
func (s *Store) reconcile(course *Course) {
	if credits, locked := s.policy.CreditsFor(course.Name); locked {
		course.Credits = credits
		if credits == 0 {
			// Обязательный курс: только зачёт/незачёт.
			if course.Grade != grading.SymbolPass && course.Grade != grading.SymbolFail {
				course.Grade = grading.SymbolPass
			}
			return
		}
	}

	// Зачёт зарезервирован за обязательными курсами.
	if course.Grade == grading.SymbolPass {
		course.Grade = grading.SymbolDefault
	}
}

// recompute пересчитывает кешированные агрегаты.
// Вызывается под мьютексом записи.
func (s *Store) recompute() {
	courses := s.allCoursesLocked()
	s.cgpa = s.scale.CalculateGPA(courseInputs(courses))

	total := 0.0
	for _, c := range courses {
		if s.scale.TagOf(c.Grade) == grading.TagGraded && c.Credits > 0 {
			total += c.Credits
		}
	}
	s.totalCredits = total
}

func (s *Store) allCoursesLocked() []Course {
	var out []Course
	for i := range s.semesters {
		for _, c := range s.semesters[i].Courses {
			out = append(out, c.Clone())
		}
	}
	return out
}

func courseInputs(courses []Course) []grading.CourseInput {
	inputs := make([]grading.CourseInput, len(courses))
	for i, c := range courses {
		inputs[i] = c.Input()
	}
	return inputs
}
