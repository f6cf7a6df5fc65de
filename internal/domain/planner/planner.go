// Package planner содержит what-if планировщик: отдельную, одноразовую
// коллекцию гипотетических семестров поверх реального транскрипта.
// Планировщик никогда не мутирует базовое хранилище - он только читает
// его копии для построения объединённого расчёта.
package planner

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/geargrade/geargrade-backend/internal/domain/curriculum"
	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// BASE VIEW
// ══════════════════════════════════════════════════════════════════════════════

// BaseView - read-only взгляд планировщика на реальный транскрипт.
// *transcript.Store реализует его напрямую.
type BaseView interface {
	// AllCourses возвращает копии всех реальных курсов.
	AllCourses() []transcript.Course

	// CGPA возвращает текущий кумулятивный средний балл.
	CGPA() float64
}

// ══════════════════════════════════════════════════════════════════════════════
// PLANNER
// ══════════════════════════════════════════════════════════════════════════════

// Planner владеет собственным деревом гипотетических семестров той же
// формы, что и у хранилища, с тем же контрактом операций.
type Planner struct {
	mu sync.RWMutex

	base   BaseView
	scale  *grading.Scale
	policy *curriculum.Policy
	newID  func() string

	hypothetical []transcript.Semester
}

// Params содержит зависимости планировщика.
type Params struct {
	// Base - read-only база реального транскрипта. Обязательна.
	Base BaseView

	// Scale - шкала оценок. Если nil, используется DefaultScale.
	Scale *grading.Scale

	// Policy - политика кредитов. Если nil, используется DefaultPolicy.
	// Гипотетические курсы подчиняются тем же правилам, что и реальные.
	Policy *curriculum.Policy

	// NewID - генератор идентификаторов. Если nil, используется UUID.
	NewID func() string
}

// NewPlanner создаёт планировщик с пустой гипотетической коллекцией.
func NewPlanner(params Params) *Planner {
	if params.Scale == nil {
		params.Scale = grading.DefaultScale()
	}
	if params.Policy == nil {
		params.Policy = curriculum.DefaultPolicy()
	}
	if params.NewID == nil {
		params.NewID = uuid.NewString
	}
	return &Planner{
		base:   params.Base,
		scale:  params.Scale,
		policy: params.Policy,
		newID:  params.NewID,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HYPOTHETICAL SEMESTER OPERATIONS
// Тот же контракт, что у transcript.Store, но в границах собственной
// коллекции планировщика.
// ══════════════════════════════════════════════════════════════════════════════

// AddSemester добавляет гипотетический семестр "Future Semester N" с одним
// курсом по умолчанию (3 кредита, высшая оценка) - заготовка для прогноза.
func (p *Planner) AddSemester() transcript.Semester {
	p.mu.Lock()
	defer p.mu.Unlock()

	sem := transcript.Semester{
		ID:   p.newID(),
		Name: fmt.Sprintf("Future Semester %d", len(p.hypothetical)+1),
		Courses: []transcript.Course{
			{
				ID:      p.newID(),
				Name:    "",
				Credits: transcript.DefaultCredits,
				Grade:   "S",
			},
		},
	}
	p.hypothetical = append(p.hypothetical, sem)
	return sem.Clone()
}

// RenameSemester переименовывает гипотетический семестр. Пустое имя
// отклоняется.
func (p *Planner) RenameSemester(semesterID, name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.hypothetical {
		if p.hypothetical[i].ID == semesterID {
			p.hypothetical[i].Name = name
			return true
		}
	}
	return false
}

// DeleteSemester удаляет гипотетический семестр. В отличие от реального
// хранилища, коллекция планировщика может опустеть - прогноз тогда
// совпадает с базовым CGPA.
func (p *Planner) DeleteSemester(semesterID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.hypothetical {
		if p.hypothetical[i].ID == semesterID {
			p.hypothetical = append(p.hypothetical[:i], p.hypothetical[i+1:]...)
			return true
		}
	}
	return false
}

// AddCourse добавляет курс в гипотетический семестр.
func (p *Planner) AddCourse(semesterID string) (transcript.Course, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.hypothetical {
		if p.hypothetical[i].ID != semesterID {
			continue
		}
		course := transcript.Course{
			ID:      p.newID(),
			Name:    "",
			Credits: transcript.DefaultCredits,
			Grade:   grading.SymbolDefault,
		}
		p.reconcile(&course)
		p.hypothetical[i].Courses = append(p.hypothetical[i].Courses, course)
		return course.Clone(), true
	}
	return transcript.Course{}, false
}

// UpdateCourse сливает частичные поля в гипотетический курс.
func (p *Planner) UpdateCourse(semesterID, courseID string, update transcript.CourseUpdate) (transcript.Course, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.hypothetical {
		if p.hypothetical[i].ID != semesterID {
			continue
		}
		for j := range p.hypothetical[i].Courses {
			course := &p.hypothetical[i].Courses[j]
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
			p.reconcile(course)
			return course.Clone(), true
		}
	}
	return transcript.Course{}, false
}

// DeleteCourse удаляет курс из гипотетического семестра. Последний курс
// семестра не удаляется (no-op), как и в реальном хранилище.
func (p *Planner) DeleteCourse(semesterID, courseID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.hypothetical {
		if p.hypothetical[i].ID != semesterID {
			continue
		}
		if len(p.hypothetical[i].Courses) <= 1 {
			return false
		}
		for j := range p.hypothetical[i].Courses {
			if p.hypothetical[i].Courses[j].ID == courseID {
				p.hypothetical[i].Courses = append(
					p.hypothetical[i].Courses[:j],
					p.hypothetical[i].Courses[j+1:]...,
				)
				return true
			}
		}
		return false
	}
	return false
}

// reconcile применяет политику кредитов к гипотетическому курсу: те же
// правила, что и в реальном хранилище. Вызывается под мьютексом записи.
func (p *Planner) reconcile(course *transcript.Course) {
	if credits, locked := p.policy.CreditsFor(course.Name); locked {
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

// Reset очищает гипотетическую коллекцию. Базовое хранилище не затрагивается.
func (p *Planner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hypothetical = nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROJECTION
// ══════════════════════════════════════════════════════════════════════════════

// Semesters возвращает глубокую копию гипотетических семестров.
func (p *Planner) Semesters() []transcript.Semester {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return transcript.CloneSemesters(p.hypothetical)
}

// IsEmpty возвращает true, если гипотетических семестров нет.
func (p *Planner) IsEmpty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hypothetical) == 0
}

// ProjectedCGPA возвращает прогнозируемый CGPA: расчёт по объединению
// реальных и гипотетических курсов. При пустой гипотетической коллекции
// результат в точности равен базовому CGPA (тождество), а не пересчёту.
func (p *Planner) ProjectedCGPA() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.hypothetical) == 0 {
		return p.base.CGPA()
	}

	base := p.base.AllCourses()
	combined := make([]grading.CourseInput, 0, len(base))
	for _, c := range base {
		combined = append(combined, c.Input())
	}
	for i := range p.hypothetical {
		for _, c := range p.hypothetical[i].Courses {
			combined = append(combined, c.Input())
		}
	}
	return p.scale.CalculateGPA(combined)
}
