package transcript

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTENCE PORTS
// Интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrSnapshotNotFound - снапшот транскрипта отсутствует в хранилище.
	ErrSnapshotNotFound = errors.New("transcript: snapshot not found")

	// ErrSnapshotCorrupted - снапшот не удалось разобрать.
	ErrSnapshotCorrupted = errors.New("transcript: snapshot corrupted")
)

// SnapshotRepository сохраняет и восстанавливает полное дерево семестров
// как единый blob под фиксированным ключом.
type SnapshotRepository interface {
	// Save сериализует и сохраняет упорядоченный список семестров.
	Save(ctx context.Context, semesters []Semester) error

	// Load восстанавливает список семестров.
	// Возвращает ErrSnapshotNotFound, если снапшота нет, и
	// ErrSnapshotCorrupted, если данные не разбираются. Вызывающая сторона
	// в обоих случаях откатывается на DefaultTranscript - загрузка никогда
	// не приводит к громкому отказу.
	Load(ctx context.Context) ([]Semester, error)
}

// ArchiveRecord - одна архивная запись агрегатов транскрипта.
type ArchiveRecord struct {
	// ID - идентификатор записи.
	ID string

	// CGPA - кумулятивный средний балл на момент архивации.
	CGPA float64

	// TotalCredits - заработанные кредиты на момент архивации.
	TotalCredits float64

	// SemesterCount - количество семестров.
	SemesterCount int

	// CourseCount - общее количество курсов.
	CourseCount int

	// ArchivedAt - время архивации.
	ArchivedAt time.Time
}

// ArchiveRepository хранит историю агрегатов транскрипта. Это read-side
// потребитель тех же агрегатных данных, что и экспортные коллабораторы.
type ArchiveRepository interface {
	// Append добавляет архивную запись.
	Append(ctx context.Context, record ArchiveRecord) error

	// History возвращает записи за период, от старых к новым.
	History(ctx context.Context, since time.Time, limit int) ([]ArchiveRecord, error)
}
