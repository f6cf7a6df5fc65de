package query

import (
	"context"
	"time"

	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET HISTORY QUERY
// Read-side архива агрегатов: как CGPA и кредиты менялись со временем.
// Потребляет ту же агрегатную форму, что и экспортные коллабораторы.
// ══════════════════════════════════════════════════════════════════════════════

// GetHistoryQuery содержит параметры запроса истории.
type GetHistoryQuery struct {
	// Since - нижняя граница периода (нулевое значение = последние 90 дней).
	Since time.Time

	// Limit - максимум записей (0 = 100).
	Limit int
}

// Validate нормализует параметры.
func (q *GetHistoryQuery) Validate() error {
	if q.Since.IsZero() {
		q.Since = time.Now().UTC().AddDate(0, 0, -90)
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 1000 {
		q.Limit = 1000
	}
	return nil
}

// HistoryPointDTO - одна точка истории.
type HistoryPointDTO struct {
	// CGPA - кумулятивный средний балл на момент записи.
	CGPA float64 `json:"cgpa"`

	// TotalCredits - заработанные кредиты на момент записи.
	TotalCredits float64 `json:"total_credits"`

	// SemesterCount - количество семестров.
	SemesterCount int `json:"semester_count"`

	// CourseCount - количество курсов.
	CourseCount int `json:"course_count"`

	// ArchivedAt - время записи.
	ArchivedAt time.Time `json:"archived_at"`
}

// GetHistoryResult содержит результат запроса истории.
type GetHistoryResult struct {
	// Points - точки истории от старых к новым.
	Points []HistoryPointDTO `json:"points"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetHistoryHandler обрабатывает запросы истории агрегатов.
type GetHistoryHandler struct {
	archive transcript.ArchiveRepository
}

// NewGetHistoryHandler создаёт новый обработчик.
func NewGetHistoryHandler(archive transcript.ArchiveRepository) *GetHistoryHandler {
	return &GetHistoryHandler{archive: archive}
}

// Handle выполняет запрос.
func (h *GetHistoryHandler) Handle(ctx context.Context, query GetHistoryQuery) (*GetHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	records, err := h.archive.History(ctx, query.Since, query.Limit)
	if err != nil {
		return nil, err
	}

	result := &GetHistoryResult{
		Points:      make([]HistoryPointDTO, 0, len(records)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, r := range records {
		result.Points = append(result.Points, HistoryPointDTO{
			CGPA:          r.CGPA,
			TotalCredits:  r.TotalCredits,
			SemesterCount: r.SemesterCount,
			CourseCount:   r.CourseCount,
			ArchivedAt:    r.ArchivedAt,
		})
	}
	return result, nil
}
