package query

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUGGEST FOCUS QUERY
// Советующий коллаборатор: по текущим оценённым курсам внешний сервис
// подсказывает, на какой предмет стоит направить усилия. Сервис
// принимает числовые баллы, поэтому символы переводятся через вторичную
// числовую проекцию шкалы. Совет - строго best-effort: его недоступность
// никогда не ломает основной поток.
// ══════════════════════════════════════════════════════════════════════════════

// AdvisorClient - порт внешнего советующего сервиса.
// Реализация находится в infrastructure/external/advisor.
type AdvisorClient interface {
	// Suggest принимает карту "название курса -> числовой балл" и
	// возвращает текст рекомендации.
	Suggest(ctx context.Context, scores map[string]float64) (string, error)
}

// SuggestFocusQuery содержит параметры запроса рекомендации.
type SuggestFocusQuery struct {
	// SemesterID - ограничить выборку одним семестром (пусто = весь
	// транскрипт).
	SemesterID string
}

// SuggestFocusResult содержит результат запроса рекомендации.
type SuggestFocusResult struct {
	// Suggestion - текст рекомендации внешнего сервиса.
	Suggestion string `json:"suggestion"`

	// CoursesConsidered - сколько курсов вошло в выборку.
	CoursesConsidered int `json:"courses_considered"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// SuggestFocusHandler обрабатывает запросы рекомендаций.
type SuggestFocusHandler struct {
	store   OverviewView
	scale   *grading.Scale
	advisor AdvisorClient
	logger  *slog.Logger
}

// NewSuggestFocusHandler создаёт новый обработчик.
func NewSuggestFocusHandler(store OverviewView, scale *grading.Scale, advisor AdvisorClient, logger *slog.Logger) *SuggestFocusHandler {
	if scale == nil {
		scale = grading.DefaultScale()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestFocusHandler{store: store, scale: scale, advisor: advisor, logger: logger}
}

// Handle выполняет запрос. Пустая выборка отсекается до сетевого вызова:
// внешний сервис не должен видеть бессмысленные запросы.
func (h *SuggestFocusHandler) Handle(ctx context.Context, query SuggestFocusQuery) (*SuggestFocusResult, error) {
	scores := h.collectScores(query.SemesterID)
	if len(scores) == 0 {
		return nil, shared.ErrNoGradedCourses
	}

	suggestion, err := h.advisor.Suggest(ctx, scores)
	if err != nil {
		h.logger.Warn("advisor request failed", "courses", len(scores), "error", err)
		return nil, shared.WrapError("advisor", "Suggest", shared.ErrExternalService,
			"advisory service is unavailable", err)
	}

	return &SuggestFocusResult{
		Suggestion:        suggestion,
		CoursesConsidered: len(scores),
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// collectScores строит карту "название -> числовой балл" из курсов
// с непустым названием и оценкой, участвующей в расчёте. Дубликаты
// названий схлопываются с приоритетом позднего курса.
func (h *SuggestFocusHandler) collectScores(semesterID string) map[string]float64 {
	scores := make(map[string]float64)
	for _, sem := range h.store.Semesters() {
		if semesterID != "" && sem.ID != semesterID {
			continue
		}
		for _, c := range sem.Courses {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				continue
			}
			if h.scale.TagOf(c.Grade) != grading.TagGraded {
				continue
			}
			scores[name] = h.scale.NumericOf(c.Grade)
		}
	}
	return scores
}
