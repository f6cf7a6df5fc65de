// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON TRANSCRIPT CHANGED HANDLER
// Autosave: после каждой успешной мутации транскрипта сохраняет полный
// снапшот под фиксированным ключом. Вопрос "когда сохранять" живёт
// здесь, а не в хранилище - доменная модель про снапшоты не знает.
//
// Сбой сохранения логируется и не распространяется: мутация уже
// применена, её нельзя откатить из-за недоступной персистентности.
// ═══════════════════════════════════════════════════════════════════════════

// OnTranscriptChangedHandler сохраняет снапшот после мутаций.
type OnTranscriptChangedHandler struct {
	store     *transcript.Store
	snapshots transcript.SnapshotRepository
	logger    *slog.Logger
	config    AutosaveConfig
}

// AutosaveConfig содержит конфигурацию autosave.
type AutosaveConfig struct {
	// SaveTimeout - таймаут одного сохранения.
	SaveTimeout time.Duration

	// Enabled - выключатель autosave (feature flag).
	Enabled bool
}

// DefaultAutosaveConfig возвращает конфигурацию по умолчанию.
func DefaultAutosaveConfig() AutosaveConfig {
	return AutosaveConfig{
		SaveTimeout: 5 * time.Second,
		Enabled:     true,
	}
}

// NewOnTranscriptChangedHandler создаёт обработчик autosave.
func NewOnTranscriptChangedHandler(
	store *transcript.Store,
	snapshots transcript.SnapshotRepository,
	logger *slog.Logger,
	config AutosaveConfig,
) *OnTranscriptChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnTranscriptChangedHandler{
		store:     store,
		snapshots: snapshots,
		logger:    logger,
		config:    config,
	}
}

// Register подписывает обработчик на все мутационные события транскрипта.
func (h *OnTranscriptChangedHandler) Register(bus shared.EventSubscriber) error {
	types := []shared.EventType{
		shared.EventSemesterAdded,
		shared.EventSemesterRenamed,
		shared.EventSemesterDeleted,
		shared.EventCourseAdded,
		shared.EventCourseUpdated,
		shared.EventCourseDeleted,
		shared.EventTranscriptReset,
	}
	for _, t := range types {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle сохраняет текущее состояние хранилища.
func (h *OnTranscriptChangedHandler) Handle(event shared.Event) error {
	if !h.config.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.SaveTimeout)
	defer cancel()

	semesters := h.store.Semesters()
	if err := h.snapshots.Save(ctx, semesters); err != nil {
		h.logger.Error("autosave failed",
			"event", event.EventType(),
			"semesters", len(semesters),
			"error", err,
		)
		return nil
	}

	h.logger.Debug("transcript snapshot saved",
		"event", event.EventType(),
		"semesters", len(semesters),
	)
	return nil
}
