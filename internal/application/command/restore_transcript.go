package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESTORE TRANSCRIPT COMMAND
// Гидратация хранилища из снапшота при старте. Отсутствующий или битый
// снапшот - не авария: хранилище откатывается на транскрипт по умолчанию
// и продолжает работать. Загрузка никогда не валит процесс.
// ══════════════════════════════════════════════════════════════════════════════

// RestoreTranscriptResult описывает, чем закончилась гидратация.
type RestoreTranscriptResult struct {
	// Restored - true, если снапшот найден и применён.
	Restored bool

	// SemesterCount - количество семестров после гидратации.
	SemesterCount int

	// CGPA - кумулятивный средний балл после гидратации.
	CGPA float64
}

// RestoreTranscriptHandler выполняет гидратацию при старте.
type RestoreTranscriptHandler struct {
	store     *transcript.Store
	snapshots transcript.SnapshotRepository
	events    shared.EventPublisher
	logger    *slog.Logger
}

// NewRestoreTranscriptHandler создаёт обработчик.
func NewRestoreTranscriptHandler(
	store *transcript.Store,
	snapshots transcript.SnapshotRepository,
	events shared.EventPublisher,
	logger *slog.Logger,
) *RestoreTranscriptHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RestoreTranscriptHandler{
		store:     store,
		snapshots: snapshots,
		events:    events,
		logger:    logger,
	}
}

// Handle загружает снапшот и восстанавливает хранилище. Ошибка возвращается
// только при недоступности самого хранилища снапшотов; not-found и
// corrupted деградируют до транскрипта по умолчанию.
func (h *RestoreTranscriptHandler) Handle(ctx context.Context) (RestoreTranscriptResult, error) {
	semesters, err := h.snapshots.Load(ctx)
	restored := true

	switch {
	case err == nil:
	case errors.Is(err, transcript.ErrSnapshotNotFound):
		h.logger.Info("no transcript snapshot found, starting with defaults")
		semesters = nil
		restored = false
	case errors.Is(err, transcript.ErrSnapshotCorrupted):
		h.logger.Warn("transcript snapshot corrupted, starting with defaults", "error", err)
		semesters = nil
		restored = false
	default:
		return RestoreTranscriptResult{}, err
	}

	if len(semesters) == 0 {
		semesters = transcript.DefaultTranscript(nil)
		restored = false
	}
	h.store.Restore(semesters)

	result := RestoreTranscriptResult{
		Restored:      restored,
		SemesterCount: len(h.store.Semesters()),
		CGPA:          h.store.CGPA(),
	}

	if h.events != nil {
		event := shared.NewTranscriptChangedEvent(
			shared.EventTranscriptRestored, "restore", "", "",
			result.CGPA, h.store.TotalCredits(),
		)
		if err := h.events.Publish(event); err != nil {
			h.logger.Warn("failed to publish restore event", "error", err)
		}
	}

	h.logger.Info("transcript hydrated",
		"restored", result.Restored,
		"semesters", result.SemesterCount,
		"cgpa", result.CGPA,
	)
	return result, nil
}
