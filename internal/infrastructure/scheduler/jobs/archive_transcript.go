// Package jobs contains the scheduled jobs run by the GearGrade worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARCHIVE TRANSCRIPT JOB
// ══════════════════════════════════════════════════════════════════════════════

// AggregateSource exposes the transcript aggregates the archive captures.
// *transcript.Store satisfies it.
type AggregateSource interface {
	Semesters() []transcript.Semester
	CGPA() float64
	TotalCredits() float64
}

// Locker takes a short-lived distributed lock so overlapping worker runs
// don't double-write the same archive window. The redis cache satisfies it
// via SetNX.
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// ArchiveTranscriptJob periodically appends the current transcript aggregates
// to the durable archive, producing the data points the history endpoint
// serves.
type ArchiveTranscriptJob struct {
	source  AggregateSource
	archive transcript.ArchiveRepository
	locker  Locker
	events  shared.EventPublisher
	logger  *slog.Logger

	lockKey string
	lockTTL time.Duration
}

// ArchiveTranscriptJobConfig contains dependencies for the job.
type ArchiveTranscriptJobConfig struct {
	Source  AggregateSource
	Archive transcript.ArchiveRepository
	Locker  Locker
	Events  shared.EventPublisher
	Logger  *slog.Logger

	// LockKey guards concurrent archive runs. Leave empty for the default.
	LockKey string

	// LockTTL bounds how long a crashed run can hold the lock.
	LockTTL time.Duration
}

// NewArchiveTranscriptJob creates the job.
func NewArchiveTranscriptJob(config ArchiveTranscriptJobConfig) *ArchiveTranscriptJob {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.LockKey == "" {
		config.LockKey = "geargrade:lock:archive-transcript"
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 2 * time.Minute
	}

	return &ArchiveTranscriptJob{
		source:  config.Source,
		archive: config.Archive,
		locker:  config.Locker,
		events:  config.Events,
		logger:  config.Logger,
		lockKey: config.LockKey,
		lockTTL: config.LockTTL,
	}
}

// Name implements scheduler.Job.
func (j *ArchiveTranscriptJob) Name() string {
	return "archive-transcript"
}

// Description implements scheduler.Job.
func (j *ArchiveTranscriptJob) Description() string {
	return "Appends current CGPA and credit aggregates to the transcript archive"
}

// Run implements scheduler.Job. A run that loses the lock race is a success:
// another worker is already archiving this window.
func (j *ArchiveTranscriptJob) Run(ctx context.Context) error {
	if j.locker != nil {
		acquired, err := j.locker.SetNX(ctx, j.lockKey, time.Now().UTC().Format(time.RFC3339), j.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire archive lock: %w", err)
		}
		if !acquired {
			j.logger.Debug("archive lock held elsewhere, skipping run")
			return nil
		}
		defer func() {
			if err := j.locker.Delete(context.WithoutCancel(ctx), j.lockKey); err != nil {
				j.logger.Warn("failed to release archive lock", "error", err)
			}
		}()
	}

	semesters := j.source.Semesters()
	courseCount := 0
	for i := range semesters {
		courseCount += len(semesters[i].Courses)
	}

	record := transcript.ArchiveRecord{
		ID:            uuid.NewString(),
		CGPA:          j.source.CGPA(),
		TotalCredits:  j.source.TotalCredits(),
		SemesterCount: len(semesters),
		CourseCount:   courseCount,
		ArchivedAt:    time.Now().UTC(),
	}

	if err := j.archive.Append(ctx, record); err != nil {
		return fmt.Errorf("append archive record: %w", err)
	}

	j.logger.Info("transcript aggregates archived",
		"cgpa", record.CGPA,
		"total_credits", record.TotalCredits,
		"semesters", record.SemesterCount,
		"courses", record.CourseCount,
	)

	if j.events != nil {
		event := shared.ArchiveWrittenEvent{
			BaseEvent:    shared.NewBaseEvent(shared.EventArchiveWritten, "transcript"),
			CGPA:         record.CGPA,
			TotalCredits: record.TotalCredits,
		}
		if err := j.events.Publish(event); err != nil {
			j.logger.Warn("failed to publish archive event", "error", err)
		}
	}

	return nil
}
