package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSCRIPT SNAPSHOT STORE
// Implements transcript.SnapshotRepository. The whole semester tree is one
// JSON document under a fixed key: reads and writes are all-or-nothing,
// there is no per-course persistence.
// ══════════════════════════════════════════════════════════════════════════════

// snapshotVersion is bumped when the wire format changes. Older payloads
// without the field decode as version 0 and are still accepted.
const snapshotVersion = 1

// snapshotDTO is the wire format of the full transcript.
type snapshotDTO struct {
	Version   int           `json:"version"`
	Semesters []semesterDTO `json:"semesters"`
}

type semesterDTO struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Courses []courseDTO `json:"courses"`
}

type courseDTO struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Credits float64 `json:"credits"`
	Grade   string  `json:"grade"`
}

// SnapshotStore persists the transcript blob in Redis.
type SnapshotStore struct {
	cache  *Cache
	key    string
	logger *slog.Logger
}

// NewSnapshotStore creates a snapshot store over an established cache.
func NewSnapshotStore(cache *Cache, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{
		cache:  cache,
		key:    KeyTranscriptSnapshot,
		logger: logger,
	}
}

// Save serializes the semester tree and writes it under the fixed key.
// The snapshot never expires.
func (s *SnapshotStore) Save(ctx context.Context, semesters []transcript.Semester) error {
	dto := snapshotDTO{
		Version:   snapshotVersion,
		Semesters: make([]semesterDTO, 0, len(semesters)),
	}
	for _, sem := range semesters {
		semDTO := semesterDTO{
			ID:      sem.ID,
			Name:    sem.Name,
			Courses: make([]courseDTO, 0, len(sem.Courses)),
		}
		for _, c := range sem.Courses {
			semDTO.Courses = append(semDTO.Courses, courseDTO{
				ID:      c.ID,
				Name:    c.Name,
				Credits: c.Credits,
				Grade:   string(c.Grade),
			})
		}
		dto.Semesters = append(dto.Semesters, semDTO)
	}

	if err := s.cache.Set(ctx, s.key, dto, 0); err != nil {
		return fmt.Errorf("snapshot save: %w", err)
	}
	return nil
}

// Load reads the blob and rebuilds the semester tree. A missing key maps to
// transcript.ErrSnapshotNotFound, an unparseable payload to
// transcript.ErrSnapshotCorrupted; the caller falls back to defaults in
// both cases.
func (s *SnapshotStore) Load(ctx context.Context) ([]transcript.Semester, error) {
	data, err := s.cache.GetBytes(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, transcript.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("snapshot load: %w", err)
	}

	var dto snapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		s.logger.Warn("discarding unparseable transcript snapshot",
			"bytes", len(data), "error", err)
		return nil, transcript.ErrSnapshotCorrupted
	}

	semesters := make([]transcript.Semester, 0, len(dto.Semesters))
	for _, semDTO := range dto.Semesters {
		sem := transcript.Semester{
			ID:      semDTO.ID,
			Name:    semDTO.Name,
			Courses: make([]transcript.Course, 0, len(semDTO.Courses)),
		}
		for _, cDTO := range semDTO.Courses {
			sem.Courses = append(sem.Courses, transcript.Course{
				ID:      cDTO.ID,
				Name:    cDTO.Name,
				Credits: cDTO.Credits,
				Grade:   grading.Symbol(cDTO.Grade).Normalize(),
			})
		}
		semesters = append(semesters, sem)
	}
	return semesters, nil
}

var _ transcript.SnapshotRepository = (*SnapshotStore)(nil)
