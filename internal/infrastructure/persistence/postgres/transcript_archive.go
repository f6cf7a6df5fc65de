package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSCRIPT ARCHIVE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TranscriptArchiveRepository implements transcript.ArchiveRepository.
// The table is append-only; deduplication per run is the scheduler's job.
type TranscriptArchiveRepository struct {
	conn *Connection
}

// NewTranscriptArchiveRepository creates a new TranscriptArchiveRepository.
func NewTranscriptArchiveRepository(conn *Connection) *TranscriptArchiveRepository {
	return &TranscriptArchiveRepository{conn: conn}
}

// Append inserts an archive record.
func (r *TranscriptArchiveRepository) Append(ctx context.Context, record transcript.ArchiveRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.ArchivedAt.IsZero() {
		record.ArchivedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transcript_archive (
			id, cgpa, total_credits, semester_count, course_count, archived_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		record.ID,
		record.CGPA,
		record.TotalCredits,
		record.SemesterCount,
		record.CourseCount,
		record.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append archive record: %w", err)
	}
	return nil
}

// History returns archive records since the given time, oldest first.
func (r *TranscriptArchiveRepository) History(ctx context.Context, since time.Time, limit int) ([]transcript.ArchiveRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, cgpa, total_credits, semester_count, course_count, archived_at
		FROM transcript_archive
		WHERE archived_at >= $1
		ORDER BY archived_at ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive history: %w", err)
	}
	defer rows.Close()

	var records []transcript.ArchiveRecord
	for rows.Next() {
		var rec transcript.ArchiveRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CGPA,
			&rec.TotalCredits,
			&rec.SemesterCount,
			&rec.CourseCount,
			&rec.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan archive record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Latest returns the most recent archive record, or ErrNoRows.
func (r *TranscriptArchiveRepository) Latest(ctx context.Context) (*transcript.ArchiveRecord, error) {
	query := `
		SELECT id, cgpa, total_credits, semester_count, course_count, archived_at
		FROM transcript_archive
		ORDER BY archived_at DESC
		LIMIT 1
	`

	var rec transcript.ArchiveRecord
	err := r.conn.QueryRow(ctx, query).Scan(
		&rec.ID,
		&rec.CGPA,
		&rec.TotalCredits,
		&rec.SemesterCount,
		&rec.CourseCount,
		&rec.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ transcript.ArchiveRepository = (*TranscriptArchiveRepository)(nil)
