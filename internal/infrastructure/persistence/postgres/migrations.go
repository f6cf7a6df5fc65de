// Package postgres implements the PostgreSQL persistence layer for GearGrade.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE TRANSCRIPT ARCHIVE
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create transcript archive table
-- Version: 001

-- Periodic snapshots of transcript aggregates. Append-only: the worker
-- writes a row per run, queries read the CGPA trend over time.
CREATE TABLE IF NOT EXISTS transcript_archive (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    cgpa DECIMAL(4,2) NOT NULL,
    total_credits DECIMAL(6,1) NOT NULL,
    semester_count INTEGER NOT NULL,
    course_count INTEGER NOT NULL,
    archived_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_cgpa CHECK (cgpa >= 0 AND cgpa <= 10),
    CONSTRAINT valid_total_credits CHECK (total_credits >= 0),
    CONSTRAINT valid_semester_count CHECK (semester_count >= 0),
    CONSTRAINT valid_course_count CHECK (course_count >= 0)
);

-- History queries scan by time range.
CREATE INDEX IF NOT EXISTS idx_transcript_archive_archived_at
    ON transcript_archive(archived_at);
`

const migration001Down = `
DROP INDEX IF EXISTS idx_transcript_archive_archived_at;
DROP TABLE IF EXISTS transcript_archive;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE API KEYS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create API keys table
-- Version: 002

-- API keys are stored as bcrypt hashes; the HTTP middleware compares the
-- presented key against the active hashes.
CREATE TABLE IF NOT EXISTS api_keys (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL UNIQUE,
    key_hash TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    revoked_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_api_keys_active ON api_keys(active) WHERE active;
`

const migration002Down = `
DROP INDEX IF EXISTS idx_api_keys_active;
DROP TABLE IF EXISTS api_keys;
`

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_transcript_archive",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_api_keys",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}
