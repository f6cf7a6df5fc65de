package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// API KEY REPOSITORY IMPLEMENTATION
// Keys are stored as bcrypt hashes only; the raw key is shown once at
// creation time and never persisted.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrAPIKeyInvalid is returned when no active key matches.
	ErrAPIKeyInvalid = errors.New("postgres: api key invalid")

	// ErrAPIKeyExists is returned when a key name is already taken.
	ErrAPIKeyExists = errors.New("postgres: api key name already exists")
)

// APIKey is one issued key (hash only).
type APIKey struct {
	ID        string
	Name      string
	KeyHash   string
	Active    bool
	CreatedAt time.Time
	RevokedAt *time.Time
}

// APIKeyRepository manages issued API keys.
type APIKeyRepository struct {
	conn *Connection
	cost int
}

// NewAPIKeyRepository creates a new APIKeyRepository.
func NewAPIKeyRepository(conn *Connection) *APIKeyRepository {
	return &APIKeyRepository{conn: conn, cost: bcrypt.DefaultCost}
}

// Create hashes and stores a new key under the given name.
func (r *APIKeyRepository) Create(ctx context.Context, name, rawKey string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), r.cost)
	if err != nil {
		return fmt.Errorf("failed to hash api key: %w", err)
	}

	query := `
		INSERT INTO api_keys (id, name, key_hash, active, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())
	`
	if _, err := r.conn.Exec(ctx, query, uuid.NewString(), name, string(hash)); err != nil {
		if IsUniqueViolation(err) {
			return ErrAPIKeyExists
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// Verify checks the presented key against all active hashes.
// Returns ErrAPIKeyInvalid when nothing matches.
func (r *APIKeyRepository) Verify(ctx context.Context, rawKey string) error {
	rows, err := r.conn.Query(ctx, `SELECT key_hash FROM api_keys WHERE active`)
	if err != nil {
		return fmt.Errorf("failed to load api keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return fmt.Errorf("failed to scan api key: %w", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawKey)) == nil {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return ErrAPIKeyInvalid
}

// Revoke deactivates a key by name.
func (r *APIKeyRepository) Revoke(ctx context.Context, name string) error {
	query := `
		UPDATE api_keys SET active = FALSE, revoked_at = NOW()
		WHERE name = $1 AND active
	`
	tag, err := r.conn.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyInvalid
	}
	return nil
}
