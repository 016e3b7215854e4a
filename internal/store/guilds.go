package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Guild represents a registered chat community in the guilds table.
// Each guild owns one API key its moderation bot authenticates with.
type Guild struct {
	ID           string
	Name         string
	APIKeyHash   string
	APIKeyPrefix string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GenerateAPIKey creates a new msk_ API key with its bcrypt hash and
// prefix. Returns (fullKey, hash, prefix, error). The fullKey is shown
// to the operator once.
func GenerateAPIKey() (string, string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}
	fullKey := "msk_" + hex.EncodeToString(raw)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(fullKey), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}

	prefix := fullKey[:8] // "msk_abcd"
	return fullKey, string(hashBytes), prefix, nil
}

// CreateGuild inserts a new guild.
// Returns the guild and the plaintext API key (shown once).
func (s *Store) CreateGuild(ctx context.Context, name string) (*Guild, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("CreateGuild: %w", err)
	}

	var g Guild
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO guilds (name, api_key_hash, api_key_prefix)
		VALUES ($1, $2, $3)
		RETURNING id, name, api_key_hash, api_key_prefix, created_at, updated_at`,
		name, keyHash, keyPrefix,
	).Scan(&g.ID, &g.Name, &g.APIKeyHash, &g.APIKeyPrefix, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("CreateGuild: %w", err)
	}

	return &g, fullKey, nil
}

// ListGuilds returns all guilds ordered by created_at DESC.
func (s *Store) ListGuilds(ctx context.Context) ([]*Guild, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, created_at, updated_at
		FROM guilds ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListGuilds: %w", err)
	}
	defer rows.Close()

	var guilds []*Guild
	for rows.Next() {
		var g Guild
		if err := rows.Scan(&g.ID, &g.Name, &g.APIKeyHash, &g.APIKeyPrefix,
			&g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListGuilds: %w", err)
		}
		guilds = append(guilds, &g)
	}
	return guilds, rows.Err()
}

// GetGuild returns a guild by ID, or nil if not found.
func (s *Store) GetGuild(ctx context.Context, id string) (*Guild, error) {
	var g Guild
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, created_at, updated_at
		FROM guilds WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.APIKeyHash, &g.APIKeyPrefix, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetGuild: %w", err)
	}
	return &g, nil
}

// DeleteGuild deletes a guild by ID. Its channel policies cascade.
func (s *Store) DeleteGuild(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM guilds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteGuild: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RotateAPIKey generates a new API key for a guild.
// Returns the updated guild and the plaintext key (shown once).
func (s *Store) RotateAPIKey(ctx context.Context, id string) (*Guild, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("RotateAPIKey: %w", err)
	}

	var g Guild
	err = s.db.QueryRowContext(ctx, `
		UPDATE guilds SET
			api_key_hash   = $2,
			api_key_prefix = $3,
			updated_at     = now()
		WHERE id = $1
		RETURNING id, name, api_key_hash, api_key_prefix, created_at, updated_at`,
		id, keyHash, keyPrefix,
	).Scan(&g.ID, &g.Name, &g.APIKeyHash, &g.APIKeyPrefix, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("RotateAPIKey: %w", sql.ErrNoRows)
	}
	if err != nil {
		return nil, "", fmt.Errorf("RotateAPIKey: %w", err)
	}

	return &g, fullKey, nil
}

// LookupByPrefix finds a guild by API key prefix (first 8 chars).
// Used by auth to narrow candidates before bcrypt verify.
func (s *Store) LookupByPrefix(ctx context.Context, prefix string) (*Guild, error) {
	var g Guild
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, created_at, updated_at
		FROM guilds WHERE api_key_prefix = $1`, prefix,
	).Scan(&g.ID, &g.Name, &g.APIKeyHash, &g.APIKeyPrefix, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LookupByPrefix: %w", err)
	}
	return &g, nil
}
