// Package credentials loads provider API keys from the database so they can
// be rotated without a redeploy. Environment variables win when set.
package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"server/internal/infra"
)

const (
	ProviderGenAPI = "genapi"
	ProviderStripe = "stripe"
)

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// GenAPIKey returns the generation provider key, empty when not configured.
func (s *Store) GenAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGenAPI)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, `SELECT token FROM api_credentials WHERE provider = $1`, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetToken stores or rotates a provider key.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("credentials: token is required")
	}
	_, err := s.sql.Exec(ctx, `
INSERT INTO api_credentials (provider, token)
VALUES ($1, $2)
ON CONFLICT (provider) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()`, provider, token)
	return err
}
