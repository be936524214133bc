package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-inventory-console/users"
)

const createCredentialsTable = `
	CREATE TABLE IF NOT EXISTS console_credentials (
		session_key   TEXT PRIMARY KEY,
		access_token  TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT '',
		updated_at    TIMESTAMPTZ NOT NULL
	)`

// PostgresRepo keeps the credentials of every console session in one table,
// keyed by the console session id.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

// Migrate creates the credentials table if it does not exist
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createCredentialsTable); err != nil {
		return fmt.Errorf("[PostgresRepo Migrate] creating console_credentials: %w", err)
	}
	return nil
}

// For returns a Store bound to one console session
func (r *PostgresRepo) For(sessionKey string) Store {
	return &postgresStore{pool: r.pool, key: sessionKey}
}

// DeleteStale removes every row whose updated_at is before cutoff and returns the number removed
func (r *PostgresRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM console_credentials WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("[PostgresRepo DeleteStale] %w", err)
	}
	return res.RowsAffected(), nil
}

type postgresStore struct {
	pool *pgxpool.Pool
	key  string
}

var _ Store = (*postgresStore)(nil)

func (s *postgresStore) Load(ctx context.Context) (Credentials, error) {
	query := `
		SELECT access_token, refresh_token, role
		FROM console_credentials
		WHERE session_key = $1`

	var (
		creds Credentials
		role  string
	)
	err := s.pool.QueryRow(ctx, query, s.key).Scan(&creds.AccessToken, &creds.RefreshToken, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("[postgresStore Load] session %s: %w", s.key, err)
	}
	creds.Role = users.Role(role)
	return creds, nil
}

func (s *postgresStore) Save(ctx context.Context, creds Credentials) error {
	query := `
		INSERT INTO console_credentials
			(session_key, access_token, refresh_token, role, updated_at)
		VALUES
			($1, $2, $3, $4, $5)
		ON CONFLICT (session_key) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, query, s.key, creds.AccessToken, creds.RefreshToken, string(creds.Role), time.Now()); err != nil {
		return fmt.Errorf("[postgresStore Save] session %s: %w", s.key, err)
	}
	return nil
}

func (s *postgresStore) SetAccessToken(ctx context.Context, accessToken string, role users.Role) error {
	query := `
		INSERT INTO console_credentials
			(session_key, access_token, role, updated_at)
		VALUES
			($1, $2, $3, $4)
		ON CONFLICT (session_key) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, query, s.key, accessToken, string(role), time.Now()); err != nil {
		return fmt.Errorf("[postgresStore SetAccessToken] session %s: %w", s.key, err)
	}
	return nil
}

func (s *postgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM console_credentials WHERE session_key = $1`, s.key); err != nil {
		return fmt.Errorf("[postgresStore Clear] session %s: %w", s.key, err)
	}
	return nil
}
