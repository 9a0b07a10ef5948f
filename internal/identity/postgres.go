package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresStore backs the identity store with Postgres through database/sql
// (pgx stdlib driver). Schema is applied at startup via EnsureSchema.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the identity tables. Idempotent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS identities (
	id             UUID PRIMARY KEY,
	username       TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL,
	password_hash  TEXT NOT NULL,
	security_stamp TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS roles (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS identity_roles (
	identity_id UUID NOT NULL REFERENCES identities (id) ON DELETE CASCADE,
	role_name   TEXT NOT NULL REFERENCES roles (name),
	PRIMARY KEY (identity_id, role_name)
);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply identity schema: %w", err)
	}
	return nil
}

// SeedRoles inserts role names if absent. Roles are provisioned out of band;
// the gateway itself never creates roles during registration.
func (s *PostgresStore) SeedRoles(ctx context.Context, roles ...string) error {
	for _, r := range roles {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, r); err != nil {
			return fmt.Errorf("seed role %q: %w", r, err)
		}
	}
	return nil
}

func (s *PostgresStore) RoleExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("role lookup: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CreateIdentity(ctx context.Context, username, email, password string) (Identity, error) {
	details := passwordPolicyViolations(password)
	if username == "" {
		details = append(details, "username is required")
	}
	if len(details) > 0 {
		return Identity{}, &CreationError{Details: details}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		SecurityStamp: uuid.NewString(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO identities (id, username, email, password_hash, security_stamp)
		 VALUES ($1, $2, $3, $4, $5)`,
		id.ID, id.Username, id.Email, id.PasswordHash, id.SecurityStamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Identity{}, &CreationError{
				Details: []string{fmt.Sprintf("username %q is already taken", username)},
			}
		}
		return Identity{}, fmt.Errorf("insert identity: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) AssignRole(ctx context.Context, id Identity, role string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_roles (identity_id, role_name) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, id.ID, role)
	if err != nil {
		return fmt.Errorf("assign role %q: %w", role, err)
	}
	return nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (Identity, bool, error) {
	var id Identity
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, security_stamp
		 FROM identities WHERE username = $1`, username).
		Scan(&id.ID, &id.Username, &id.Email, &id.PasswordHash, &id.SecurityStamp)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, fmt.Errorf("identity lookup: %w", err)
	}
	return id, true, nil
}

func (s *PostgresStore) CheckPassword(_ context.Context, id Identity, password string) (bool, error) {
	return passwordMatches(id.PasswordHash, password), nil
}

func (s *PostgresStore) RolesOf(ctx context.Context, id Identity) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role_name FROM identity_roles WHERE identity_id = $1 ORDER BY role_name`, id.ID)
	if err != nil {
		return nil, fmt.Errorf("roles lookup: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
