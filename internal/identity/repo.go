package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Repository caches resolved identities in the users table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert stores or refreshes a cached identity.
func (r *Repository) Upsert(ctx context.Context, id Identity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, avatar_url, role)
		VALUES ($1, $2, LOWER($3), $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			avatar_url = EXCLUDED.avatar_url
	`, id.ID, id.Name, id.Email, nullable(id.AvatarURL), id.Role)
	return err
}

// GetByID returns a cached identity by its provider ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Identity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(avatar_url, ''), role, created_at
		FROM users WHERE id = $1
	`, id)
	return scanIdentity(row)
}

// GetByEmail returns a cached identity by email, case-insensitive.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(avatar_url, ''), role, created_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanIdentity(row)
}

// ListByEmails returns the cached identities for the given emails keyed by email.
func (r *Repository) ListByEmails(ctx context.Context, emails []string) (map[string]Identity, error) {
	out := make(map[string]Identity, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(e)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, COALESCE(avatar_url, ''), role, created_at
		FROM users WHERE LOWER(email) = ANY($1)
	`, pq.Array(lowered))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id Identity
		if err := rows.Scan(&id.ID, &id.Name, &id.Email, &id.AvatarURL, &id.Role, &id.CreatedAt); err != nil {
			return nil, err
		}
		out[strings.ToLower(id.Email)] = id
	}
	return out, rows.Err()
}

func scanIdentity(row *sql.Row) (*Identity, error) {
	var id Identity
	if err := row.Scan(&id.ID, &id.Name, &id.Email, &id.AvatarURL, &id.Role, &id.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &id, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
