package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists attendance sessions in Postgres. The presence list is
// stored as a JSONB array mirroring its in-memory shape.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertActive opens a session in a single conditional insert. The WHERE
// clause plus the partial unique index guarantee at most one active session
// per class even under concurrent opens; the loser gets ErrSessionActive.
func (r *Repository) InsertActive(ctx context.Context, classID int64, token string, presence PresenceList) (Session, error) {
	blob, err := json.Marshal(presence)
	if err != nil {
		return Session{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_sessions (class_id, qr_code, attendance_list, is_active)
		SELECT $1, $2, $3, TRUE
		WHERE NOT EXISTS (
			SELECT 1 FROM attendance_sessions WHERE class_id = $1 AND is_active
		)
		RETURNING id, created_at
	`, classID, token, blob)

	s := Session{ClassID: classID, Active: true, Token: token, Presence: presence}
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return Session{}, ErrSessionActive
		}
		return Session{}, err
	}
	return s, nil
}

// GetActive returns the active session for a class, ErrNotFound if none.
func (r *Repository) GetActive(ctx context.Context, classID int64) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, is_active, qr_code, attendance_list, created_at
		FROM attendance_sessions
		WHERE class_id = $1 AND is_active
	`, classID)
	return scanSession(row.Scan)
}

// GetByToken returns the session carrying the given token.
func (r *Repository) GetByToken(ctx context.Context, token string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, is_active, qr_code, attendance_list, created_at
		FROM attendance_sessions
		WHERE qr_code = $1
	`, token)
	return scanSession(row.Scan)
}

// GetByID returns a session scoped to its class; a session id belonging to a
// different class reads as absent.
func (r *Repository) GetByID(ctx context.Context, classID, sessionID int64) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, is_active, qr_code, attendance_list, created_at
		FROM attendance_sessions
		WHERE id = $1 AND class_id = $2
	`, sessionID, classID)
	return scanSession(row.Scan)
}

// UpdatePresence rewrites a session's presence blob.
func (r *Repository) UpdatePresence(ctx context.Context, sessionID int64, presence PresenceList) error {
	blob, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE attendance_sessions SET attendance_list = $2 WHERE id = $1
	`, sessionID, blob)
	return err
}

// Deactivate closes the active session for a class, if any.
func (r *Repository) Deactivate(ctx context.Context, classID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance_sessions SET is_active = FALSE WHERE class_id = $1 AND is_active
	`, classID)
	return err
}

// ListByClass returns session summaries for a class, newest first.
func (r *Repository) ListByClass(ctx context.Context, classID int64) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, is_active, created_at
		FROM attendance_sessions
		WHERE class_id = $1
		ORDER BY created_at DESC
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Active, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountByClass returns how many sessions a class has held.
func (r *Repository) CountByClass(ctx context.Context, classID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_sessions WHERE class_id = $1
	`, classID).Scan(&n)
	return n, err
}

func scanSession(scan func(dest ...any) error) (*Session, error) {
	var (
		s    Session
		blob []byte
	)
	if err := scan(&s.ID, &s.ClassID, &s.Active, &s.Token, &blob, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &s.Presence); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
