package classroom

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
)

// Repository persists classes in Postgres. The roster is stored as a JSONB
// array and the schedule as comma-joined weekday names.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new class and returns it with ID and CreatedAt set.
func (r *Repository) Insert(ctx context.Context, c Class) (Class, error) {
	roster, err := json.Marshal(c.Roster)
	if err != nil {
		return Class{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO classes (teacher_name, teacher_id, subject, room, schedule, start_date, end_date, students)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`, c.TeacherName, c.TeacherID, c.Subject, c.Room, joinDays(c.ScheduleDays), c.StartDate, c.EndDate, roster)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return Class{}, err
	}
	return c, nil
}

// Update rewrites the mutable columns of a class.
func (r *Repository) Update(ctx context.Context, c Class) error {
	roster, err := json.Marshal(c.Roster)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE classes
		SET subject = $2, room = $3, schedule = $4, start_date = $5, end_date = $6, students = $7
		WHERE id = $1
	`, c.ID, c.Subject, c.Room, joinDays(c.ScheduleDays), c.StartDate, c.EndDate, roster)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// Delete removes a class row. Historical attendance sessions are retained.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// Get returns a single class by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, teacher_name, teacher_id, subject, room, schedule, start_date, end_date, students, created_at
		FROM classes WHERE id = $1
	`, id)
	c, err := scanClass(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByTeacher returns all classes owned by a teacher, oldest first.
func (r *Repository) ListByTeacher(ctx context.Context, teacherID string) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, teacher_name, teacher_id, subject, room, schedule, start_date, end_date, students, created_at
		FROM classes WHERE teacher_id = $1
		ORDER BY created_at
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Class
	for rows.Next() {
		c, err := scanClass(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanClass(scan func(dest ...any) error) (*Class, error) {
	var (
		c        Class
		schedule string
		roster   []byte
	)
	if err := scan(&c.ID, &c.TeacherName, &c.TeacherID, &c.Subject, &c.Room, &schedule,
		&c.StartDate, &c.EndDate, &roster, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ScheduleDays = splitDays(schedule)
	if len(roster) > 0 {
		if err := json.Unmarshal(roster, &c.Roster); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func joinDays(days []string) string {
	return strings.Join(days, ",")
}

func splitDays(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
