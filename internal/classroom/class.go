package classroom

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors surfaced by registry and roster operations.
var (
	ErrInvalidInput    = errors.New("invalid class input")
	ErrNotFound        = errors.New("class not found")
	ErrUnauthorized    = errors.New("not the class teacher")
	ErrSelfEnrollment  = errors.New("cannot add yourself as a student")
	ErrUnknownIdentity = errors.New("student email not found")
	ErrAlreadyEnrolled = errors.New("student already added to the class")
)

// Class is a course taught by one teacher with an enrolled student roster.
type Class struct {
	ID           int64     `json:"id"`
	TeacherID    string    `json:"teacher_id"`
	TeacherName  string    `json:"teacher_name"`
	Subject      string    `json:"subject"`
	Room         string    `json:"room"`
	ScheduleDays []string  `json:"schedule_days"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Roster       Roster    `json:"students"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnedBy reports whether the given teacher owns this class.
func (c *Class) OwnedBy(teacherID string) bool {
	return c.TeacherID == teacherID
}

// Roster is the ordered list of enrolled student emails. Duplicates are
// rejected on mutation rather than silently deduplicated.
type Roster []string

// Contains reports membership, case-insensitive on email.
func (r Roster) Contains(email string) bool {
	for _, e := range r {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// Add appends an email, preserving insertion order.
func (r Roster) Add(email string) (Roster, error) {
	if r.Contains(email) {
		return r, ErrAlreadyEnrolled
	}
	return append(r, strings.ToLower(email)), nil
}

// Remove drops an email if present; removing an absent email is a no-op.
func (r Roster) Remove(email string) Roster {
	out := make(Roster, 0, len(r))
	for _, e := range r {
		if !strings.EqualFold(e, email) {
			out = append(out, e)
		}
	}
	return out
}

var weekdays = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

func validateScheduleDays(days []string) error {
	if len(days) == 0 {
		return fmt.Errorf("%w: at least one schedule day required", ErrInvalidInput)
	}
	for _, d := range days {
		if _, ok := weekdays[d]; !ok {
			return fmt.Errorf("%w: invalid weekday name %q", ErrInvalidInput, d)
		}
	}
	return nil
}
