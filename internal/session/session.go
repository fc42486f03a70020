package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Errors surfaced by the attendance window state machine.
var (
	ErrNotFound      = errors.New("attendance session not found")
	ErrInvalidToken  = errors.New("no active session for token")
	ErrNotEnrolled   = errors.New("student not on the session roster")
	ErrSessionActive = errors.New("class already has an active session")
)

// Session is one attendance window for a class. The presence list is a
// snapshot of the roster at open time; later roster edits do not touch it.
type Session struct {
	ID        int64        `json:"id"`
	ClassID   int64        `json:"class_id"`
	Active    bool         `json:"is_active"`
	Token     string       `json:"qr_code"`
	Presence  PresenceList `json:"attendance_list"`
	CreatedAt time.Time    `json:"created_at"`
}

// Summary is the history view of a session.
type Summary struct {
	ID        int64     `json:"id"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// PresenceEntry records whether one enrolled student has checked in.
type PresenceEntry struct {
	Email   string `json:"email"`
	Present bool   `json:"present"`
}

// PresenceList holds one entry per student enrolled at open time.
type PresenceList []PresenceEntry

// NewPresenceList snapshots a roster with every student absent.
func NewPresenceList(roster []string) PresenceList {
	out := make(PresenceList, 0, len(roster))
	for _, email := range roster {
		if out.contains(email) {
			continue
		}
		out = append(out, PresenceEntry{Email: strings.ToLower(email)})
	}
	return out
}

// Mark sets a student present. It reports whether the email was on the
// snapshot and whether the entry actually changed; marking twice is a no-op.
func (p PresenceList) Mark(email string) (changed, enrolled bool) {
	for i := range p {
		if strings.EqualFold(p[i].Email, email) {
			if p[i].Present {
				return false, true
			}
			p[i].Present = true
			return true, true
		}
	}
	return false, false
}

func (p PresenceList) contains(email string) bool {
	for i := range p {
		if strings.EqualFold(p[i].Email, email) {
			return true
		}
	}
	return false
}

// NewToken builds the opaque string rendered as a QR code. A random UUID
// component makes the token unguessable; the class id and timestamp keep it
// greppable in logs.
func NewToken(classID int64) string {
	return fmt.Sprintf("attendance-%d-%d-%s", classID, time.Now().UnixMilli(), uuid.NewString())
}
