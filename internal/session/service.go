package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"classtrack/internal/classroom"
	"classtrack/internal/queue"
)

// Store is the persistence surface the service needs.
type Store interface {
	InsertActive(ctx context.Context, classID int64, token string, presence PresenceList) (Session, error)
	GetActive(ctx context.Context, classID int64) (*Session, error)
	GetByToken(ctx context.Context, token string) (*Session, error)
	GetByID(ctx context.Context, classID, sessionID int64) (*Session, error)
	UpdatePresence(ctx context.Context, sessionID int64, presence PresenceList) error
	Deactivate(ctx context.Context, classID int64) error
	ListByClass(ctx context.Context, classID int64) ([]Summary, error)
}

// ClassGetter fetches class records for ownership checks and roster snapshots.
type ClassGetter interface {
	Get(ctx context.Context, classID int64) (*classroom.Class, error)
}

// CheckInEvent is published to the queue for each accepted check-in.
type CheckInEvent struct {
	ClassID   int64     `json:"class_id"`
	SessionID int64     `json:"session_id"`
	Email     string    `json:"email"`
	At        time.Time `json:"at"`
}

// Status is the read view clients poll to decide between the scan prompt
// and the generate-code view.
type Status struct {
	Active    bool   `json:"is_active"`
	SessionID int64  `json:"session_id,omitempty"`
	Token     string `json:"qr_code,omitempty"`
}

// Service runs the attendance window state machine.
type Service struct {
	store   Store
	classes ClassGetter
	events  queue.Queue
}

// NewService creates a service. The queue may be nil when no worker runs.
func NewService(store Store, classes ClassGetter, events queue.Queue) *Service {
	return &Service{store: store, classes: classes, events: events}
}

// Open starts an attendance window for a class owned by the actor. The
// current roster is snapshot into an all-absent presence list and a fresh
// token is issued. A class with a window already open yields ErrSessionActive.
func (s *Service) Open(ctx context.Context, actorID string, classID int64) (Session, error) {
	c, err := s.classes.Get(ctx, classID)
	if err != nil {
		return Session{}, err
	}
	if !c.OwnedBy(actorID) {
		return Session{}, classroom.ErrUnauthorized
	}
	sess, err := s.store.InsertActive(ctx, classID, NewToken(classID), NewPresenceList(c.Roster))
	if err != nil {
		return Session{}, err
	}
	sessionsOpened.Inc()
	return sess, nil
}

// CheckIn marks the student present on the session matching the token.
// Re-submitting a token for an already-present student succeeds without
// change. An unknown or closed token yields ErrInvalidToken; a student who
// was not on the roster at open time yields ErrNotEnrolled.
func (s *Service) CheckIn(ctx context.Context, token, email string) (Session, error) {
	sess, err := s.store.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			checkinsRejected.WithLabelValues("invalid_token").Inc()
			return Session{}, ErrInvalidToken
		}
		return Session{}, err
	}
	if !sess.Active {
		checkinsRejected.WithLabelValues("invalid_token").Inc()
		return Session{}, ErrInvalidToken
	}
	changed, enrolled := sess.Presence.Mark(email)
	if !enrolled {
		checkinsRejected.WithLabelValues("not_enrolled").Inc()
		return Session{}, ErrNotEnrolled
	}
	if changed {
		if err := s.store.UpdatePresence(ctx, sess.ID, sess.Presence); err != nil {
			return Session{}, err
		}
		checkinsAccepted.Inc()
		s.publish(ctx, CheckInEvent{ClassID: sess.ClassID, SessionID: sess.ID, Email: email, At: time.Now().UTC()})
	}
	return *sess, nil
}

// Close ends the active window for a class owned by the actor. Closing a
// class with no open window is a no-op, not an error.
func (s *Service) Close(ctx context.Context, actorID string, classID int64) error {
	c, err := s.classes.Get(ctx, classID)
	if err != nil {
		return err
	}
	if !c.OwnedBy(actorID) {
		return classroom.ErrUnauthorized
	}
	return s.store.Deactivate(ctx, classID)
}

// QueryStatus reports whether a window is open and, if so, its token and id.
func (s *Service) QueryStatus(ctx context.Context, classID int64) (Status, error) {
	sess, err := s.store.GetActive(ctx, classID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Status{}, nil
		}
		return Status{}, err
	}
	return Status{Active: true, SessionID: sess.ID, Token: sess.Token}, nil
}

// History returns session summaries for a class, newest first.
func (s *Service) History(ctx context.Context, classID int64) ([]Summary, error) {
	return s.store.ListByClass(ctx, classID)
}

// Detail returns the full record of one session of a class.
func (s *Service) Detail(ctx context.Context, classID, sessionID int64) (*Session, error) {
	return s.store.GetByID(ctx, classID, sessionID)
}

func (s *Service) publish(ctx context.Context, evt CheckInEvent) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, queue.Message{Type: "checkin", Body: body}); err != nil {
		log.Printf("checkin event publish failed: %v", err)
	}
}
