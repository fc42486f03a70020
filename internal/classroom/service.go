package classroom

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, c Class) (Class, error)
	Update(ctx context.Context, c Class) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*Class, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]Class, error)
}

// IdentityChecker verifies that an email belongs to a known user.
type IdentityChecker interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// Service implements the class registry and roster management.
type Service struct {
	store      Store
	identities IdentityChecker
}

// NewService creates a service backed by a store and an identity checker.
func NewService(store Store, identities IdentityChecker) *Service {
	return &Service{store: store, identities: identities}
}

// CreateParams are the fields a teacher supplies for a new class.
type CreateParams struct {
	Subject      string
	Room         string
	ScheduleDays []string
	StartDate    time.Time
	EndDate      time.Time
}

// Create validates and persists a new class owned by the given teacher.
func (s *Service) Create(ctx context.Context, teacherID, teacherName string, p CreateParams) (Class, error) {
	if teacherID == "" {
		return Class{}, fmt.Errorf("%w: teacher id required", ErrInvalidInput)
	}
	if p.Subject == "" || p.Room == "" {
		return Class{}, fmt.Errorf("%w: subject and room required", ErrInvalidInput)
	}
	if err := validateScheduleDays(p.ScheduleDays); err != nil {
		return Class{}, err
	}
	if p.EndDate.Before(p.StartDate) {
		return Class{}, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}
	return s.store.Insert(ctx, Class{
		TeacherID:    teacherID,
		TeacherName:  teacherName,
		Subject:      p.Subject,
		Room:         p.Room,
		ScheduleDays: p.ScheduleDays,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		Roster:       Roster{},
	})
}

// UpdateParams carries optional field changes; nil fields keep prior values.
type UpdateParams struct {
	Subject      *string
	Room         *string
	ScheduleDays []string
	StartDate    *time.Time
	EndDate      *time.Time
}

// Update applies the provided fields to a class owned by the actor.
func (s *Service) Update(ctx context.Context, actorID string, classID int64, p UpdateParams) (Class, error) {
	c, err := s.owned(ctx, actorID, classID)
	if err != nil {
		return Class{}, err
	}
	if p.Subject != nil {
		c.Subject = *p.Subject
	}
	if p.Room != nil {
		c.Room = *p.Room
	}
	if p.ScheduleDays != nil {
		if err := validateScheduleDays(p.ScheduleDays); err != nil {
			return Class{}, err
		}
		c.ScheduleDays = p.ScheduleDays
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = *p.EndDate
	}
	if c.EndDate.Before(c.StartDate) {
		return Class{}, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}
	if err := s.store.Update(ctx, *c); err != nil {
		return Class{}, err
	}
	return *c, nil
}

// Delete removes a class owned by the actor. Past attendance sessions for
// the class are kept for history.
func (s *Service) Delete(ctx context.Context, actorID string, classID int64) error {
	if _, err := s.owned(ctx, actorID, classID); err != nil {
		return err
	}
	return s.store.Delete(ctx, classID)
}

// List returns all classes owned by a teacher.
func (s *Service) List(ctx context.Context, teacherID string) ([]Class, error) {
	return s.store.ListByTeacher(ctx, teacherID)
}

// Get returns a single class.
func (s *Service) Get(ctx context.Context, classID int64) (*Class, error) {
	return s.store.Get(ctx, classID)
}

// AddStudent enrolls a student email into a class roster. The actor must own
// the class and cannot enroll themselves, and the email must resolve to a
// known identity.
func (s *Service) AddStudent(ctx context.Context, actorID, actorEmail string, classID int64, email string) (Class, error) {
	if strings.EqualFold(email, actorEmail) {
		return Class{}, ErrSelfEnrollment
	}
	c, err := s.owned(ctx, actorID, classID)
	if err != nil {
		return Class{}, err
	}
	known, err := s.identities.Exists(ctx, email)
	if err != nil {
		return Class{}, err
	}
	if !known {
		return Class{}, ErrUnknownIdentity
	}
	roster, err := c.Roster.Add(email)
	if err != nil {
		return Class{}, err
	}
	c.Roster = roster
	if err := s.store.Update(ctx, *c); err != nil {
		return Class{}, err
	}
	return *c, nil
}

// RemoveStudent drops a student from the roster; removing an absent email
// succeeds without change. Presence lists of past sessions are untouched.
func (s *Service) RemoveStudent(ctx context.Context, actorID string, classID int64, email string) (Class, error) {
	c, err := s.owned(ctx, actorID, classID)
	if err != nil {
		return Class{}, err
	}
	c.Roster = c.Roster.Remove(email)
	if err := s.store.Update(ctx, *c); err != nil {
		return Class{}, err
	}
	return *c, nil
}

func (s *Service) owned(ctx context.Context, actorID string, classID int64) (*Class, error) {
	c, err := s.store.Get(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(actorID) {
		return nil, ErrUnauthorized
	}
	return c, nil
}
