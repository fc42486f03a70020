package classroom

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	nextID  int64
	classes map[int64]Class
}

func newFakeStore() *fakeStore {
	return &fakeStore{classes: make(map[int64]Class)}
}

func (f *fakeStore) Insert(_ context.Context, c Class) (Class, error) {
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	f.classes[c.ID] = c
	return c, nil
}

func (f *fakeStore) Update(_ context.Context, c Class) error {
	if _, ok := f.classes[c.ID]; !ok {
		return ErrNotFound
	}
	f.classes[c.ID] = c
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.classes[id]; !ok {
		return ErrNotFound
	}
	delete(f.classes, id)
	return nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (*Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) ListByTeacher(_ context.Context, teacherID string) ([]Class, error) {
	var out []Class
	for _, c := range f.classes {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeIdentities struct {
	known map[string]bool
}

func (f *fakeIdentities) Exists(_ context.Context, email string) (bool, error) {
	return f.known[email], nil
}

func newTestService(known ...string) (*Service, *fakeStore) {
	ids := &fakeIdentities{known: make(map[string]bool)}
	for _, e := range known {
		ids.known[e] = true
	}
	store := newFakeStore()
	return NewService(store, ids), store
}

func mustCreate(t *testing.T, svc *Service) Class {
	t.Helper()
	c, err := svc.Create(context.Background(), "t-1", "Ms. Frizzle", CreateParams{
		Subject:      "Physics",
		Room:         "B12",
		ScheduleDays: []string{"Monday", "Wednesday"},
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return c
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "t-1", "T", CreateParams{Room: "B12", ScheduleDays: []string{"Monday"}})
	assert.Error(t, err, "missing subject")

	_, err = svc.Create(ctx, "t-1", "T", CreateParams{Subject: "Math", Room: "B12", ScheduleDays: []string{"Funday"}})
	assert.ErrorIs(t, err, ErrInvalidInput, "bad weekday name")

	_, err = svc.Create(ctx, "t-1", "T", CreateParams{
		Subject: "Math", Room: "B12", ScheduleDays: []string{"Monday"},
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err, "end before start")
}

func TestUpdatePartialFields(t *testing.T) {
	svc, _ := newTestService()
	c := mustCreate(t, svc)

	room := "C3"
	updated, err := svc.Update(context.Background(), "t-1", c.ID, UpdateParams{Room: &room})
	require.NoError(t, err)
	assert.Equal(t, "C3", updated.Room)
	assert.Equal(t, "Physics", updated.Subject, "unspecified fields keep prior values")
	assert.Equal(t, c.StartDate, updated.StartDate)
}

func TestUpdateRequiresOwner(t *testing.T) {
	svc, _ := newTestService()
	c := mustCreate(t, svc)

	room := "C3"
	_, err := svc.Update(context.Background(), "t-2", c.ID, UpdateParams{Room: &room})
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = svc.Delete(context.Background(), "t-2", c.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetMissing(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddStudentSelfEnrollment(t *testing.T) {
	svc, _ := newTestService("teacher@x.com")
	c := mustCreate(t, svc)

	_, err := svc.AddStudent(context.Background(), "t-1", "teacher@x.com", c.ID, "Teacher@X.com")
	assert.ErrorIs(t, err, ErrSelfEnrollment)
}

func TestAddStudentUnknownIdentity(t *testing.T) {
	svc, _ := newTestService()
	c := mustCreate(t, svc)

	_, err := svc.AddStudent(context.Background(), "t-1", "teacher@x.com", c.ID, "ghost@x.com")
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestAddStudentAlreadyEnrolled(t *testing.T) {
	svc, _ := newTestService("a@x.com")
	c := mustCreate(t, svc)
	ctx := context.Background()

	_, err := svc.AddStudent(ctx, "t-1", "teacher@x.com", c.ID, "a@x.com")
	require.NoError(t, err)

	_, err = svc.AddStudent(ctx, "t-1", "teacher@x.com", c.ID, "A@x.com")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestRemoveThenAddRestoresMembership(t *testing.T) {
	svc, _ := newTestService("a@x.com", "b@x.com")
	c := mustCreate(t, svc)
	ctx := context.Background()

	_, err := svc.AddStudent(ctx, "t-1", "teacher@x.com", c.ID, "a@x.com")
	require.NoError(t, err)
	_, err = svc.AddStudent(ctx, "t-1", "teacher@x.com", c.ID, "b@x.com")
	require.NoError(t, err)

	updated, err := svc.RemoveStudent(ctx, "t-1", c.ID, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, Roster{"b@x.com"}, updated.Roster)

	updated, err = svc.AddStudent(ctx, "t-1", "teacher@x.com", c.ID, "a@x.com")
	require.NoError(t, err)
	assert.True(t, updated.Roster.Contains("a@x.com"))
}

func TestRemoveAbsentStudentIsNoop(t *testing.T) {
	svc, _ := newTestService()
	c := mustCreate(t, svc)

	updated, err := svc.RemoveStudent(context.Background(), "t-1", c.ID, "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, updated.Roster)
}

func TestRosterValueSemantics(t *testing.T) {
	r := Roster{}
	r, err := r.Add("a@x.com")
	require.NoError(t, err)

	_, err = r.Add("A@X.com")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled, "dup rejected case-insensitively")

	r = r.Remove("a@x.com")
	assert.False(t, r.Contains("a@x.com"))
	r = r.Remove("a@x.com")
	assert.Empty(t, r)
}
