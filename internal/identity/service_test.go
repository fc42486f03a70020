package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	byEmail map[string]Identity
	upserts int
}

func newFakeCache() *fakeCache {
	return &fakeCache{byEmail: make(map[string]Identity)}
}

func (f *fakeCache) Upsert(_ context.Context, id Identity) error {
	f.upserts++
	f.byEmail[strings.ToLower(id.Email)] = id
	return nil
}

func (f *fakeCache) GetByID(_ context.Context, id string) (*Identity, error) {
	for _, v := range f.byEmail {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeCache) GetByEmail(_ context.Context, email string) (*Identity, error) {
	if v, ok := f.byEmail[strings.ToLower(email)]; ok {
		return &v, nil
	}
	return nil, ErrNotFound
}

func (f *fakeCache) ListByEmails(_ context.Context, emails []string) (map[string]Identity, error) {
	out := make(map[string]Identity)
	for _, e := range emails {
		if v, ok := f.byEmail[strings.ToLower(e)]; ok {
			out[strings.ToLower(e)] = v
		}
	}
	return out, nil
}

type fakeLookup struct {
	known map[string]Identity
	calls int
}

func (f *fakeLookup) LookupEmail(_ context.Context, email string) (*Identity, error) {
	f.calls++
	if v, ok := f.known[strings.ToLower(email)]; ok {
		return &v, nil
	}
	return nil, ErrNotFound
}

func TestResolveCachesDirectoryHits(t *testing.T) {
	cache := newFakeCache()
	dir := &fakeLookup{known: map[string]Identity{
		"a@x.com": {ID: "u-1", Name: "Alice", Email: "a@x.com"},
	}}
	svc := NewService(cache, dir)
	ctx := context.Background()

	got, err := svc.Resolve(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, 1, dir.calls)
	assert.Equal(t, 1, cache.upserts)

	_, err = svc.Resolve(ctx, "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, 1, dir.calls, "second resolve served from cache")
}

func TestExists(t *testing.T) {
	cache := newFakeCache()
	dir := &fakeLookup{known: map[string]Identity{
		"a@x.com": {ID: "u-1", Name: "Alice", Email: "a@x.com"},
	}}
	svc := NewService(cache, dir)
	ctx := context.Background()

	ok, err := svc.Exists(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, "ghost@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisplayNames(t *testing.T) {
	cache := newFakeCache()
	require.NoError(t, cache.Upsert(context.Background(), Identity{ID: "u-1", Name: "Alice", Email: "a@x.com"}))
	svc := NewService(cache, &fakeLookup{})

	names, err := svc.DisplayNames(context.Background(), []string{"a@x.com", "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a@x.com": "Alice"}, names)
}

func TestDirectorySkipSynthesizesProfiles(t *testing.T) {
	dir := NewDirectory("http://localhost:8000", true)

	got, err := dir.LookupEmail(context.Background(), "Carol@X.com")
	require.NoError(t, err)
	assert.Equal(t, "carol@x.com", got.Email)
	assert.Equal(t, "Carol", got.Name)
}
