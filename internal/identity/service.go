package identity

import (
	"context"
	"errors"
)

// Cache is the subset of the users table the service needs.
type Cache interface {
	Upsert(ctx context.Context, id Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	ListByEmails(ctx context.Context, emails []string) (map[string]Identity, error)
}

// Lookup resolves identities from the external provider.
type Lookup interface {
	LookupEmail(ctx context.Context, email string) (*Identity, error)
}

// Service resolves identities through the local cache first, then the directory.
type Service struct {
	cache Cache
	dir   Lookup
}

// NewService creates a service over a cache and a directory client.
func NewService(cache Cache, dir Lookup) *Service {
	return &Service{cache: cache, dir: dir}
}

// Resolve returns the identity for an email, caching directory hits.
func (s *Service) Resolve(ctx context.Context, email string) (*Identity, error) {
	if cached, err := s.cache.GetByEmail(ctx, email); err == nil {
		return cached, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	id, err := s.dir.LookupEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Upsert(ctx, *id); err != nil {
		return nil, err
	}
	return id, nil
}

// Exists reports whether the email resolves to a known identity.
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.Resolve(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DisplayNames returns email -> display name for the given emails.
// Emails with no cached identity are absent from the result.
func (s *Service) DisplayNames(ctx context.Context, emails []string) (map[string]string, error) {
	ids, err := s.cache.ListByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(ids))
	for email, id := range ids {
		names[email] = id.Name
	}
	return names, nil
}
