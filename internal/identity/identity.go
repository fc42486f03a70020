package identity

import (
	"errors"
	"time"
)

// Identity is a resolved user profile from the directory or the local cache.
// The rest of the system keys on Email and treats everything else as display data.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotFound is returned when neither the cache nor the directory knows the user.
var ErrNotFound = errors.New("identity not found")
