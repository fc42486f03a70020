package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Directory calls the hosted identity provider's user API.
type Directory struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// NewDirectory creates a directory client. With skip set, lookups succeed
// with synthesized profiles so the service runs without the provider.
func NewDirectory(baseURL string, skip bool) *Directory {
	return &Directory{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// LookupEmail resolves a user profile by email address.
func (d *Directory) LookupEmail(ctx context.Context, email string) (*Identity, error) {
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	if d.Skip {
		name := strings.SplitN(email, "@", 2)[0]
		return &Identity{ID: "dir-" + name, Name: name, Email: strings.ToLower(email), Role: "student"}, nil
	}

	endpoint := d.BaseURL + "/users?email=" + url.QueryEscape(strings.ToLower(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("directory error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Users []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		} `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Users) == 0 {
		return nil, ErrNotFound
	}
	u := out.Users[0]
	return &Identity{ID: u.ID, Name: u.Name, Email: strings.ToLower(u.Email), AvatarURL: u.AvatarURL, Role: "student"}, nil
}

// Health checks if the directory is reachable.
func (d *Directory) Health(ctx context.Context) error {
	if d.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("directory unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("directory unhealthy: %s", resp.Status)
	}

	return nil
}
