// Package identity talks to the external identity directory and caches its
// answers for the process lifetime. The directory is consulted, not owned:
// when it is unconfigured or unreachable, browse flows degrade to showing
// raw identities, and upload identity resolution reports absent (which the
// authorization chain treats as a deny).
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Record is an identity directory entry for one folder identity.
type Record struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Group     string `json:"group"`
}

// DisplayName joins the record's name parts, falling back to the identity
// key when the directory holds no name.
func (r Record) DisplayName(fallback string) string {
	name := strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
	if name == "" {
		return fallback
	}
	return name
}

// Resolver is the lookup contract the cache and authorization chain depend
// on. Implemented by Client; tests substitute function-field fakes.
type Resolver interface {
	// RecordByName fetches the directory record for an identity.
	// The second return is false when the record is absent for any
	// reason: unknown identity, unconfigured or unreachable service.
	RecordByName(ctx context.Context, name string) (*Record, bool)

	// UsernameByIP reverse-resolves an uploader's source IP to a
	// username. False means no identity could be resolved.
	UsernameByIP(ctx context.Context, ip string) (string, bool)
}

// Client is the HTTP client for the identity directory. A zero BaseURL
// disables it: every lookup reports absent without a network call.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a directory client with a bounded per-request timeout so
// a stalled directory can never wedge a gallery request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a directory base URL was provided.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// recordResponse is the wire shape of a record lookup.
type recordResponse struct {
	OK     bool   `json:"ok"`
	Record Record `json:"record"`
}

// usernameResponse is the wire shape of a reverse IP lookup.
type usernameResponse struct {
	OK       bool   `json:"ok"`
	Username string `json:"username"`
}

// RecordByName implements Resolver.
func (c *Client) RecordByName(ctx context.Context, name string) (*Record, bool) {
	var resp recordResponse
	if !c.get(ctx, "/api/records", url.Values{"name": {name}}, &resp) || !resp.OK {
		return nil, false
	}
	rec := resp.Record
	return &rec, true
}

// UsernameByIP implements Resolver.
func (c *Client) UsernameByIP(ctx context.Context, ip string) (string, bool) {
	var resp usernameResponse
	if !c.get(ctx, "/api/username", url.Values{"ip": {ip}}, &resp) || !resp.OK || resp.Username == "" {
		return "", false
	}
	return resp.Username, true
}

// get performs one directory lookup. Every failure mode -- unconfigured
// client, network error, non-200, malformed JSON -- reports false; callers
// treat that uniformly as "absent".
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) bool {
	if !c.Configured() {
		return false
	}

	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		slog.Warn("identity lookup failed", slog.String("path", path), slog.Any("error", err))
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("identity service unreachable", slog.String("path", path), slog.Any("error", err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("identity service error",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Warn("identity response malformed", slog.String("path", path), slog.Any("error", err))
		return false
	}
	return true
}
