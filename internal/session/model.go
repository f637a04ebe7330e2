// Package session handles login against the operator's credentials file and
// manages browser sessions in Redis. A session carries the username and the
// set of folder/group names the user may browse ("*" means all); uploads
// never involve a session.
package session

import "time"

// Session is an authenticated browser session stored in Redis. The session
// token is the key, and this struct is the value (JSON-encoded).
type Session struct {
	Username  string    `json:"username"`
	Allowed   []string  `json:"allowed"`
	CreatedAt time.Time `json:"created_at"`
}
