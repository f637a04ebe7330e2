// Package sanitize strips markup from operator-editable metadata before it
// reaches a browser. Display names, group titles, and avatar references come
// from plain files on disk (.meta.json, groups.json) that anything able to
// write to the data directory can edit, so they are treated as untrusted.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy. StrictPolicy rejects all HTML:
// metadata values are display strings, never markup.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// DisplayString strips any HTML from a metadata value and trims whitespace.
// Call this on every display_name, group title, or avatar reference read
// from disk before including it in a rendered page or JSON response.
func DisplayString(input string) string {
	return strings.TrimSpace(getPolicy().Sanitize(input))
}
