package gallery

import (
	"fmt"
	"strings"

	"path/filepath"

	"github.com/shotwall/shotwall/internal/apperror"
)

// maxSuffixLen caps the free-text filename suffix so uploads cannot produce
// absurdly long paths.
const maxSuffixLen = 64

// folderPath resolves a folder identity to its absolute directory, rejecting
// anything that could escape the store root. Identities are usernames or
// raw IP addresses -- never paths.
func (s *Store) folderPath(identity string) (string, error) {
	if !validIdentity(identity) {
		return "", apperror.NewBadRequest(fmt.Sprintf("invalid folder name %q", identity))
	}
	return filepath.Join(s.root, identity), nil
}

// validIdentity reports whether name is safe to use as a top-level folder.
func validIdentity(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return name != ".." && name != groupsFile
}

// sanitizeSuffix reduces a free-text image name to characters safe inside a
// filename. Everything outside [a-zA-Z0-9._-] collapses to '-'; an empty or
// dot-only result drops the suffix entirely.
func sanitizeSuffix(suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if len(suffix) > maxSuffixLen {
		suffix = suffix[:maxSuffixLen]
	}
	var b strings.Builder
	for _, r := range suffix {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	return out
}
