package session

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credential is one parsed line of the credentials file.
type Credential struct {
	Username string
	Password string
	Allowed  []string
}

// loadCredentials parses the colon-delimited credentials file:
//
//	username:password:comma-separated-allowed-list
//
// The password field is either a bcrypt hash or a legacy plaintext value.
// Malformed lines are skipped so one bad edit doesn't lock everyone out.
func loadCredentials(path string) ([]Credential, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening credentials file: %w", err)
	}
	defer f.Close()

	var creds []Credential
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 || parts[0] == "" {
			continue
		}
		var allowed []string
		for _, name := range strings.Split(parts[2], ",") {
			if name = strings.TrimSpace(name); name != "" {
				allowed = append(allowed, name)
			}
		}
		creds = append(creds, Credential{
			Username: parts[0],
			Password: parts[1],
			Allowed:  allowed,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return creds, nil
}

// verifyPassword checks a submitted password against the stored field.
// Bcrypt hashes (the "$2" prefix) verify with bcrypt; anything else is a
// legacy plaintext entry compared in constant time.
func verifyPassword(stored, submitted string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
