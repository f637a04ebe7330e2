package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shotwall/shotwall/internal/apperror"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// Service defines the session contract. Handlers call these methods; they
// never touch Redis or the credentials file directly.
type Service interface {
	Login(ctx context.Context, username, password string) (token string, err error)
	Validate(ctx context.Context, token string) (*Session, error)
	Destroy(ctx context.Context, token string) error
}

// service implements Service against a credentials file and Redis.
type service struct {
	credentialsFile string
	redis           *redis.Client
	ttl             time.Duration
}

// NewService creates a session service. The credentials file is re-read on
// every login attempt, so operator edits take effect without a restart.
func NewService(credentialsFile string, rdb *redis.Client, ttl time.Duration) Service {
	return &service{
		credentialsFile: credentialsFile,
		redis:           rdb,
		ttl:             ttl,
	}
}

// Login checks the submitted credentials against the credentials file and,
// on a match, creates a session in Redis and returns its token.
func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	creds, err := loadCredentials(s.credentialsFile)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("loading credentials: %w", err))
	}

	for _, c := range creds {
		if c.Username != username || !verifyPassword(c.Password, password) {
			continue
		}

		token, err := s.create(ctx, Session{
			Username:  c.Username,
			Allowed:   c.Allowed,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return "", apperror.NewInternal(fmt.Errorf("creating session: %w", err))
		}

		slog.Info("user logged in", slog.String("username", c.Username))
		return token, nil
	}

	// Same message for unknown user and wrong password.
	return "", apperror.NewUnauthorized("invalid username or password")
}

// Validate looks up a session token in Redis and returns the session data
// if it exists and hasn't expired.
func (s *service) Validate(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}
	return &sess, nil
}

// Destroy removes a session from Redis, effectively logging the user out.
func (s *service) Destroy(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}
	return nil
}

// create stores the session under a fresh random token with the configured TTL.
func (s *service) create(ctx context.Context, sess Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}
	return token, nil
}

// generateToken creates a cryptographically random hex-encoded token.
func generateToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
