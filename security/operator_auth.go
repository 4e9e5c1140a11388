package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"queue-system/internal/status"
	"queue-system/utils"
)

const (
	OperatorTokenHeader = "X-Operator-Token"
	sessionKeyPrefix    = "operator:session:"
)

// OperatorAuth gates operator actions behind one shared passphrase. A
// successful login yields a session token stored in Redis with a TTL.
type OperatorAuth struct {
	redis    *redis.Client
	passHash []byte
	ttl      time.Duration
	newToken func() (string, error)
}

func NewOperatorAuth(redisClient *redis.Client, passphrase string, ttl time.Duration) (*OperatorAuth, error) {
	return newOperatorAuth(redisClient, passphrase, ttl, bcrypt.DefaultCost)
}

func newOperatorAuth(redisClient *redis.Client, passphrase string, ttl time.Duration, cost int) (*OperatorAuth, error) {
	if passphrase == "" {
		return nil, errors.New("operator passphrase must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), cost)
	if err != nil {
		return nil, fmt.Errorf("hash operator passphrase: %w", err)
	}

	return &OperatorAuth{
		redis:    redisClient,
		passHash: hash,
		ttl:      ttl,
		newToken: func() (string, error) { return utils.GenerateToken(24) },
	}, nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (a *OperatorAuth) Login(ctx context.Context, passphrase string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(passphrase)); err != nil {
		return "", status.ErrOperatorUnauthorized
	}

	token, err := a.newToken()
	if err != nil {
		return "", fmt.Errorf("generate operator token: %w", err)
	}

	if err := a.redis.Set(ctx, sessionKey(token), "1", a.ttl).Err(); err != nil {
		return "", fmt.Errorf("store operator session: %w", err)
	}

	return token, nil
}

func (a *OperatorAuth) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.redis.Del(ctx, sessionKey(token)).Err()
}

func (a *OperatorAuth) Authorized(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	n, err := a.redis.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OperatorToken reads the session token from the X-Operator-Token header or
// an "Authorization: Bearer" header.
func OperatorToken(r *http.Request) string {
	if token := r.Header.Get(OperatorTokenHeader); token != "" {
		return token
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// RequireOperator rejects requests without a live operator session.
func (a *OperatorAuth) RequireOperator() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ok, err := a.Authorized(e.Request.Context(), OperatorToken(e.Request))
		if err != nil {
			slog.Error("operator session lookup failed", "error", err)
			return e.JSON(http.StatusServiceUnavailable, map[string]string{
				"error": "Operator sessions are unavailable",
			})
		}
		if !ok {
			return apis.NewUnauthorizedError("Operator login required", nil)
		}
		return e.Next()
	}
}
