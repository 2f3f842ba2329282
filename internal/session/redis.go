// Package session resolves the caller of a ranking request from the session
// token carried in its context.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"estate-workers/internal/common/logger"
	"estate-workers/internal/models"
	"estate-workers/internal/ranking"
)

const DefaultKeyPrefix = "session:token:"

// ErrLookupFailed wraps session store failures. A missing or unusable
// session is not an error; the caller is simply anonymous.
var ErrLookupFailed = errors.New("session lookup failed")

type tokenKey struct{}

// ContextWithToken attaches a session token to ctx. Empty tokens are ignored.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the session token attached to ctx, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// RedisProvider implements ranking.SessionProvider over sessions stored as
// JSON documents under prefix+token.
type RedisProvider struct {
	client *redis.Client
	prefix string
	clock  func() time.Time
	logger logger.Logger
}

func NewRedisProvider(client *redis.Client, prefix string, log logger.Logger) *RedisProvider {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisProvider{
		client: client,
		prefix: prefix,
		clock:  time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "session-provider"}),
	}
}

func (p *RedisProvider) CurrentCaller(ctx context.Context) (*ranking.Caller, error) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return nil, nil
	}

	raw, err := p.client.Get(ctx, p.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		p.logger.Warn("ignoring malformed session", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}

	if !s.Usable(p.clock()) {
		p.logger.Debug("session not usable, treating caller as anonymous", map[string]interface{}{
			"sessionId": s.ID,
			"isActive":  s.IsActive,
		})
		return nil, nil
	}

	return &ranking.Caller{ID: s.UserID}, nil
}
