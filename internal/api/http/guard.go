package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/api/http/handlers"
	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/config"
	"github.com/spec-kit/villa-web/internal/events"
	"github.com/spec-kit/villa-web/internal/guard"
	"github.com/spec-kit/villa-web/internal/session"
)

// StoreFactory returns the credential store for the browser behind c.
type StoreFactory func(c *fiber.Ctx) session.Store

// CookieSessions keeps the credential in a browser cookie.
func CookieSessions(cfg config.SessionConfig) StoreFactory {
	ttl := cfg.TTL()
	return func(c *fiber.Ctx) session.Store {
		return session.NewCookieStore(session.NewFiberJar(c, cfg.CookieSecure), cfg.CookieName, ttl)
	}
}

// RedisSessions keeps the credential in redis behind a session id cookie.
func RedisSessions(client *redis.Client, cfg config.SessionConfig) StoreFactory {
	ttl := cfg.TTL()
	return func(c *fiber.Ctx) session.Store {
		return session.NewRedisStore(client, session.NewFiberJar(c, cfg.CookieSecure), ttl)
	}
}

// GuardMiddleware builds the auth state for each request and applies the
// route tree before any page handler runs.
type GuardMiddleware struct {
	tree       *guard.Tree
	stores     StoreFactory
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewGuardMiddleware constructs middleware. dispatcher may be nil.
func NewGuardMiddleware(tree *guard.Tree, stores StoreFactory, dispatcher events.Dispatcher, logger *zap.Logger) *GuardMiddleware {
	return &GuardMiddleware{tree: tree, stores: stores, dispatcher: dispatcher, logger: logger}
}

// Handle redirects with 302 when the route refuses the caller.
func (m *GuardMiddleware) Handle(c *fiber.Ctx) error {
	opts := []authstate.Option{authstate.WithLogger(m.logger)}
	if m.dispatcher != nil {
		opts = append(opts, authstate.WithDispatcher(m.dispatcher))
	}
	state := authstate.New(m.stores(c), opts...)
	state.Initialize(c.UserContext())

	snap := state.Snapshot()
	decision := m.tree.Evaluate(snap, c.Path())
	if !decision.Allowed() {
		m.publishRedirect(c, snap, decision.Redirect)
		return c.Redirect(decision.Redirect, fiber.StatusFound)
	}

	handlers.SetAuthState(c, state)
	return c.Next()
}

func (m *GuardMiddleware) publishRedirect(c *fiber.Ctx, snap authstate.Snapshot, to string) {
	if m.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRedirected,
		Role:      snap.Role,
		Timestamp: time.Now().UTC(),
		Payload:   events.RedirectedPayload{From: guard.NormalizePath(c.Path()), To: to},
	}
	if err := m.dispatcher.Publish(c.UserContext(), event); err != nil {
		m.logger.Warn("redirect event handler failed", zap.Error(err))
	}
}
