package session

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieJar is the slice of a browser exchange the stores need.
type CookieJar interface {
	Get(name string) string
	Set(name, value string, ttl time.Duration)
	Expire(name string)
}

// FiberJar reads request cookies and writes response cookies on a fiber
// context. Values set during the request are visible to later Gets.
type FiberJar struct {
	c       *fiber.Ctx
	secure  bool
	pending map[string]*string
}

// NewFiberJar wraps c. The jar must not outlive the request.
func NewFiberJar(c *fiber.Ctx, secure bool) *FiberJar {
	return &FiberJar{c: c, secure: secure, pending: map[string]*string{}}
}

func (j *FiberJar) Get(name string) string {
	if v, ok := j.pending[name]; ok {
		if v == nil {
			return ""
		}
		return *v
	}
	return j.c.Cookies(name)
}

func (j *FiberJar) Set(name, value string, ttl time.Duration) {
	j.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		Secure:   j.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	j.pending[name] = &value
}

func (j *FiberJar) Expire(name string) {
	j.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   j.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	j.pending[name] = nil
}

// CookieStore keeps the credential itself in a browser cookie.
type CookieStore struct {
	jar  CookieJar
	name string
	ttl  time.Duration
}

// NewCookieStore stores the credential in the cookie called name.
func NewCookieStore(jar CookieJar, name string, ttl time.Duration) *CookieStore {
	return &CookieStore{jar: jar, name: name, ttl: ttl}
}

func (s *CookieStore) Load(_ context.Context) (string, bool, error) {
	token := s.jar.Get(s.name)
	return token, token != "", nil
}

func (s *CookieStore) Save(_ context.Context, token string) error {
	s.jar.Set(s.name, token, s.ttl)
	return nil
}

func (s *CookieStore) Clear(_ context.Context) error {
	s.jar.Expire(s.name)
	return nil
}
