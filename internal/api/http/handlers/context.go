package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/observability"
	"github.com/spec-kit/villa-web/internal/web"
	apperrors "github.com/spec-kit/villa-web/pkg/util/errorutil"
)

const localAuthState = "auth_state"

// SetAuthState stores the request's auth state for later handlers.
func SetAuthState(c *fiber.Ctx, state *authstate.State) {
	c.Locals(localAuthState, state)
}

// AuthState returns the request's auth state, or nil outside the guard.
func AuthState(c *fiber.Ctx) *authstate.State {
	state, _ := c.Locals(localAuthState).(*authstate.State)
	return state
}

// Snapshot returns the request's auth snapshot; anonymous outside the guard.
func Snapshot(c *fiber.Ctx) authstate.Snapshot {
	if state := AuthState(c); state != nil {
		return state.Snapshot()
	}
	return authstate.Anonymous
}

// NewPage seeds the template data shared by every page.
func NewPage(c *fiber.Ctx, title string) web.Page {
	return web.Page{
		Title:     title,
		Auth:      Snapshot(c),
		RequestID: observability.RequestID(c),
	}
}

// apiError converts villa API failures into errors the error middleware can
// render.
func apiError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if apiclient.IsNetwork(err) {
		return apperrors.NewUpstreamError("villa service unavailable", err)
	}
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Status {
		case http.StatusBadRequest:
			return apperrors.NewValidationError("request rejected", map[string]any{"messages": httpErr.Messages})
		case http.StatusUnauthorized:
			return apperrors.NewUnauthorized("sign in again")
		case http.StatusForbidden:
			return apperrors.NewForbidden("not allowed")
		case http.StatusNotFound:
			return apperrors.NewNotFound("resource")
		}
		return apperrors.NewUpstreamError("villa service error", err)
	}
	return err
}
