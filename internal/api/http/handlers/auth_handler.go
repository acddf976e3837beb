package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/api/dto"
	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/guard"
	"github.com/spec-kit/villa-web/internal/service"
	"github.com/spec-kit/villa-web/internal/web"
	apperrors "github.com/spec-kit/villa-web/pkg/util/errorutil"
)

// AuthHandler serves sign-in and sign-out.
type AuthHandler struct {
	sessions *service.SessionService
	renderer *web.Renderer
	logger   *zap.Logger
}

// NewAuthHandler builds the handler.
func NewAuthHandler(sessions *service.SessionService, renderer *web.Renderer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, renderer: renderer, logger: logger}
}

// LoginPage shows the sign-in form.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	page := NewPage(c, "Sign in")
	page.Data = fiber.Map{"Email": ""}
	return h.renderer.Send(c, fiber.StatusOK, "login", page)
}

// Login signs the browser in and sends it to its landing page.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid login form", nil)
	}

	state := AuthState(c)
	if state == nil {
		return apperrors.NewInternalError(errors.New("auth state missing"))
	}

	if err := h.sessions.Login(c.UserContext(), state, req); err != nil {
		page := NewPage(c, "Sign in")
		page.Error = service.LoginMessage(err)
		page.Data = fiber.Map{"Email": req.Email}
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			page.Fields = domainErr.Details
		}
		return h.renderer.Send(c, loginStatus(err), "login", page)
	}

	return c.Redirect(guard.LandingFor(state.Snapshot().Role), fiber.StatusSeeOther)
}

// Logout forgets the credential and returns to the sign-in page.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if state := AuthState(c); state != nil {
		if err := h.sessions.Logout(c.UserContext(), state); err != nil {
			h.logger.Warn("logout could not clear stored credential", zap.Error(err))
		}
	}
	return c.Redirect(guard.PathLogin, fiber.StatusSeeOther)
}

// Session reports the caller's auth state as JSON.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	snap := Snapshot(c)
	landing := guard.PathBrowse
	if snap.IsLoggedIn {
		landing = guard.LandingFor(snap.Role)
	}
	return c.JSON(dto.SessionResponse{
		LoggedIn: snap.IsLoggedIn,
		Role:     snap.Role,
		Landing:  landing,
	})
}

func loginStatus(err error) int {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus
	}
	if apiclient.IsNetwork(err) {
		return fiber.StatusBadGateway
	}
	if status, ok := apiclient.StatusOf(err); ok && status < fiber.StatusInternalServerError {
		return fiber.StatusUnauthorized
	}
	return fiber.StatusBadGateway
}
