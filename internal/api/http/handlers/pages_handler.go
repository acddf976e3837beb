package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/villa-web/internal/api/dto"
	"github.com/spec-kit/villa-web/internal/service"
	"github.com/spec-kit/villa-web/internal/web"
)

// PagesHandler serves the role landing pages.
type PagesHandler struct {
	villas   *service.VillaService
	sessions *service.SessionService
	renderer *web.Renderer
}

// NewPagesHandler builds the handler.
func NewPagesHandler(villas *service.VillaService, sessions *service.SessionService, renderer *web.Renderer) *PagesHandler {
	return &PagesHandler{villas: villas, sessions: sessions, renderer: renderer}
}

// Home is the signed-in user's landing page.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	villas, _, err := h.villas.Browse(c.UserContext(), dto.VillaQuery{})
	if err != nil {
		return apiError(err)
	}
	page := NewPage(c, "Home")
	page.Data = fiber.Map{"Villas": villas}
	return h.renderer.Send(c, fiber.StatusOK, "home", page)
}

// Profile shows the signed-in account.
func (h *PagesHandler) Profile(c *fiber.Ctx) error {
	user, err := h.sessions.Profile(c.UserContext(), Snapshot(c))
	if err != nil {
		return apiError(err)
	}
	page := NewPage(c, "Profile")
	page.Data = fiber.Map{"User": user}
	return h.renderer.Send(c, fiber.StatusOK, "profile", page)
}

// Dashboard is the admin landing page.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	villas, _, err := h.villas.Browse(c.UserContext(), dto.VillaQuery{Limit: dto.MaxVillaLimit})
	if err != nil {
		return apiError(err)
	}
	page := NewPage(c, "Villas management")
	if c.Query("created") != "" {
		page.Notice = "villa created successfully"
	}
	page.Data = fiber.Map{"Villas": villas}
	return h.renderer.Send(c, fiber.StatusOK, "admin", page)
}
