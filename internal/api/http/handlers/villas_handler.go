package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/villa-web/internal/api/dto"
	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/guard"
	"github.com/spec-kit/villa-web/internal/service"
	"github.com/spec-kit/villa-web/internal/web"
	apperrors "github.com/spec-kit/villa-web/pkg/util/errorutil"
)

// VillasHandler serves the villa listing and admin villa pages.
type VillasHandler struct {
	villas   *service.VillaService
	catalog  *service.CatalogService
	renderer *web.Renderer
}

// NewVillasHandler builds the handler.
func NewVillasHandler(villas *service.VillaService, catalog *service.CatalogService, renderer *web.Renderer) *VillasHandler {
	return &VillasHandler{villas: villas, catalog: catalog, renderer: renderer}
}

// Browse lists villas for everyone but admins.
func (h *VillasHandler) Browse(c *fiber.Ctx) error {
	var q dto.VillaQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid villa filter", nil)
	}
	villas, q, err := h.villas.Browse(c.UserContext(), q)
	if err != nil {
		return apiError(err)
	}
	page := NewPage(c, "Browse villas")
	data := fiber.Map{"Villas": villas, "Query": q}
	if prev := q.PrevOffset(); prev >= 0 {
		data["PrevURL"] = guard.PathBrowse + "?" + q.Encode(prev)
	}
	if q.HasMore(len(villas)) {
		data["NextURL"] = guard.PathBrowse + "?" + q.Encode(q.Offset+q.Limit)
	}
	page.Data = data
	return h.renderer.Send(c, fiber.StatusOK, "browse", page)
}

// NewVilla shows the villa form.
func (h *VillasHandler) NewVilla(c *fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, dto.CreateVillaRequest{}, nil, "")
}

// CreateVilla submits the villa form.
func (h *VillasHandler) CreateVilla(c *fiber.Ctx) error {
	var req dto.CreateVillaRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderForm(c, fiber.StatusBadRequest, req, nil, "The form could not be read")
	}

	thumbnail, err := readThumbnail(c)
	if err != nil {
		return err
	}

	_, err = h.villas.Create(c.UserContext(), Snapshot(c).Token, req, thumbnail)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return h.renderForm(c, domainErr.HTTPStatus, req, domainErr.Details, "Please fix the highlighted fields")
		}
		var httpErr *apiclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == fiber.StatusBadRequest {
			return h.renderForm(c, fiber.StatusBadRequest, req, nil, httpErr.Error())
		}
		return apiError(err)
	}
	return c.Redirect("/admin?created=1", fiber.StatusSeeOther)
}

// VillaDetail shows one villa.
func (h *VillasHandler) VillaDetail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperrors.NewNotFound("villa")
	}
	villa, err := h.villas.Get(c.UserContext(), Snapshot(c).Token, id)
	if err != nil {
		return apiError(err)
	}
	page := NewPage(c, villa.Name)
	page.Data = fiber.Map{"Villa": villa}
	return h.renderer.Send(c, fiber.StatusOK, "villa_detail", page)
}

func (h *VillasHandler) renderForm(c *fiber.Ctx, status int, form dto.CreateVillaRequest, fields map[string]any, message string) error {
	catalog, err := h.catalog.All(c.UserContext(), Snapshot(c).Token)
	if err != nil {
		return apiError(err)
	}
	page := NewPage(c, "New villa")
	page.Error = message
	page.Fields = fields
	page.Data = fiber.Map{"Form": form, "Catalog": catalog}
	return h.renderer.Send(c, status, "villa_new", page)
}

// readThumbnail reads at most one byte past the limit so oversize uploads
// are still rejected by validation.
func readThumbnail(c *fiber.Ctx) (apiclient.File, error) {
	header, err := c.FormFile("thumbnail")
	if err != nil {
		return apiclient.File{}, nil
	}
	f, err := header.Open()
	if err != nil {
		return apiclient.File{}, apperrors.NewInternalError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxThumbnailBytes+1))
	if err != nil {
		return apiclient.File{}, apperrors.NewInternalError(err)
	}
	return apiclient.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
