package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/api/dto"
	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/domain"
	"github.com/spec-kit/villa-web/pkg/util/errorutil"
)

// MaxThumbnailBytes caps villa thumbnail uploads.
const MaxThumbnailBytes = 3 << 20

var thumbnailTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// VillaAPI is the part of the villa API that deals with listings.
type VillaAPI interface {
	ListVillas(ctx context.Context, filter domain.VillaFilter) ([]domain.Villa, error)
	GetVilla(ctx context.Context, token string, id int) (*domain.Villa, error)
	CreateVilla(ctx context.Context, token string, props domain.VillaProperties, thumbnail apiclient.File) (string, error)
}

// VillaService backs the browse page and the admin villa pages.
type VillaService struct {
	api      VillaAPI
	validate *validator.Validate
	logger   *zap.Logger
}

// NewVillaService builds the service.
func NewVillaService(api VillaAPI, validate *validator.Validate, logger *zap.Logger) *VillaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VillaService{api: api, validate: validate, logger: logger}
}

// Browse returns the listing for q after applying paging defaults.
func (s *VillaService) Browse(ctx context.Context, q dto.VillaQuery) ([]domain.Villa, dto.VillaQuery, error) {
	q = q.WithDefaults()
	if err := s.validate.Struct(q); err != nil {
		return nil, q, errorutil.NewValidationError("invalid villa filter", errorutil.FieldErrors(err))
	}
	villas, err := s.api.ListVillas(ctx, q.Filter())
	if err != nil {
		return nil, q, err
	}
	return villas, q, nil
}

// Get returns one villa.
func (s *VillaService) Get(ctx context.Context, token string, id int) (*domain.Villa, error) {
	if id <= 0 {
		return nil, errorutil.NewNotFound("villa")
	}
	villa, err := s.api.GetVilla(ctx, token, id)
	if status, ok := apiclient.StatusOf(err); ok && status == http.StatusNotFound {
		return nil, errorutil.NewNotFound("villa")
	}
	return villa, err
}

// Create validates the form and thumbnail and submits the villa.
func (s *VillaService) Create(ctx context.Context, token string, req dto.CreateVillaRequest, thumbnail apiclient.File) (string, error) {
	details := map[string]any{}
	if err := s.validate.Struct(req); err != nil {
		for field, rule := range errorutil.FieldErrors(err) {
			details[field] = rule
		}
	}
	if problem := checkThumbnail(&thumbnail); problem != "" {
		details["thumbnail"] = problem
	}
	if len(details) > 0 {
		return "", errorutil.NewValidationError("invalid villa form", details)
	}

	msg, err := s.api.CreateVilla(ctx, token, req.Properties(), thumbnail)
	if err != nil {
		return "", err
	}
	s.logger.Info("villa created", zap.String("name", req.Name))
	return msg, nil
}

// checkThumbnail sniffs the upload's content type, overriding whatever the
// browser claimed, and returns a problem description or "".
func checkThumbnail(f *apiclient.File) string {
	if len(f.Data) == 0 {
		return "required"
	}
	if len(f.Data) > MaxThumbnailBytes {
		return fmt.Sprintf("max=%d bytes", MaxThumbnailBytes)
	}
	detected := http.DetectContentType(f.Data)
	if !thumbnailTypes[detected] {
		return "png or jpeg only"
	}
	f.ContentType = detected
	return ""
}
