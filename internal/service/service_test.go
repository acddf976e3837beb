package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/villa-web/internal/api/dto"
	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/cache"
	"github.com/spec-kit/villa-web/internal/domain"
	"github.com/spec-kit/villa-web/internal/session"
	"github.com/spec-kit/villa-web/pkg/util/errorutil"
)

const adminToken = "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoiYWRtaW4ifQ.sig"

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)
)

func newState(t *testing.T) *authstate.State {
	t.Helper()
	state := authstate.New(session.NewMemoryStore())
	state.Initialize(context.Background())
	return state
}

func TestSessionServiceLogin(t *testing.T) {
	ctx := context.Background()
	validate := dto.NewValidator()

	t.Run("stores the credential", func(t *testing.T) {
		api := new(MockAPI)
		api.On("Login", mock.Anything, "admin@villa.co", "secret1").Return(adminToken, nil)
		svc := NewSessionService(api, validate, nil)
		state := newState(t)

		require.NoError(t, svc.Login(ctx, state, dto.LoginRequest{Email: "admin@villa.co", Password: "secret1"}))
		assert.Equal(t, domain.RoleAdmin, state.Snapshot().Role)
		api.AssertExpectations(t)
	})

	t.Run("invalid form never reaches the api", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewSessionService(api, validate, nil)
		state := newState(t)

		err := svc.Login(ctx, state, dto.LoginRequest{Email: "nope", Password: "123"})
		var domainErr *errorutil.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		assert.Equal(t, map[string]any{"email": "email", "password": "min=6"}, domainErr.Details)
		assert.Equal(t, MsgInvalidForm, LoginMessage(err))
		api.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("api errors are returned untouched", func(t *testing.T) {
		netErr := &apiclient.NetworkError{Op: "login", Err: errors.New("connection refused")}
		api := new(MockAPI)
		api.On("Login", mock.Anything, mock.Anything, mock.Anything).Return("", netErr)
		svc := NewSessionService(api, validate, nil)
		state := newState(t)

		err := svc.Login(ctx, state, dto.LoginRequest{Email: "a@b.co", Password: "secret1"})
		assert.Same(t, netErr, err)
		assert.Equal(t, authstate.Anonymous, state.Snapshot())
	})

	t.Run("logout resets the state", func(t *testing.T) {
		api := new(MockAPI)
		api.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(adminToken, nil)
		svc := NewSessionService(api, validate, nil)
		state := newState(t)

		require.NoError(t, svc.Login(ctx, state, dto.LoginRequest{Email: "a@b.co", Password: "secret1"}))
		require.NoError(t, svc.Logout(ctx, state))
		assert.Equal(t, authstate.Anonymous, state.Snapshot())
	})
}

func TestLoginMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no error", nil, ""},
		{"network", &apiclient.NetworkError{Op: "login", Err: errors.New("dial")}, MsgServerError},
		{"bad request", &apiclient.HTTPError{Status: http.StatusBadRequest}, MsgBadCredentials},
		{"unauthorized", &apiclient.HTTPError{Status: http.StatusUnauthorized}, MsgBadCredentials},
		{"unknown account", &apiclient.HTTPError{Status: http.StatusNotFound}, MsgBadCredentials},
		{"server failure", &apiclient.HTTPError{Status: http.StatusInternalServerError}, MsgServerError},
		{"conflict", &apiclient.HTTPError{Status: http.StatusConflict}, MsgUnexpectedError},
		{"other", errors.New("strange"), MsgUnexpectedError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LoginMessage(tt.err))
		})
	}
}

func TestSessionServiceRegisterAndProfile(t *testing.T) {
	ctx := context.Background()
	api := new(MockAPI)
	api.On("Register", mock.Anything, "villa_fan", "fan@villa.co", "secret1").Return("activation", nil)
	api.On("Profile", mock.Anything, adminToken).Return(&domain.User{Username: "root"}, nil)
	svc := NewSessionService(api, dto.NewValidator(), nil)

	token, err := svc.Register(ctx, dto.RegisterRequest{Username: "villa_fan", Email: "fan@villa.co", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "activation", token)

	_, err = svc.Register(ctx, dto.RegisterRequest{Username: "x", Email: "fan@villa.co", Password: "secret1"})
	assert.Error(t, err)

	user, err := svc.Profile(ctx, authstate.SnapshotFor(adminToken))
	require.NoError(t, err)
	assert.Equal(t, "root", user.Username)

	_, err = svc.Profile(ctx, authstate.Anonymous)
	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, http.StatusUnauthorized, domainErr.HTTPStatus)
}

func TestVillaServiceBrowse(t *testing.T) {
	ctx := context.Background()

	t.Run("applies paging defaults", func(t *testing.T) {
		api := new(MockAPI)
		want := domain.VillaFilter{Location: "2", Limit: 5, Sort: "asc"}
		api.On("ListVillas", mock.Anything, want).Return([]domain.Villa{{ID: 1}}, nil)
		svc := NewVillaService(api, dto.NewValidator(), nil)

		villas, q, err := svc.Browse(ctx, dto.VillaQuery{Location: "2"})
		require.NoError(t, err)
		assert.Len(t, villas, 1)
		assert.Equal(t, 5, q.Limit)
		api.AssertExpectations(t)
	})

	for name, q := range map[string]dto.VillaQuery{
		"limit too large": {Limit: 11},
		"negative offset": {Offset: -1},
		"unknown sort":    {Sort: "random"},
		"non-numeric":     {MinGuest: "many"},
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewVillaService(new(MockAPI), dto.NewValidator(), nil)
			_, _, err := svc.Browse(ctx, q)
			var domainErr *errorutil.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
		})
	}
}

func TestVillaServiceGet(t *testing.T) {
	ctx := context.Background()
	api := new(MockAPI)
	api.On("GetVilla", mock.Anything, adminToken, 7).Return(&domain.Villa{ID: 7}, nil)
	api.On("GetVilla", mock.Anything, adminToken, 8).Return(nil, &apiclient.HTTPError{Status: http.StatusNotFound})
	svc := NewVillaService(api, dto.NewValidator(), nil)

	villa, err := svc.Get(ctx, adminToken, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, villa.ID)

	for _, id := range []int{8, 0} {
		_, err = svc.Get(ctx, adminToken, id)
		var domainErr *errorutil.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	}
}

func TestVillaServiceCreate(t *testing.T) {
	ctx := context.Background()
	valid := dto.CreateVillaRequest{
		Name: "Sea Breeze", Description: "Two storey villa", MinGuest: 2, Bedrooms: 1,
		Baths: 1, Price: 150, CategoryID: 1, LocationID: 2, AmenityIDs: []int{1},
	}

	t.Run("submits with sniffed content type", func(t *testing.T) {
		api := new(MockAPI)
		api.On("CreateVilla", mock.Anything, adminToken, valid.Properties(),
			apiclient.File{Name: "a.jpg", ContentType: "image/jpeg", Data: jpegBytes},
		).Return("villa created successfully", nil)
		svc := NewVillaService(api, dto.NewValidator(), nil)

		msg, err := svc.Create(ctx, adminToken, valid, apiclient.File{Name: "a.jpg", ContentType: "text/plain", Data: jpegBytes})
		require.NoError(t, err)
		assert.Equal(t, "villa created successfully", msg)
		api.AssertExpectations(t)
	})

	tests := []struct {
		name   string
		mutate func(*dto.CreateVillaRequest)
		file   apiclient.File
		field  string
	}{
		{"short name", func(r *dto.CreateVillaRequest) { r.Name = "Sea" }, apiclient.File{Data: pngBytes}, "name"},
		{"short description", func(r *dto.CreateVillaRequest) { r.Description = "tiny" }, apiclient.File{Data: pngBytes}, "description"},
		{"no guests", func(r *dto.CreateVillaRequest) { r.MinGuest = 0 }, apiclient.File{Data: pngBytes}, "min_guest"},
		{"no bedrooms", func(r *dto.CreateVillaRequest) { r.Bedrooms = 0 }, apiclient.File{Data: pngBytes}, "bedrooms"},
		{"no baths", func(r *dto.CreateVillaRequest) { r.Baths = 0 }, apiclient.File{Data: pngBytes}, "baths"},
		{"no price", func(r *dto.CreateVillaRequest) { r.Price = 0 }, apiclient.File{Data: pngBytes}, "price"},
		{"no category", func(r *dto.CreateVillaRequest) { r.CategoryID = 0 }, apiclient.File{Data: pngBytes}, "category_id"},
		{"no location", func(r *dto.CreateVillaRequest) { r.LocationID = 0 }, apiclient.File{Data: pngBytes}, "location_id"},
		{"no amenities", func(r *dto.CreateVillaRequest) { r.AmenityIDs = nil }, apiclient.File{Data: pngBytes}, "amenity_id"},
		{"bad amenity id", func(r *dto.CreateVillaRequest) { r.AmenityIDs = []int{1, 0} }, apiclient.File{Data: pngBytes}, "amenity_id"},
		{"missing thumbnail", func(*dto.CreateVillaRequest) {}, apiclient.File{}, "thumbnail"},
		{"gif thumbnail", func(*dto.CreateVillaRequest) {}, apiclient.File{Data: []byte("GIF89a......")}, "thumbnail"},
		{"huge thumbnail", func(*dto.CreateVillaRequest) {}, apiclient.File{Data: append(append([]byte{}, pngBytes...), make([]byte, MaxThumbnailBytes)...)}, "thumbnail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			svc := NewVillaService(api, dto.NewValidator(), nil)
			req := valid
			tt.mutate(&req)

			_, err := svc.Create(ctx, adminToken, req, tt.file)
			var domainErr *errorutil.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Contains(t, domainErr.Details, tt.field)
			api.AssertNotCalled(t, "CreateVilla", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCatalogService(t *testing.T) {
	ctx := context.Background()
	api := new(MockAPI)
	api.On("ListLocations", mock.Anything, adminToken).Return([]domain.Location{{ID: 1, Area: "Ubud"}}, nil)
	api.On("ListCategories", mock.Anything, adminToken).Return([]domain.Category{{ID: 1, Name: "Beach"}}, nil)
	api.On("ListAmenities", mock.Anything, adminToken).Return([]domain.Amenity{{ID: 1, Name: "Pool"}}, nil)

	svc := NewCatalogService(api, cache.NewCatalog(nil, 0, nil))
	catalog, err := svc.All(ctx, adminToken)
	require.NoError(t, err)
	assert.Equal(t, "Ubud", catalog.Locations[0].Area)
	assert.Equal(t, "Beach", catalog.Categories[0].Name)
	assert.Equal(t, "Pool", catalog.Amenities[0].Name)

	failing := new(MockAPI)
	failing.On("ListLocations", mock.Anything, mock.Anything).Return(nil, &apiclient.HTTPError{Status: http.StatusForbidden})
	_, err = NewCatalogService(failing, cache.NewCatalog(nil, 0, nil)).All(ctx, "user-token")
	status, ok := apiclient.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, status)
}
