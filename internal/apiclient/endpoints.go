package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/spec-kit/villa-web/internal/domain"
)

// File is an upload part.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := jsonBody(credentials{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	var token string
	err = c.do(ctx, call{
		op:          "login",
		kind:        KindMutation,
		details:     "error while signing in",
		method:      http.MethodPost,
		path:        "/v1/authentication/login",
		body:        body,
		contentType: "application/json",
	}, &token)
	return token, err
}

// Register creates an account. The API answers with an activation token.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	body, err := jsonBody(credentials{Username: username, Email: email, Password: password})
	if err != nil {
		return "", err
	}
	var token string
	err = c.do(ctx, call{
		op:          "register",
		kind:        KindMutation,
		details:     "error while registering",
		method:      http.MethodPost,
		path:        "/v1/authentication/register",
		body:        body,
		contentType: "application/json",
	}, &token)
	return token, err
}

// Profile returns the account the token belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, call{
		op:      "profile",
		kind:    KindFetching,
		details: "error while fetching profile",
		method:  http.MethodGet,
		path:    "/v1/users/profile",
		token:   token,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListVillas returns the public listing narrowed by filter.
func (c *Client) ListVillas(ctx context.Context, filter domain.VillaFilter) ([]domain.Villa, error) {
	var villas []domain.Villa
	if err := c.do(ctx, call{
		op:      "list villas",
		kind:    KindFetching,
		details: "error while fetching villas",
		method:  http.MethodGet,
		path:    "/v1/villas?" + villaQuery(filter).Encode(),
	}, &villas); err != nil {
		return nil, err
	}
	return villas, nil
}

// GetVilla returns one villa. token may be empty.
func (c *Client) GetVilla(ctx context.Context, token string, id int) (*domain.Villa, error) {
	var villa domain.Villa
	if err := c.do(ctx, call{
		op:      "get villa",
		kind:    KindFetching,
		details: "error while fetching villa",
		method:  http.MethodGet,
		path:    "/v1/villas/" + strconv.Itoa(id),
		token:   token,
	}, &villa); err != nil {
		return nil, err
	}
	return &villa, nil
}

// CreateVilla uploads a new villa with its thumbnail and returns the API's
// confirmation message.
func (c *Client) CreateVilla(ctx context.Context, token string, props domain.VillaProperties, thumbnail File) (string, error) {
	body, contentType, err := villaForm(props, thumbnail)
	if err != nil {
		return "", fmt.Errorf("villa api: create villa: %w", err)
	}
	var message string
	err = c.do(ctx, call{
		op:          "create villa",
		kind:        KindMutation,
		details:     "error while create new villa",
		method:      http.MethodPost,
		path:        "/v1/villas",
		token:       token,
		body:        body,
		contentType: contentType,
	}, &message)
	return message, err
}

// ListLocations returns every location.
func (c *Client) ListLocations(ctx context.Context, token string) ([]domain.Location, error) {
	var out []domain.Location
	err := c.fetchList(ctx, "locations", token, &out)
	return out, err
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context, token string) ([]domain.Category, error) {
	var out []domain.Category
	err := c.fetchList(ctx, "categories", token, &out)
	return out, err
}

// ListAmenities returns every amenity.
func (c *Client) ListAmenities(ctx context.Context, token string) ([]domain.Amenity, error) {
	var out []domain.Amenity
	err := c.fetchList(ctx, "amenities", token, &out)
	return out, err
}

func (c *Client) fetchList(ctx context.Context, resource, token string, out any) error {
	return c.do(ctx, call{
		op:      "list " + resource,
		kind:    KindFetching,
		details: "error while fetching " + resource,
		method:  http.MethodGet,
		path:    "/v1/" + resource,
		token:   token,
	}, out)
}

func villaQuery(f domain.VillaFilter) url.Values {
	q := url.Values{}
	q.Set("location", f.Location)
	q.Set("category", f.Category)
	q.Set("min_guest", f.MinGuest)
	q.Set("bedrooms", f.Bedrooms)
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	return q
}

func villaForm(props domain.VillaProperties, thumbnail File) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	encoded, err := json.Marshal(props)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("properties", string(encoded)); err != nil {
		return nil, "", err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="thumbnail"; filename=%q`, thumbnail.Name))
	contentType := thumbnail.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(thumbnail.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
