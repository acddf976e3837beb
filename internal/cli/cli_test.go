package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/villa-web/internal/config"
	"github.com/spec-kit/villa-web/internal/service"
)

const (
	adminToken = "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoiYWRtaW4ifQ.sig"
	userToken  = "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoidXNlciJ9.sig"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fakeAPI(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/authentication/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			switch {
			case body["email"] == "admin@villa.co" && body["password"] == "secret1":
				writeJSON(w, http.StatusOK, map[string]string{"data": adminToken})
			case body["email"] == "user@villa.co" && body["password"] == "secret1":
				writeJSON(w, http.StatusOK, map[string]string{"data": userToken})
			default:
				writeJSON(w, http.StatusUnauthorized, map[string][]string{"errors": {"unauthorize"}})
			}
		case "/v1/authentication/register":
			writeJSON(w, http.StatusCreated, map[string]string{"data": "activation-token"})
		case "/v1/villas":
			if r.Method == http.MethodPost {
				if r.Header.Get("Authorization") != "Bearer "+adminToken {
					writeJSON(w, http.StatusForbidden, map[string][]string{"errors": {"forbidden"}})
					return
				}
				writeJSON(w, http.StatusCreated, map[string]string{"data": "villa created successfully"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
				{"id": 3, "name": "Sea Breeze", "price": 120, "min_guest": 2, "location": map[string]any{"area": "Canggu"}},
			}})
		case "/v1/locations", "/v1/categories", "/v1/amenities":
			if r.Header.Get("Authorization") != "Bearer "+adminToken {
				writeJSON(w, http.StatusUnauthorized, map[string][]string{"errors": {"unauthorize"}})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": 1, "name": "Pool", "area": "Ubud"}}})
		default:
			writeJSON(w, http.StatusNotFound, map[string][]string{"errors": {"no route"}})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	t           *testing.T
	cfg         *config.Config
	sessionFile string
}

func newHarness(t *testing.T) *harness {
	srv := fakeAPI(t)
	return &harness{
		t: t,
		cfg: &config.Config{
			API:        config.APIConfig{BaseURL: srv.URL, TimeoutSeconds: 2},
			Navigation: config.NavigationConfig{MaxRedirects: 8},
		},
		sessionFile: filepath.Join(t.TempDir(), "villa", "session"),
	}
}

// run executes one villactl invocation and returns stdout and stderr.
func (h *harness) run(stdin string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	app := New(h.cfg, nil,
		WithIO(strings.NewReader(stdin), &stdout, &stderr),
		WithPasswordPrompt(func() (string, error) { return "secret1", nil }),
	)
	args = append(args, "--session-file", h.sessionFile)
	err := app.Run(context.Background(), args)
	return stdout.String(), stderr.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("secret1\n", "login", "admin@villa.co", "--password-stdin")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as admin\n", out)

	data, err := os.ReadFile(h.sessionFile)
	require.NoError(t, err)
	assert.Equal(t, adminToken, strings.TrimSpace(string(data)))
	info, err := os.Stat(h.sessionFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, _, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "role: admin\nlanding: /admin\n", out)

	out, _, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", out)
	_, err = os.Stat(h.sessionFile)
	assert.True(t, os.IsNotExist(err))

	out, _, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", out)
}

func TestLoginPrompt(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("", "login", "user@villa.co")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as user\n", out)
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("wrong-pass\n", "login", "admin@villa.co", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), service.MsgBadCredentials)
	_, statErr := os.Stat(h.sessionFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name  string
		login string
		path  string
		want  string
	}{
		{"anonymous admin page", "", "/admin", "/admin -> /login\n"},
		{"anonymous browse", "", "/browse", "/browse\n"},
		{"user on login", "user@villa.co", "/login", "/login -> /\n"},
		{"admin on browse", "admin@villa.co", "/browse", "/browse -> / -> /admin\n"},
		{"admin on login", "admin@villa.co", "/login", "/login -> /admin\n"},
		{"user on villa form", "user@villa.co", "/admin/villas-management/new", "/admin/villas-management/new -> /\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.login != "" {
				_, _, err := h.run("secret1\n", "login", tt.login, "--password-stdin")
				require.NoError(t, err)
			}

			out, _, err := h.run("", "open", tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("unregistered path", func(t *testing.T) {
		h := newHarness(t)
		out, errOut, err := h.run("", "open", "/nowhere")
		require.NoError(t, err)
		assert.Equal(t, "/nowhere\n", out)
		assert.Contains(t, errOut, "no page is registered")
	})
}

func TestVillas(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("", "villas", "--location", "Canggu", "--sort", "desc")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Sea Breeze")
	assert.Contains(t, out, "120.00")

	_, errOut, err := h.run("", "villas", "--limit", "1", "--offset", "4")
	require.NoError(t, err)
	assert.Contains(t, errOut, "more results: --offset 5")

	_, errOut, err = h.run("", "villas")
	require.NoError(t, err)
	assert.NotContains(t, errOut, "more results")

	_, _, err = h.run("", "villas", "--limit", "50")
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("", "catalog")
	require.Error(t, err)

	_, _, err = h.run("secret1\n", "login", "admin@villa.co", "--password-stdin")
	require.NoError(t, err)

	out, _, err := h.run("", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "location")
	assert.Contains(t, out, "Ubud")
	assert.Contains(t, out, "amenity")
}

func TestCreateVilla(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("secret1\n", "login", "admin@villa.co", "--password-stdin")
	require.NoError(t, err)

	thumb := filepath.Join(t.TempDir(), "hill.png")
	require.NoError(t, os.WriteFile(thumb, append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...), 0o600))

	args := []string{
		"create-villa", "--name", "Hill House", "--description", "Quiet hillside villa",
		"--min-guest", "2", "--bedrooms", "1", "--baths", "1", "--price", "90",
		"--category", "1", "--location", "1", "--amenity", "1", "--amenity", "2",
	}

	out, _, err := h.run("", append(args, "--thumbnail", thumb)...)
	require.NoError(t, err)
	assert.Equal(t, "villa created successfully\n", out)

	_, _, err = h.run("", args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid villa form")
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("secret1\n", "register", "wayan", "wayan@villa.co", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered wayan")

	_, _, err = h.run("secret1\n", "register", "wa", "wayan@villa.co", "--password-stdin")
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	h := newHarness(t)

	tests := [][]string{
		{"teleport"},
		{"login"},
		{"open"},
		{"whoami", "extra"},
		{"villas", "--no-such-flag"},
	}
	for _, args := range tests {
		_, _, err := h.run("", args...)
		require.Error(t, err, args)
		assert.True(t, errors.Is(err, ErrUsage), args)
	}

	var stdout bytes.Buffer
	app := New(h.cfg, nil, WithIO(strings.NewReader(""), &stdout, &stdout))
	require.NoError(t, app.Run(context.Background(), nil))
	assert.Contains(t, stdout.String(), "create-villa")
}
