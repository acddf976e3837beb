// Package claims reads the payload of a bearer credential without
// verifying it. The result is only good for presentation decisions; the
// villa API remains the authority on what a caller may do.
package claims

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/villa-web/internal/domain"
)

// ErrDecode is returned for any credential whose payload cannot be read.
var ErrDecode = errors.New("claims: malformed credential")

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode returns the JSON object carried in the middle segment of token.
func Decode(token string) (map[string]any, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecode)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrDecode, len(parts))
	}

	raw, err := segmentParser.DecodeSegment(normalizeSegment(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64url: %v", ErrDecode, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: payload is not JSON: %v", ErrDecode, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrDecode)
	}
	return payload, nil
}

// Role extracts the role claim. A missing or non-string role yields
// domain.RoleNone with a nil error.
func Role(token string) (domain.Role, error) {
	payload, err := Decode(token)
	if err != nil {
		return domain.RoleNone, err
	}
	role, _ := payload["role"].(string)
	return domain.Role(role), nil
}

// normalizeSegment maps the standard alphabet onto the url-safe one and
// drops existing padding; the parser re-pads to a multiple of four.
func normalizeSegment(seg string) string {
	seg = strings.NewReplacer("+", "-", "/", "_").Replace(seg)
	return strings.TrimRight(seg, "=")
}
