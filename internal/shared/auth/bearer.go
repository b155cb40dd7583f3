package auth

import (
	"net/http"
	"strings"
)

// BearerToken extracts the credential from an Authorization header.
// The scheme is matched case-insensitively.
func BearerToken(h http.Header) (string, bool) {
	raw := strings.TrimSpace(h.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
