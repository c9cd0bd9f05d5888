package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// TokenResponse is the body returned by enrollment and refresh.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignInResponse additionally carries the account's name fields.
type SignInResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// sentinelStatuses maps each client-facing sentinel onto its HTTP status.
// Order matters only in that every entry is a distinct sentinel.
var sentinelStatuses = []struct {
	sentinel error
	status   int
}{
	{common.ErrAccountExists, http.StatusBadRequest},
	{common.ErrInvalidCredentials, http.StatusBadRequest},
	{common.ErrUserNotFound, http.StatusBadRequest},
	{common.ErrInvalidAssertion, http.StatusBadRequest},
	{common.ErrUnverifiedEmail, http.StatusBadRequest},
	{common.ErrInvalidRefreshToken, http.StatusBadRequest},
	{common.ErrRefreshTokenExpired, http.StatusBadRequest},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrTransient, http.StatusServiceUnavailable},
}

// writeError maps service errors onto HTTP statuses. The body always
// carries the matched sentinel's canned message, never the wrapped chain:
// services fold driver and library detail into the chain for server-side
// logging, and none of it may reach the client.
func writeError(w http.ResponseWriter, err error) {
	var validation *common.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid request",
			Fields: validation.Fields,
		})
		return
	}

	for _, entry := range sentinelStatuses {
		if errors.Is(err, entry.sentinel) {
			writeJSON(w, entry.status, ErrorResponse{Error: entry.sentinel.Error()})
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: common.ErrInternal.Error()})
}
