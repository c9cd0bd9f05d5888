package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/services"
)

// Handler exposes the enrollment, sign-in, and refresh flows over JSON.
type Handler struct {
	enrollment     *services.EnrollmentService
	authentication *services.AuthenticationService
	refresh        *services.RefreshService
	issuer         *auth.TokenIssuer
	logger         logging.Logger
}

func NewHandler(enrollment *services.EnrollmentService, authentication *services.AuthenticationService,
	refresh *services.RefreshService, issuer *auth.TokenIssuer, logger logging.Logger) *Handler {
	return &Handler{
		enrollment:     enrollment,
		authentication: authentication,
		refresh:        refresh,
		issuer:         issuer,
		logger:         logger.With("module", "httpapi"),
	}
}

func decodeJSON(r *http.Request, dst any) *common.ValidationError {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		v := common.NewValidationError()
		v.Add("body", "invalid JSON body")
		return v
	}
	return nil
}

func (h *Handler) SignupCredentials(w http.ResponseWriter, r *http.Request) {
	var payload SignupCredentialsRequest
	if v := decodeJSON(r, &payload); v != nil {
		writeError(w, v)
		return
	}
	if v := payload.Validate(); v != nil {
		writeError(w, v)
		return
	}

	pair, err := h.enrollment.EnrollCredentials(r.Context(), payload.Email, payload.Password, payload.Nickname)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) SignupGoogle(w http.ResponseWriter, r *http.Request) {
	h.signupAssertion(w, r, models.MethodGoogle)
}

func (h *Handler) SignupApple(w http.ResponseWriter, r *http.Request) {
	h.signupAssertion(w, r, models.MethodApple)
}

func (h *Handler) signupAssertion(w http.ResponseWriter, r *http.Request, method models.AuthMethod) {
	var payload AssertionRequest
	if v := decodeJSON(r, &payload); v != nil {
		writeError(w, v)
		return
	}
	if v := payload.Validate(); v != nil {
		writeError(w, v)
		return
	}

	pair, err := h.enrollment.EnrollAssertion(r.Context(), method, payload.JWT)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) SignInCredentials(w http.ResponseWriter, r *http.Request) {
	var payload SignInCredentialsRequest
	if v := decodeJSON(r, &payload); v != nil {
		writeError(w, v)
		return
	}
	if v := payload.Validate(); v != nil {
		writeError(w, v)
		return
	}

	res, err := h.authentication.SignInCredentials(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		FirstName:    res.FirstName,
		LastName:     res.LastName,
	})
}

func (h *Handler) SignInGoogle(w http.ResponseWriter, r *http.Request) {
	h.signInAssertion(w, r, models.MethodGoogle)
}

func (h *Handler) SignInApple(w http.ResponseWriter, r *http.Request) {
	h.signInAssertion(w, r, models.MethodApple)
}

func (h *Handler) signInAssertion(w http.ResponseWriter, r *http.Request, method models.AuthMethod) {
	var payload AssertionRequest
	if v := decodeJSON(r, &payload); v != nil {
		writeError(w, v)
		return
	}
	if v := payload.Validate(); v != nil {
		writeError(w, v)
		return
	}

	res, err := h.authentication.SignInAssertion(r.Context(), method, payload.JWT)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		FirstName:    res.FirstName,
		LastName:     res.LastName,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload RefreshRequest
	if v := decodeJSON(r, &payload); v != nil {
		writeError(w, v)
		return
	}
	if v := payload.Validate(); v != nil {
		writeError(w, v)
		return
	}

	pair, err := h.refresh.Rotate(r.Context(), payload.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Me returns the identity baked into a valid access token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrInvalidToken)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"userId":    claims.UserID,
		"firstName": claims.GivenName,
		"lastName":  claims.FamilyName,
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
