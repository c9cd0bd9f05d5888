package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
)

type contextKey string

const accessClaimsContextKey contextKey = "access_claims"

// RequireAuth rejects requests without a valid Bearer access token and
// stores the token's claims on the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeError(w, common.ErrInvalidToken)
			return
		}

		claims, err := h.issuer.Parse(strings.TrimSpace(header[7:]))
		if err != nil {
			writeError(w, common.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), accessClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the access claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.AccessClaims, bool) {
	claims, ok := ctx.Value(accessClaimsContextKey).(*auth.AccessClaims)
	return claims, ok
}
