package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// AssertionClaims is the verified claim set extracted from a third-party
// identity token.
type AssertionClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// AssertionVerifier validates signed identity tokens from a single provider
// against its trusted public key and expected issuer/audience pair. It has
// no side effects.
type AssertionVerifier struct {
	publicKey *rsa.PublicKey
	issuer    string
	audience  string
}

func NewAssertionVerifier(publicKey *rsa.PublicKey, issuer, audience string) *AssertionVerifier {
	return &AssertionVerifier{publicKey: publicKey, issuer: issuer, audience: audience}
}

// Verify checks the token's signature, issuer, audience, and expiry and
// returns the claims. The email claim must be present and well formed; the
// email_verified claim is not required here (sign-in accepts unverified
// addresses, enrollment does not).
func (v *AssertionVerifier) Verify(tokenString string) (*AssertionClaims, error) {
	claims := &AssertionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return v.publicKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidAssertion, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidAssertion
	}

	claims.Email = strings.TrimSpace(claims.Email)
	if claims.Email == "" || !strings.Contains(claims.Email, "@") {
		return nil, fmt.Errorf("%w: missing or malformed email claim", common.ErrInvalidAssertion)
	}

	return claims, nil
}

// VerifyForEnrollment runs Verify and additionally requires a verified email
// address and the name claims needed to create an account.
func (v *AssertionVerifier) VerifyForEnrollment(tokenString string) (*AssertionClaims, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.EmailVerified {
		return nil, common.ErrUnverifiedEmail
	}
	if claims.GivenName == "" || claims.FamilyName == "" {
		return nil, fmt.Errorf("%w: missing name claims", common.ErrInvalidAssertion)
	}
	return claims, nil
}
