// Package auth implements the cryptographic building blocks of the server:
// minting and parsing RS256 access tokens, verifying third-party identity
// assertions, and hashing/checking passwords.
package auth

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// AccessClaims is the claim set carried by minted access tokens. Name claims
// are present only on tokens minted by sign-in flows.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID     string `json:"userId"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
}

// TokenIssuer mints short-lived RS256-signed access tokens. Validity of a
// minted token is determined purely by its signature and embedded expiry,
// never by a store lookup.
type TokenIssuer struct {
	privateKey *rsa.PrivateKey
	issuer     string
	audience   string
	validity   time.Duration
}

func NewTokenIssuer(privateKey *rsa.PrivateKey, issuer, audience string, validity time.Duration) *TokenIssuer {
	return &TokenIssuer{
		privateKey: privateKey,
		issuer:     issuer,
		audience:   audience,
		validity:   validity,
	}
}

// Mint returns a signed access token for userID carrying only the user id.
func (i *TokenIssuer) Mint(userID string) (string, error) {
	return i.MintWithName(userID, "", "")
}

// MintWithName returns a signed access token that additionally carries the
// user's name claims. Empty names are omitted from the token.
func (i *TokenIssuer) MintWithName(userID, givenName, familyName string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		UserID:     userID,
		GivenName:  givenName,
		FamilyName: familyName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(i.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// Parse verifies an access token's signature, issuer, audience, and expiry
// against this issuer's key pair and returns its claims.
func (i *TokenIssuer) Parse(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return &i.privateKey.PublicKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
