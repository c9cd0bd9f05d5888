package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
)

// enumerationGuardHash is a throwaway bcrypt hash compared against when no
// account matches a credentials sign-in, so that unknown emails and wrong
// passwords take roughly the same time to reject.
const enumerationGuardHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// SignInResult is a token pair plus the display-name fields returned by
// the sign-in endpoints.
type SignInResult struct {
	TokenPair
	FirstName string
	LastName  string
}

// AuthenticationService signs in existing accounts. It never creates
// users; an unknown verified third-party identity is rejected, not
// auto-enrolled.
type AuthenticationService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	issuer     *auth.TokenIssuer
	verifiers  map[models.AuthMethod]*auth.AssertionVerifier
	refreshTTL time.Duration
	logger     logging.Logger
}

func NewAuthenticationService(db *sql.DB, repos repomanager.RepositoryManager,
	issuer *auth.TokenIssuer, verifiers map[models.AuthMethod]*auth.AssertionVerifier,
	refreshTTL time.Duration, logger logging.Logger) *AuthenticationService {
	return &AuthenticationService{
		db:         db,
		repos:      repos,
		issuer:     issuer,
		verifiers:  verifiers,
		refreshTTL: refreshTTL,
		logger:     logger.With("module", "authentication"),
	}
}

// SignInCredentials verifies an email/password pair. Unknown account,
// missing password hash, and wrong password all produce the same
// ErrInvalidCredentials so responses do not enumerate accounts.
func (s *AuthenticationService) SignInCredentials(ctx context.Context, email, password string) (*SignInResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repos.Users(s.db).FindByEmailAndMethod(ctx, email, models.MethodCredentials)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			auth.CheckPassword(enumerationGuardHash, password)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "account lookup failed", "error", err.Error())
		return nil, classifyStoreError(err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	return s.signIn(ctx, user)
}

// SignInAssertion verifies a third-party identity assertion and signs in
// the matching account. This path does not require a verified email and
// does not auto-enroll unknown identities.
func (s *AuthenticationService) SignInAssertion(ctx context.Context, method models.AuthMethod, assertion string) (*SignInResult, error) {
	verifier, ok := s.verifiers[method]
	if !ok {
		return nil, common.ErrInvalidAssertion
	}

	claims, err := verifier.Verify(assertion)
	if err != nil {
		s.logger.Warn(ctx, "assertion rejected", "method", string(method), "error", err.Error())
		return nil, err
	}

	user, err := s.repos.Users(s.db).FindByEmailAndMethod(ctx, strings.ToLower(claims.Email), method)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		s.logger.Error(ctx, "account lookup failed", "error", err.Error())
		return nil, classifyStoreError(err)
	}

	return s.signIn(ctx, user)
}

// signIn mints a fresh refresh token inside a transaction and an access
// token carrying the user's name claims.
func (s *AuthenticationService) signIn(ctx context.Context, user *models.User) (*SignInResult, error) {
	var result *SignInResult

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		refresh, err := newRefreshValue()
		if err != nil {
			return err
		}
		if err := s.repos.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.refreshTTL); err != nil {
			return err
		}

		access, err := s.issuer.MintWithName(user.ID, user.FirstName, user.LastName)
		if err != nil {
			return err
		}

		result = &SignInResult{
			TokenPair: TokenPair{AccessToken: access, RefreshToken: refresh},
			FirstName: user.FirstName,
			LastName:  user.LastName,
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "sign-in failed", "userID", user.ID, "error", err.Error())
		return nil, classifyStoreError(err)
	}

	s.logger.Info(ctx, "signed in", "userID", user.ID, "method", string(user.Method))
	return result, nil
}
