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

// EnrollmentService creates new accounts. Each successful enrollment
// atomically persists the user together with its first refresh token and
// returns the initial token pair.
type EnrollmentService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	issuer     *auth.TokenIssuer
	verifiers  map[models.AuthMethod]*auth.AssertionVerifier
	refreshTTL time.Duration
	logger     logging.Logger
}

func NewEnrollmentService(db *sql.DB, repos repomanager.RepositoryManager,
	issuer *auth.TokenIssuer, verifiers map[models.AuthMethod]*auth.AssertionVerifier,
	refreshTTL time.Duration, logger logging.Logger) *EnrollmentService {
	return &EnrollmentService{
		db:         db,
		repos:      repos,
		issuer:     issuer,
		verifiers:  verifiers,
		refreshTTL: refreshTTL,
		logger:     logger.With("module", "enrollment"),
	}
}

// EnrollCredentials creates a password-based account. The plaintext
// password is hashed before anything is persisted and never stored.
func (s *EnrollmentService) EnrollCredentials(ctx context.Context, email, password, nickname string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.ensureAccountFree(ctx, email, models.MethodCredentials); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Method:       models.MethodCredentials,
		Nickname:     nickname,
	}
	return s.enroll(ctx, user)
}

// EnrollAssertion creates an account from a verified third-party identity
// assertion. Enrollment requires a verified email claim; sign-in does not.
func (s *EnrollmentService) EnrollAssertion(ctx context.Context, method models.AuthMethod, assertion string) (*TokenPair, error) {
	verifier, ok := s.verifiers[method]
	if !ok {
		return nil, common.ErrInvalidAssertion
	}

	claims, err := verifier.VerifyForEnrollment(assertion)
	if err != nil {
		s.logger.Warn(ctx, "assertion rejected", "method", string(method), "error", err.Error())
		return nil, err
	}

	email := strings.ToLower(claims.Email)
	if err := s.ensureAccountFree(ctx, email, method); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Method:    method,
		Nickname:  claims.GivenName,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
	}
	return s.enroll(ctx, user)
}

// ensureAccountFree fails with ErrAccountExists when the (email, method)
// pair is already taken. The unique index on users backstops the race
// between this check and the insert.
func (s *EnrollmentService) ensureAccountFree(ctx context.Context, email string, method models.AuthMethod) error {
	_, err := s.repos.Users(s.db).FindByEmailAndMethod(ctx, email, method)
	if err == nil {
		return common.ErrAccountExists
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "account lookup failed", "error", err.Error())
		return classifyStoreError(err)
	}
	return nil
}

// enroll creates the user record and its first refresh token in one
// transaction and mints the initial access token.
func (s *EnrollmentService) enroll(ctx context.Context, user *models.User) (*TokenPair, error) {
	var pair *TokenPair

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repos.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}

		refresh, err := newRefreshValue()
		if err != nil {
			return err
		}
		if err := s.repos.RefreshTokens(tx).Create(ctx, created.ID, refresh, s.refreshTTL); err != nil {
			return err
		}

		access, err := s.issuer.Mint(created.ID)
		if err != nil {
			return err
		}

		pair = &TokenPair{AccessToken: access, RefreshToken: refresh}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrAccountExists) {
			return nil, common.ErrAccountExists
		}
		s.logger.Error(ctx, "enrollment failed", "method", string(user.Method), "error", err.Error())
		return nil, classifyStoreError(err)
	}

	s.logger.Info(ctx, "account enrolled", "userID", user.ID, "method", string(user.Method))
	return pair, nil
}
