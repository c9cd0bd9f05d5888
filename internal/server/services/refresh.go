package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
)

// RefreshService rotates refresh tokens: each presented value is consumed
// exactly once and replaced by a fresh pair.
type RefreshService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	issuer     *auth.TokenIssuer
	refreshTTL time.Duration
	logger     logging.Logger
}

func NewRefreshService(db *sql.DB, repos repomanager.RepositoryManager,
	issuer *auth.TokenIssuer, refreshTTL time.Duration, logger logging.Logger) *RefreshService {
	return &RefreshService{
		db:         db,
		repos:      repos,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		logger:     logger.With("module", "refresh"),
	}
}

// Rotate validates the presented token and atomically replaces it. The
// whole sequence runs in a single transaction, so a token is never
// destroyed without its replacement being durably committed. The same
// value can never be rotated twice: the loser of two concurrent attempts
// observes either a missing row or a zero-row delete and gets
// ErrInvalidRefreshToken.
func (s *RefreshService) Rotate(ctx context.Context, token string) (*TokenPair, error) {
	var pair *TokenPair

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.RefreshTokens(tx)

		current, err := repo.Find(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidRefreshToken
			}
			return err
		}

		// expires_at <= now means expired; a token on the boundary is not valid
		if !current.Expires.After(time.Now()) {
			return common.ErrRefreshTokenExpired
		}

		owner, err := s.repos.Users(tx).FindByID(ctx, current.UserID)
		if err != nil {
			return err
		}

		if err := repo.Delete(ctx, token); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidRefreshToken
			}
			return err
		}

		replacement, err := newRefreshValue()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, owner.ID, replacement, s.refreshTTL); err != nil {
			return err
		}

		access, err := s.issuer.Mint(owner.ID)
		if err != nil {
			return err
		}

		pair = &TokenPair{AccessToken: access, RefreshToken: replacement}
		s.logger.Debug(ctx, "token rotated", "user_id", owner.ID)
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidRefreshToken) || errors.Is(err, common.ErrRefreshTokenExpired) {
			return nil, err
		}
		s.logger.Error(ctx, "rotation failed", "error", err.Error())
		return nil, classifyStoreError(err)
	}

	return pair, nil
}
