package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. The id is minted here; the email is stored
// lowercased. A concurrent insert for the same (email, method) pair hits
// the unique index and is reported as ErrAccountExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, auth_method, nickname, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	user.ID = uuid.NewString()
	user.Email = strings.ToLower(user.Email)

	passwordHash := sql.NullString{String: user.PasswordHash, Valid: user.PasswordHash != ""}

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, passwordHash, string(user.Method),
		user.Nickname, user.FirstName, user.LastName,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrAccountExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// FindByEmailAndMethod returns the user row for the given account pair.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) FindByEmailAndMethod(ctx context.Context, email string, method models.AuthMethod) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, auth_method, nickname, first_name, last_name, created_at
		FROM users
		WHERE lower(email) = lower($1) AND auth_method = $2
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email, string(method)))
}

// FindByID returns the user row for the given primary key.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, auth_method, nickname, first_name, last_name, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var passwordHash sql.NullString
	var method string

	err := row.Scan(&user.ID, &user.Email, &passwordHash, &method,
		&user.Nickname, &user.FirstName, &user.LastName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.PasswordHash = passwordHash.String
	user.Method = models.AuthMethod(method)
	return user, nil
}
