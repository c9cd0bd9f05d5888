package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^\s*INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password_hash,\s*auth_method,\s*nickname,\s*first_name,\s*last_name\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+created_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs(sqlmock.AnyArg(), "jane@example.com", sqlmock.AnyArg(), "CREDENTIALS", "jane", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	u := &models.User{
		Email:        "Jane@Example.com",
		PasswordHash: "$2a$10$hash",
		Method:       models.MethodCredentials,
		Nickname:     "jane",
	}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected minted id, got empty")
	}
	if got.Email != "jane@example.com" {
		t.Fatalf("email must be stored lowercased, got %q", got.Email)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at: %v", got.CreatedAt)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_method_idx"})

	_, err := repo.Create(context.Background(), &models.User{
		Email:  "jane@example.com",
		Method: models.MethodCredentials,
	})
	if !errors.Is(err, common.ErrAccountExists) {
		t.Fatalf("want common.ErrAccountExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "x@y.z", Method: models.MethodGoogle})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

const selectByEmailQ = `(?s)^\s*SELECT\s+id,\s*email,\s*password_hash,\s*auth_method,\s*nickname,\s*first_name,\s*last_name,\s*created_at\s+FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)\s+AND\s+auth_method\s*=\s*\$2\s*$`

func TestFindByEmailAndMethod_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "auth_method", "nickname", "first_name", "last_name", "created_at"}).
		AddRow("u-1", "jane@example.com", "$2a$10$hash", "CREDENTIALS", "jane", "", "", time.Now())
	mock.ExpectQuery(selectByEmailQ).
		WithArgs("Jane@Example.COM", "CREDENTIALS").
		WillReturnRows(rows)

	got, err := repo.FindByEmailAndMethod(context.Background(), "Jane@Example.COM", models.MethodCredentials)
	if err != nil {
		t.Fatalf("FindByEmailAndMethod error: %v", err)
	}
	if got.ID != "u-1" || got.Method != models.MethodCredentials || got.PasswordHash != "$2a$10$hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByEmailAndMethod_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByEmailQ).
		WithArgs("ghost@example.com", "GOOGLE").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmailAndMethod(context.Background(), "ghost@example.com", models.MethodGoogle)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestFindByEmailAndMethod_NullPasswordHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "auth_method", "nickname", "first_name", "last_name", "created_at"}).
		AddRow("u-2", "jane@example.com", nil, "GOOGLE", "Jane", "Jane", "Doe", time.Now())
	mock.ExpectQuery(selectByEmailQ).
		WithArgs("jane@example.com", "GOOGLE").
		WillReturnRows(rows)

	got, err := repo.FindByEmailAndMethod(context.Background(), "jane@example.com", models.MethodGoogle)
	if err != nil {
		t.Fatalf("FindByEmailAndMethod error: %v", err)
	}
	if got.PasswordHash != "" {
		t.Fatalf("third-party account must have empty password hash, got %q", got.PasswordHash)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}
