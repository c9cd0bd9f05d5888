package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

func TestEnrollCredentials_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	users := &fakeUsersRepo{findErr: common.ErrNotFound}
	refresh := &fakeRefreshRepo{}
	repos := &fakeRepoManager{u: users, r: refresh}

	svc := NewEnrollmentService(db, repos, testIssuer(t), nil, 7*24*time.Hour, testLogger())

	pair, err := svc.EnrollCredentials(context.Background(), " User@Example.COM ", "s3cret", "user1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Errorf("expected a complete token pair, got %+v", pair)
	}

	if users.created == nil {
		t.Fatal("expected a user to be created")
	}
	if users.created.Email != "user@example.com" {
		t.Errorf("expected normalized email, got %q", users.created.Email)
	}
	if users.created.Method != models.MethodCredentials {
		t.Errorf("unexpected method %q", users.created.Method)
	}
	if users.created.PasswordHash == "s3cret" || users.created.PasswordHash == "" {
		t.Error("expected password to be stored hashed")
	}
	if !auth.CheckPassword(users.created.PasswordHash, "s3cret") {
		t.Error("stored hash does not verify the original password")
	}

	if len(refresh.created) != 1 {
		t.Fatalf("expected 1 refresh token, got %d", len(refresh.created))
	}
	if refresh.created[0] != pair.RefreshToken {
		t.Error("persisted refresh token does not match the returned one")
	}
	if refresh.createdTo != "u-new" {
		t.Errorf("refresh token bound to %q, want the new user", refresh.createdTo)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet db expectations: %v", err)
	}
}

func TestEnrollCredentials_AccountExists(t *testing.T) {
	db, mock := newSQLMockDB(t)

	users := &fakeUsersRepo{findOut: &models.User{ID: "u1", Email: "user@example.com"}}
	repos := &fakeRepoManager{u: users, r: &fakeRefreshRepo{}}

	svc := NewEnrollmentService(db, repos, testIssuer(t), nil, 7*24*time.Hour, testLogger())

	_, err := svc.EnrollCredentials(context.Background(), "user@example.com", "s3cret", "user1")
	if !errors.Is(err, common.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if users.created != nil {
		t.Error("no user should be created for a taken email")
	}

	// the occupied-account check happens before any transaction is opened
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet db expectations: %v", err)
	}
}

func TestEnrollCredentials_InsertRace(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	// the pre-check sees a free slot but a concurrent enrollment wins the
	// insert and the unique index fires
	users := &fakeUsersRepo{findErr: common.ErrNotFound, createErr: common.ErrAccountExists}
	repos := &fakeRepoManager{u: users, r: &fakeRefreshRepo{}}

	svc := NewEnrollmentService(db, repos, testIssuer(t), nil, 7*24*time.Hour, testLogger())

	_, err := svc.EnrollCredentials(context.Background(), "user@example.com", "s3cret", "user1")
	if !errors.Is(err, common.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet db expectations: %v", err)
	}
}

func TestEnrollAssertion_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	key := testKey(t)
	verifiers := map[models.AuthMethod]*auth.AssertionVerifier{
		models.MethodGoogle: auth.NewAssertionVerifier(&key.PublicKey, "https://accounts.google.com", "authgate-app"),
	}

	users := &fakeUsersRepo{findErr: common.ErrNotFound}
	refresh := &fakeRefreshRepo{}
	repos := &fakeRepoManager{u: users, r: refresh}

	svc := NewEnrollmentService(db, repos, testIssuer(t), verifiers, 7*24*time.Hour, testLogger())

	assertion := signTestAssertion(t, key, googleClaims("Jane.Doe@gmail.com"))
	pair, err := svc.EnrollAssertion(context.Background(), models.MethodGoogle, assertion)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Errorf("expected a complete token pair, got %+v", pair)
	}

	if users.created == nil {
		t.Fatal("expected a user to be created")
	}
	if users.created.Email != "jane.doe@gmail.com" {
		t.Errorf("expected normalized email, got %q", users.created.Email)
	}
	if users.created.Method != models.MethodGoogle {
		t.Errorf("unexpected method %q", users.created.Method)
	}
	if users.created.FirstName != "Jane" || users.created.LastName != "Doe" {
		t.Errorf("name claims not carried over: %+v", users.created)
	}
	if users.created.PasswordHash != "" {
		t.Error("third-party accounts must not carry a password hash")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet db expectations: %v", err)
	}
}

func TestEnrollAssertion_UnverifiedEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)

	key := testKey(t)
	verifiers := map[models.AuthMethod]*auth.AssertionVerifier{
		models.MethodGoogle: auth.NewAssertionVerifier(&key.PublicKey, "https://accounts.google.com", "authgate-app"),
	}

	users := &fakeUsersRepo{findErr: common.ErrNotFound}
	repos := &fakeRepoManager{u: users, r: &fakeRefreshRepo{}}

	svc := NewEnrollmentService(db, repos, testIssuer(t), verifiers, 7*24*time.Hour, testLogger())

	claims := googleClaims("jane.doe@gmail.com")
	claims["email_verified"] = false
	_, err := svc.EnrollAssertion(context.Background(), models.MethodGoogle, signTestAssertion(t, key, claims))
	if !errors.Is(err, common.ErrUnverifiedEmail) {
		t.Fatalf("expected ErrUnverifiedEmail, got %v", err)
	}
	if users.created != nil {
		t.Error("no user should be created from an unverified email")
	}
}

func TestEnrollAssertion_UnknownMethod(t *testing.T) {
	db, _ := newSQLMockDB(t)

	repos := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	svc := NewEnrollmentService(db, repos, testIssuer(t), nil, 7*24*time.Hour, testLogger())

	_, err := svc.EnrollAssertion(context.Background(), models.MethodApple, "whatever")
	if !errors.Is(err, common.ErrInvalidAssertion) {
		t.Fatalf("expected ErrInvalidAssertion, got %v", err)
	}
}
