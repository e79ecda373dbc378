package auth

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/internal/users"
	pkgauth "github.com/studhome/studhome-backend/pkg/auth"
	"github.com/studhome/studhome-backend/pkg/config"
	"github.com/studhome/studhome-backend/pkg/db/models"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
)

type fakeSessions struct {
	created []string
	revoked []string
}

func (f *fakeSessions) Create(_ context.Context, sessionID string) error {
	f.created = append(f.created, sessionID)
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, sessionID string) error {
	f.revoked = append(f.revoked, sessionID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "studhome-test",
		ExpirationMinutes: 60,
		SessionTTLMinutes: 120,
	}
}

func testPasswordConfig() config.PasswordConfig {
	// Small parameters keep the argon2 work factor test-friendly.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate users: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *fakeSessions) {
	t.Helper()
	sessions := &fakeSessions{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(users.NewRepository(db), sessions, testJWTConfig(), testPasswordConfig(), logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, sessions
}

func registerInput() RegisterInput {
	return RegisterInput{
		Username:    "amina",
		Email:       "Amina@Example.com",
		PhoneNumber: "+237670000001",
		Password:    "correct-horse",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, sessions := newTestService(t, db)

	user, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "amina@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.PasswordHash == "correct-horse" || user.PasswordHash == "" {
		t.Fatal("expected the password to be hashed")
	}

	result, err := svc.Login(context.Background(), LoginInput{Username: "amina", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a minted token")
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected 1 session created, got %d", len(sessions.created))
	}
	if result.User.LastLoginAt == nil {
		t.Fatal("expected last login time recorded")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected token for user %s, got %s", user.ID, claims.UserID)
	}
	if claims.ID != sessions.created[0] {
		t.Fatal("expected the token jti to match the created session")
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing username", func(in *RegisterInput) { in.Username = "" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"phone without country code", func(in *RegisterInput) { in.PhoneNumber = "670000001" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := registerInput()
			tc.mutate(&input)
			_, err := svc.Register(context.Background(), input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	if _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	input := registerInput()
	input.Email = "other@example.com"
	_, err := svc.Register(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	if _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Login(context.Background(), LoginInput{Username: "amina", Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	_, err := svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "whatever"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, sessions := newTestService(t, db)

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected session jti-1 revoked, got %v", sessions.revoked)
	}
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	user, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "next-password"); err == nil {
		t.Fatal("expected wrong current password to be rejected")
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "correct-horse", "next-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginInput{Username: "amina", Password: "next-password"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
