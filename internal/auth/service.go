package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/internal/users"
	"github.com/studhome/studhome-backend/pkg/auth"
	"github.com/studhome/studhome-backend/pkg/config"
	"github.com/studhome/studhome-backend/pkg/db"
	"github.com/studhome/studhome-backend/pkg/db/models"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
	"github.com/studhome/studhome-backend/pkg/security"
)

const minPasswordLength = 8

type sessionStore interface {
	Create(ctx context.Context, sessionID string) error
	Revoke(ctx context.Context, sessionID string) error
}

// RegisterInput captures a signup request.
type RegisterInput struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
}

// LoginInput captures a login request.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult carries the minted token and the authenticated user.
type LoginResult struct {
	Token string
	User  *models.User
}

// UpdateProfileInput carries optional profile updates; nil means unchanged.
type UpdateProfileInput struct {
	Email       *string
	PhoneNumber *string
}

// Service handles identity operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

type service struct {
	repo        users.Repository
	sessions    sessionStore
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the auth service.
func NewService(
	repo users.Repository,
	sessions sessionStore,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := strings.TrimSpace(input.PhoneNumber)

	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if !strings.HasPrefix(phone, "+") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number must include the country code").
			WithDetails(map[string]any{"phone_number": "must start with +"})
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email already taken")
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")
	return user, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	jti := uuid.NewString()
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID:  user.ID,
		IsStaff: user.IsStaff,
		JTI:     jti,
	})
	if err != nil {
		return nil, fmt.Errorf("minting token: %w", err)
	}
	if err := s.sessions.Create(ctx, jti); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	loginAt := s.now()
	user.LastLoginAt = &loginAt
	if err := s.repo.Update(ctx, user); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "failed to record login time")
	}

	return &LoginResult{Token: token, User: user}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
		}
		user.Email = email
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if !strings.HasPrefix(phone, "+") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number must include the country code")
		}
		user.PhoneNumber = phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already taken")
		}
		return nil, err
	}
	return user, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = hash
	return s.repo.Update(ctx, user)
}
