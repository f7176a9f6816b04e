package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/email"
	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	"github.com/praxishealth/praxis-api/pkg/auth"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked, please try again later")
)

const (
	resetTokenExpiry  = 1 * time.Hour
	verifyTokenExpiry = 48 * time.Hour
	refreshExpiry     = 7 * 24 * time.Hour
	maxLoginAttempts  = 5
	lockoutDuration   = 15 * time.Minute
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	emailSvc  email.Service
	hasher    security.PasswordHasher
	logger    *logger.Logger
}

func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService,
	emailSvc email.Service,
	hasher security.PasswordHasher,
	logger *logger.Logger,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		emailSvc:  emailSvc,
		hasher:    hasher,
		logger:    logger,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	existing, _ := s.userRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, apperrors.Conflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	user := &model.User{
		Base: model.Base{
			ID: uuid.New(),
		},
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.UserRole(req.Role),
		Specialty:    req.Specialty,
		Phone:        req.Phone,
		Status:       model.UserStatusPending,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token := uuid.New().String()
	if err := s.tokenRepo.Store(ctx, &model.Token{
		UserID:    user.ID,
		Token:     token,
		Type:      model.TokenTypeVerify,
		ExpiresAt: time.Now().Add(verifyTokenExpiry),
	}); err != nil {
		return nil, fmt.Errorf("failed to store verification token: %w", err)
	}

	// Registration succeeds even when the mail provider is down
	if err := s.emailSvc.SendVerification(ctx, user.Email, token); err != nil {
		s.logger.Error(err, "failed to send verification email")
	}

	return user, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	stored, err := s.tokenRepo.Get(ctx, token, model.TokenTypeVerify)
	if err != nil {
		return apperrors.BadRequest("invalid or expired verification token", err)
	}

	user, err := s.userRepo.Get(ctx, stored.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	user.EmailVerified = true
	if user.Status == model.UserStatusPending {
		user.Status = model.UserStatusActive
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return s.tokenRepo.Delete(ctx, token)
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	if user.Status == model.UserStatusLocked {
		if time.Since(user.LastLoginAttempt) < lockoutDuration {
			return nil, apperrors.Forbidden(ErrAccountLocked.Error())
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		user.LoginAttempts++
		user.LastLoginAttempt = time.Now()
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
			s.logger.Warn("account locked after failed logins", "user_id", user.ID.String())
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	return s.generateTokens(ctx, user)
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid refresh token: %w", err))
	}

	// The token must also still be on record; logout revokes it
	if _, err := s.tokenRepo.Get(ctx, refreshToken, model.TokenTypeRefresh); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("refresh token revoked: %w", err))
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("user not found: %w", err))
	}

	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.generateTokens(ctx, user)
}

func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.tokenRepo.DeleteForUser(ctx, userID, model.TokenTypeRefresh)
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.TokenClaims, error) {
	return s.jwtSvc.ValidateToken(token)
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the address exists
		return nil
	}

	token := uuid.New().String()
	if err := s.tokenRepo.Store(ctx, &model.Token{
		UserID:    user.ID,
		Token:     token,
		Type:      model.TokenTypeReset,
		ExpiresAt: time.Now().Add(resetTokenExpiry),
	}); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.logger.Error(err, "failed to send password reset email")
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	stored, err := s.tokenRepo.Get(ctx, token, model.TokenTypeReset)
	if err != nil {
		return apperrors.BadRequest("invalid or expired reset token", err)
	}

	user, err := s.userRepo.Get(ctx, stored.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.BadRequest("invalid password", err)
	}

	user.PasswordHash = hash
	user.LoginAttempts = 0
	if user.Status == model.UserStatusLocked {
		user.Status = model.UserStatusActive
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Invalidate every outstanding session
	if err := s.tokenRepo.DeleteForUser(ctx, user.ID, model.TokenTypeRefresh); err != nil {
		s.logger.Error(err, "failed to revoke refresh tokens after reset")
	}

	return s.tokenRepo.Delete(ctx, token)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.userRepo.Get(ctx, id)
}

func (s *Service) generateTokens(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.jwtSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.tokenRepo.Store(ctx, &model.Token{
		UserID:    user.ID,
		Token:     refresh,
		Type:      model.TokenTypeRefresh,
		ExpiresAt: time.Now().Add(refreshExpiry),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(s.jwtSvc.AccessTokenExpiry()),
		User:         user,
	}, nil
}
