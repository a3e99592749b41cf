package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	autherrors "fluxor/internal/auth/errors"
	"fluxor/internal/auth/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/model"
	"fluxor/pkg/sanitizer"
	"fluxor/pkg/validation"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, user *model.User) error
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, updates *model.UserUpdate) (*model.User, error)
}

type authService struct {
	repo      repository.UserRepository
	validator *validation.Validator
	cfg       *config.Config
}

func NewAuthService(repo repository.UserRepository, validator *validation.Validator, cfg *config.Config) AuthService {
	return &authService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *authService) Register(ctx context.Context, user *model.User) error {
	s.sanitize(user)
	s.applyDefaults(user)

	if user.Password == "" {
		return apperrors.Validation("User validation failed", map[string]any{
			"error": "Password is required",
		})
	}
	if err := s.validator.Struct(user); err != nil {
		s.cfg.Log.Warn("User validation failed", "error", err)
		return apperrors.Validation("User validation failed", map[string]any{"error": err.Error()})
	}

	hash, err := hashPassword(user.Password)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	user.PasswordHash = hash
	user.Password = ""

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, autherrors.ErrDuplicateEmail) {
			return apperrors.Conflict("Email already registered")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered successfully", "id", user.ID, "email", user.Email)
	return nil
}

func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Validation("Login validation failed", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		s.cfg.Log.Error("Failed to look up user for login", "error", err)
		return nil, apperrors.Internal("Failed to authenticate", err)
	}

	if !user.Active {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	if err := comparePassword(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User logged in", "id", user.ID)
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        user,
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("Missing authenticated user")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) || errors.Is(err, autherrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, updates *model.UserUpdate) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Struct(updates); err != nil {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if updates.Name != "" {
		user.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Email != "" {
		user.Email = sanitizer.NormalizeEmail(updates.Email)
	}
	if updates.Password != "" {
		hash, err := hashPassword(updates.Password)
		if err != nil {
			return nil, apperrors.Internal("Failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	if err := s.validator.Struct(user); err != nil {
		return nil, apperrors.Validation("User validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, userID, user); err != nil {
		if errors.Is(err, autherrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email already registered")
		}
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		s.cfg.Log.Error("Failed to update user", "id", userID, "error", err)
		return nil, apperrors.Internal("Failed to update user", err)
	}

	s.cfg.Log.Info("User profile updated", "id", userID)
	return user, nil
}

// --- Helpers ---

func (s *authService) sanitize(u *model.User) {
	u.Name = sanitizer.NormalizeName(u.Name)
	u.Email = sanitizer.NormalizeEmail(u.Email)
}

func (s *authService) applyDefaults(u *model.User) {
	if u.Role == "" {
		u.Role = model.RoleStaff
	}
	u.Active = true
}

func (s *authService) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTTokenExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// hashPassword prehashes with SHA-256 before bcrypt so passwords longer
// than bcrypt's 72-byte input limit still contribute all their entropy.
func hashPassword(password string) (string, error) {
	prehash := sha256.Sum256([]byte(password))
	encoded := base64.StdEncoding.EncodeToString(prehash[:])
	hash, err := bcrypt.GenerateFromPassword([]byte(encoded), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func comparePassword(hash, password string) error {
	prehash := sha256.Sum256([]byte(password))
	encoded := base64.StdEncoding.EncodeToString(prehash[:])
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(encoded))
}
