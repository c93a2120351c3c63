package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/auth"
	"github.com/jmcgrail/riskindex-engine/internal/errors"
	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

// authServiceImpl implements AuthService
type authServiceImpl struct {
	repos      *repository.Repositories
	jwtService *auth.JWTService
	cfg        *config.Config
}

// newAuthService creates a new auth service implementation
func newAuthService(repos *repository.Repositories, cfg *config.Config) AuthService {
	return &authServiceImpl{
		repos:      repos,
		jwtService: auth.NewJWTService(cfg.JWTSecret),
		cfg:        cfg,
	}
}

// Login authenticates a user and returns a token
func (s *authServiceImpl) Login(email, password string) (*models.LoginResponse, error) {
	user, err := s.repos.User.GetByEmail(email)
	if err != nil {
		return nil, errors.Unauthorized("invalid credentials", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errors.Unauthorized("invalid credentials", nil)
	}

	claims := auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	token, expiresAt, err := s.jwtService.GenerateToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: models.User{
			ID:        user.ID,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
	}, nil
}

// Register creates a new user account
func (s *authServiceImpl) Register(req *models.CreateUserRequest) (*models.User, error) {
	existingUser, err := s.repos.User.GetByEmail(req.Email)
	if err == nil && existingUser != nil {
		return nil, errors.Conflict(fmt.Sprintf("user with email %s already exists", req.Email), nil)
	}

	role := req.Role
	if role == "" {
		role = models.RoleAnalyst
	}
	if role != models.RoleAnalyst && role != models.RoleAdmin {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid role: %s", role), nil)
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, errors.ValidationError(err.Error(), err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         string(role),
	}

	if err := s.repos.User.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Clear password hash from response
	user.PasswordHash = ""

	return user, nil
}

// ValidateToken validates a JWT token and returns the user
func (s *authServiceImpl) ValidateToken(token string) (*models.User, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthorized("invalid token", err)
	}

	// Get user from database to ensure they still exist
	user, err := s.repos.User.GetByID(claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("user not found", err)
	}

	return &models.User{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}
