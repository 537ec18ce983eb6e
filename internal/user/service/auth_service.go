package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"coderelay/internal/common/cache"
	"coderelay/internal/user/repository"
	pkgerrors "coderelay/pkg/errors"
	"coderelay/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL       = 7 * 24 * time.Hour
	defaultLoginFailTTL   = 15 * time.Minute
	defaultLoginFailLimit = 5
	defaultIssuer         = "coderelay"
)

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	JWTSecret      []byte
	JWTIssuer      string
	TokenTTL       time.Duration
	LoginFailTTL   time.Duration
	LoginFailLimit int
	PasswordCost   int
}

// AuthService handles signup, login and session token checks.
type AuthService struct {
	users          repository.UserRepository
	loginFailCache cache.BasicOps
	config         AuthServiceConfig
	now            func() time.Time
}

// NewAuthService creates a new AuthService. A nil loginFailCache disables the login guard.
func NewAuthService(users repository.UserRepository, loginFailCache cache.BasicOps, cfg AuthServiceConfig) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.LoginFailTTL <= 0 {
		cfg.LoginFailTTL = defaultLoginFailTTL
	}
	if cfg.LoginFailLimit == 0 {
		cfg.LoginFailLimit = defaultLoginFailLimit
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = defaultIssuer
	}

	return &AuthService{
		users:          users,
		loginFailCache: loginFailCache,
		config:         cfg,
		now:            time.Now,
	}
}

// RegisterInput represents input for user registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput represents input for user login.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// UserInfo represents basic user info for auth responses.
type UserInfo struct {
	ID    int64
	Name  string
	Email string
}

// AuthResult represents the result of auth operations.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      UserInfo
}

// Register creates a new user and issues a session token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return AuthResult{}, pkgerrors.BadRequest("Name, email and password are required")
	}
	if err := validateName(name); err != nil {
		return AuthResult{}, err
	}
	if err := validateEmail(email); err != nil {
		return AuthResult{}, err
	}
	if err := validatePassword(input.Password); err != nil {
		return AuthResult{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.PasswordCost)
	if err != nil {
		return AuthResult{}, pkgerrors.Wrap(fmt.Errorf("hash password failed: %w", err), pkgerrors.InternalServerError)
	}

	user := &repository.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
	}
	userID, err := s.users.Create(ctx, user)
	if err != nil {
		return AuthResult{}, mapUserCreateError(err)
	}
	user.ID = userID

	logger.Info(ctx, "user registered", zap.Int64("userID", userID))
	return s.issueToken(user)
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return AuthResult{}, pkgerrors.BadRequest("Email and password are required")
	}

	if err := s.checkLoginLimit(ctx, email, input.IP); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			s.recordLoginFailure(ctx, email, input.IP)
			return AuthResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
		}
		return AuthResult{}, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordLoginFailure(ctx, email, input.IP)
		return AuthResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
	}

	s.clearLoginFailure(ctx, email, input.IP)
	return s.issueToken(user)
}

// Authenticate validates a session token and returns its user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return 0, err
	}
	return userIDFromClaims(claims)
}

func (s *AuthService) issueToken(user *repository.User) (AuthResult, error) {
	token, expiresAt, err := s.generateToken(user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User: UserInfo{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
	}, nil
}

func mapUserCreateError(err error) error {
	switch {
	case stderrors.Is(err, repository.ErrEmailExists), stderrors.Is(err, repository.ErrDuplicate):
		return pkgerrors.New(pkgerrors.UserAlreadyExists)
	default:
		return pkgerrors.Wrap(fmt.Errorf("create user failed: %w", err), pkgerrors.DatabaseError)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
