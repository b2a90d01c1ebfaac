package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"speakai-platform/internal/apperr"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/rbac"
)

const minPasswordLength = 8

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(now time.Time, email, role string) (string, error)
}

// Limiter throttles login attempts by key.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type Service struct {
	repo    Repository
	tokens  TokenIssuer
	limiter Limiter
	clock   func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, limiter Limiter) *Service {
	return &Service{repo: repo, tokens: tokens, limiter: limiter, clock: time.Now}
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return User{}, apperr.Validation("invalid email address")
	}
	if strings.TrimSpace(req.Name) == "" {
		return User{}, apperr.Validation("name is required")
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return User{}, apperr.Validation("company_name is required")
	}
	if req.Password != req.ConfirmPassword {
		return User{}, apperr.Validation("Passwords do not match")
	}
	if len(req.Password) < minPasswordLength {
		return User{}, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, apperr.Validation("Email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, User{
		Email:          email,
		Name:           strings.TrimSpace(req.Name),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		HashedPassword: hash,
		Role:           rbac.RoleAdmin,
		IsActive:       true,
	})
	if errors.Is(err, ErrEmailTaken) {
		return User{}, apperr.Validation("Email already registered")
	}
	return u, err
}

// Login verifies credentials and issues a bearer token. clientIP feeds the rate limit key.
func (s *Service) Login(ctx context.Context, email, password, clientIP string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.limiter != nil && !s.limiter.Allow(ctx, "login:"+email+":"+clientIP) {
		return LoginResult{}, fmt.Errorf("%w: too many login attempts", apperr.ErrRateLimited)
	}
	if s.tokens == nil {
		return LoginResult{}, errors.New("users: token issuer not configured")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, fmt.Errorf("%w: Incorrect email or password", apperr.ErrUnauthorized)
		}
		return LoginResult{}, err
	}
	if !auth.CheckPassword(u.HashedPassword, password) {
		return LoginResult{}, fmt.Errorf("%w: Incorrect email or password", apperr.ErrUnauthorized)
	}
	if !u.IsActive {
		return LoginResult{}, apperr.Validation("Inactive user")
	}

	tok, err := s.tokens.Issue(s.clock().UTC(), u.Email, u.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{AccessToken: tok, TokenType: "bearer", Role: u.Role}, nil
}

func (s *Service) Me(ctx context.Context, email string) (User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !u.IsActive {
		return User{}, apperr.Validation("Inactive user")
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.HashedPassword, req.CurrentPassword) {
		return apperr.Validation("Current password is incorrect")
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperr.Validation("New passwords do not match")
	}
	if len(req.NewPassword) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if req.NewPassword == req.CurrentPassword {
		return apperr.Validation("New password must differ from the current password")
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, u.ID, hash, s.clock().UTC())
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return User{}, apperr.NotFound("User not found")
	}
	return u, err
}

func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperr.NotFound("User not found")
	}
	return u, err
}

// LookupIdentity satisfies auth.UserLookup.
func (s *Service) LookupIdentity(ctx context.Context, email string) (auth.Identity, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role, IsActive: u.IsActive}, nil
}
