package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/hireline/internal/domain"
)

// Service defines the authentication operations.
type Service interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
}

// authService implements Service.
type authService struct {
	tokens   *Tokens
	userRepo domain.UserRepository
}

// NewService creates a new auth Service.
func NewService(tokens *Tokens, userRepo domain.UserRepository) Service {
	return &authService{tokens: tokens, userRepo: userRepo}
}

// Login authenticates a user by email and password and returns a signed
// access token with the user's public identity.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		// Unknown email and wrong password are indistinguishable to the caller.
		if domain.IsNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	token, exp, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to generate token", err)
	}

	return &domain.LoginResult{
		AccessToken: token,
		ExpiresAt:   exp.Unix(),
		User:        user.Identity(),
	}, nil
}
