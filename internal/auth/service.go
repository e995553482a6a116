package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/andreasstove999/retail-backend/internal/apperr"
)

type Service struct {
	repo   Repository
	tokens TokenStore
	logger *zap.Logger
}

func NewService(repo Repository, tokens TokenStore, logger *zap.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validationf("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validationf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	u := &User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		Role:         RoleCustomer,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return &Session{Token: token, Email: u.Email, Role: u.Role}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}
	return &Session{Token: token, Email: u.Email, Role: u.Role}, nil
}

// ResolvePrincipal turns a bearer token into the calling principal.
func (s *Service) ResolvePrincipal(ctx context.Context, token string) (*Principal, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return &Principal{UserID: u.ID, Role: u.Role}, nil
}
