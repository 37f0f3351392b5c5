package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/config"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthAccounts is the account store as seen by authentication.
type AuthAccounts interface {
	Create(ctx context.Context, p repository.CreateAccountParams) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
}

type AuthService struct {
	Config   config.Config
	Accounts AuthAccounts
	Logger   *slog.Logger
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	Account      domain.Account
	ExpiresAt    time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// Register creates an ordinary member account. Roles are only ever raised
// by an admin afterwards.
func (s AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)
	account, err := s.Accounts.Create(ctx, repository.CreateAccountParams{
		Name:         in.Name,
		Email:        in.Email,
		Role:         domain.RoleOrdinary,
		PasswordHash: &hashStr,
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, fmt.Errorf("email already used")
		}
		return nil, err
	}
	return s.issueTokens(account)
}

func (s AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	account, err := s.Accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if account.PasswordHash == nil || !account.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(account)
}

func (s AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.Config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != "refresh" {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	account, err := s.Accounts.GetByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !account.Active {
		return nil, ErrInvalidToken
	}
	return s.issueTokens(account)
}

func (s AuthService) issueTokens(account *domain.Account) (*AuthResult, error) {
	now := time.Now()
	expiresAt := now.Add(s.Config.AccessTokenTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        strconv.FormatInt(account.ID, 10),
		"email":      account.Email,
		"role":       string(account.Role),
		"token_type": "access",
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	})
	accessStr, err := access.SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        strconv.FormatInt(account.ID, 10),
		"token_type": "refresh",
		"iat":        now.Unix(),
		"exp":        now.Add(s.Config.RefreshTokenTTL).Unix(),
	})
	refreshStr, err := refresh.SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
		Account:      *account,
		ExpiresAt:    expiresAt,
	}, nil
}
