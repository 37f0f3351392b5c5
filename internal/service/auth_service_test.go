package service

import (
	"context"
	"testing"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/config"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthAccounts struct {
	byEmail map[string]domain.Account
	byID    map[int64]domain.Account
	nextID  int64
}

func (f *fakeAuthAccounts) Create(_ context.Context, p repository.CreateAccountParams) (*domain.Account, error) {
	if _, ok := f.byEmail[p.Email]; ok {
		return nil, domain.ErrConflict
	}
	f.nextID++
	a := domain.Account{
		ID:           f.nextID,
		Name:         p.Name,
		Email:        p.Email,
		Role:         p.Role,
		Active:       true,
		PasswordHash: p.PasswordHash,
	}
	if f.byEmail == nil {
		f.byEmail = map[string]domain.Account{}
	}
	if f.byID == nil {
		f.byID = map[int64]domain.Account{}
	}
	f.byEmail[p.Email] = a
	f.byID[a.ID] = a
	return &a, nil
}

func (f *fakeAuthAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	a, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAuthAccounts) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func newAuthService() (*fakeAuthAccounts, AuthService) {
	accounts := &fakeAuthAccounts{}
	svc := AuthService{
		Config: config.Config{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Accounts: accounts,
		Logger:   discardLogger(),
	}
	return accounts, svc
}

func TestRegisterAndLogin(t *testing.T) {
	_, svc := newAuthService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Lotte",
		Email:    "lotte@example.org",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, domain.RoleOrdinary, result.Account.Role, "new registrations never start above ordinary")

	login, err := svc.Login(context.Background(), LoginInput{
		Email:    "lotte@example.org",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, login.Account.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newAuthService()
	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Lotte", Email: "lotte@example.org", Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{
		Email: "lotte@example.org", Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	_, svc := newAuthService()

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.org", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	accounts, svc := newAuthService()
	result, err := svc.Register(context.Background(), RegisterInput{
		Name: "Lotte", Email: "lotte@example.org", Password: "correct horse battery",
	})
	require.NoError(t, err)

	a := accounts.byEmail["lotte@example.org"]
	a.Active = false
	accounts.byEmail["lotte@example.org"] = a
	accounts.byID[result.Account.ID] = a

	_, err = svc.Login(context.Background(), LoginInput{
		Email: "lotte@example.org", Password: "correct horse battery",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	_, svc := newAuthService()
	result, err := svc.Register(context.Background(), RegisterInput{
		Name: "Lotte", Email: "lotte@example.org", Password: "correct horse battery",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, refreshed.Account.ID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	_, svc := newAuthService()
	result, err := svc.Register(context.Background(), RegisterInput{
		Name: "Lotte", Email: "lotte@example.org", Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), result.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "an access token is not a refresh token")
}

func TestRefreshRejectsGarbage(t *testing.T) {
	_, svc := newAuthService()

	_, err := svc.Refresh(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
