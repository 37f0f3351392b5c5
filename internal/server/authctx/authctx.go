package authctx

import (
	"context"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
)

type contextKey string

const accountContextKey contextKey = "currentAccount"

type CurrentAccount struct {
	ID    int64
	Email string
	Role  domain.AccountRole
}

func WithCurrentAccount(ctx context.Context, account CurrentAccount) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

func FromContext(ctx context.Context) *CurrentAccount {
	val, ok := ctx.Value(accountContextKey).(CurrentAccount)
	if !ok {
		return nil
	}
	return &val
}
