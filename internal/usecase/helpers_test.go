package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/memory"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// 共通の準備
// =====================

type fixture struct {
	store    *memory.Store
	cart     *usecase.CartUsecase
	checkout *usecase.CheckoutUsecase
	orders   *usecase.OrderUsecase
	admin    *usecase.AdminUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := memory.NewStore()
	return &fixture{
		store:    s,
		cart:     usecase.NewCartUsecase(s, s.Carts(), s.CartItems(), s.Products()),
		checkout: usecase.NewCheckoutUsecase(s),
		orders:   usecase.NewOrderUsecase(s.Orders(), s.OrderItems()),
		admin:    usecase.NewAdminUsecase(s, s.Products(), s.Categories(), s.AuditLogs()),
	}
}

func (f *fixture) product(t *testing.T, name string, price string) model.Product {
	t.Helper()

	p, err := f.store.Products().Create(context.Background(), model.Product{
		Name:    name,
		Price:   decimal.RequireFromString(price),
		InStock: true,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) user(t *testing.T, username string) int64 {
	t.Helper()

	u := &model.User{Username: username, Email: username + "@example.com", Role: model.RoleUser, IsActive: true}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.ID
}

func (f *fixture) add(t *testing.T, userID int64, productID int64, qty int64) usecase.CartMutation {
	t.Helper()

	out, err := f.cart.AddItem(context.Background(), userID, usecase.AddItemInput{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
	return out
}

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertKind(t *testing.T, err error, want error) {
	t.Helper()
	assert.True(t, errors.Is(err, want), "err=%v want kind %v", err, want)
}

func money(t *testing.T, d decimal.Decimal) string {
	t.Helper()
	return d.StringFixed(2)
}
