//go:build e2e

package e2e

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Health(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/api/health", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func Test_Cart_Checkout_Orders(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()
	admin := adminLogin(ctx, t, c)
	p := createProduct(ctx, t, c, admin, "12.50")

	user := registerUser(ctx, t, c)

	//初回は空カート
	resp, body := c.doJSON(ctx, t, http.MethodGet, "/api/cart", user.Token, nil)
	requireStatus(t, resp, http.StatusOK, body)
	cart := mustDecode[CartDTO](t, body)
	require.Empty(t, cart.Items)
	require.True(t, cart.Total.IsZero())

	//同じ商品を2回足すと1行にまとまる
	for i := 0; i < 2; i++ {
		resp, body = c.doJSON(ctx, t, http.MethodPost, "/api/cart/items", user.Token, map[string]any{"product_id": p.ID, "quantity": 1})
		requireStatus(t, resp, http.StatusOK, body)
	}
	cart = mustDecode[CartDTO](t, body)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("25.00").Equal(cart.Total), "total=%s", cart.Total)

	//空の住所は400
	resp, body = c.doJSON(ctx, t, http.MethodPost, "/api/orders", user.Token, map[string]string{"shipping_address": "  "})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "validation_error", mustDecode[ErrorResponse](t, body).Error)

	resp, body = c.doJSON(ctx, t, http.MethodPost, "/api/orders", user.Token, map[string]string{"shipping_address": "1 Test Street"})
	requireStatus(t, resp, http.StatusCreated, body)
	order := mustDecode[OrderDTO](t, body)
	assert.Equal(t, "pending", order.Status)
	assert.True(t, decimal.RequireFromString("25.00").Equal(order.TotalPrice))
	require.Len(t, order.Items, 1)
	assert.Equal(t, p.ID, order.Items[0].ProductID)

	//注文後はカートが空
	resp, body = c.doJSON(ctx, t, http.MethodGet, "/api/cart", user.Token, nil)
	requireStatus(t, resp, http.StatusOK, body)
	require.Empty(t, mustDecode[CartDTO](t, body).Items)

	//2回目は空カート
	resp, body = c.doJSON(ctx, t, http.MethodPost, "/api/orders", user.Token, map[string]string{"shipping_address": "1 Test Street"})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "empty_cart", mustDecode[ErrorResponse](t, body).Error)

	resp, body = c.doJSON(ctx, t, http.MethodGet, "/api/orders", user.Token, nil)
	requireStatus(t, resp, http.StatusOK, body)
	orders := mustDecode[[]OrderDTO](t, body)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	//値上げしても注文時の価格は変わらない
	resp, body = c.doJSON(ctx, t, http.MethodPut, "/api/admin/products/"+toStr(p.ID), admin, map[string]any{
		"name":     p.Name,
		"price":    "99.00",
		"in_stock": true,
	})
	requireStatus(t, resp, http.StatusOK, body)

	resp, body = c.doJSON(ctx, t, http.MethodGet, "/api/orders/"+toStr(order.ID), user.Token, nil)
	requireStatus(t, resp, http.StatusOK, body)
	got := mustDecode[OrderDTO](t, body)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.Items[0].Price))

	//他人の注文は存在しない扱い
	other := registerUser(ctx, t, c)
	resp, body = c.doJSON(ctx, t, http.MethodGet, "/api/orders/"+toStr(order.ID), other.Token, nil)
	requireStatus(t, resp, http.StatusNotFound, body)

	//管理者がステータスを進める
	resp, body = c.doJSON(ctx, t, http.MethodPut, "/api/admin/orders/"+toStr(order.ID)+"/status", admin, map[string]string{"status": "processing"})
	requireStatus(t, resp, http.StatusNoContent, body)
	resp, body = c.doJSON(ctx, t, http.MethodPut, "/api/admin/orders/"+toStr(order.ID)+"/status", admin, map[string]string{"status": "pending"})
	requireStatus(t, resp, http.StatusConflict, body)
}

func Test_Cart_Decrease_To_Zero_Removes(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()
	admin := adminLogin(ctx, t, c)
	p := createProduct(ctx, t, c, admin, "3.00")
	user := registerUser(ctx, t, c)

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/cart/items", user.Token, map[string]any{"product_id": p.ID})
	requireStatus(t, resp, http.StatusOK, body)
	cart := mustDecode[CartDTO](t, body)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Items[0].Quantity)

	resp, body = c.doJSON(ctx, t, http.MethodPost, "/api/cart/items/"+toStr(cart.Items[0].ID)+"/decrease", user.Token, nil)
	requireStatus(t, resp, http.StatusOK, body)
	require.Empty(t, mustDecode[CartDTO](t, body).Items)
}

func Test_Admin_Requires_Admin_Role(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()
	user := registerUser(ctx, t, c)

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/api/admin/orders", user.Token, nil)
	requireStatus(t, resp, http.StatusForbidden, body)

	resp, body = c.doJSON(ctx, t, http.MethodGet, "/api/admin/orders", "", nil)
	requireStatus(t, resp, http.StatusUnauthorized, body)
}

func Test_PasswordChange_Revokes_Old_Token(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()
	user := registerUser(ctx, t, c)

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/password", user.Token, map[string]string{
		"old_password":  "password123",
		"new_password1": "password456",
		"new_password2": "password456",
	})
	requireStatus(t, resp, http.StatusOK, body)
	fresh := mustDecode[AuthResponse](t, body)

	resp, body = c.doJSON(ctx, t, http.MethodGet, "/api/auth/me", user.Token, nil)
	requireStatus(t, resp, http.StatusUnauthorized, body)

	resp, body = c.doJSON(ctx, t, http.MethodGet, "/api/auth/me", fresh.Token, nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, user.User.ID, mustDecode[UserDTO](t, body).ID)
}
