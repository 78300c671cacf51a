//go:build e2e

// 起動済みサーバー（BASE_URL）に対して叩くテスト。
//   go test -tags e2e ./internal/e2e/...
// 管理者の操作は E2E_ADMIN_USERNAME / E2E_ADMIN_PASSWORD（cmd/seedで作ったもの）が無ければskip。
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type TestClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &TestClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type ProductDTO struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	InStock bool            `json:"in_stock"`
}

type CartItemDTO struct {
	ID        int64           `json:"id"`
	Product   ProductDTO      `json:"product"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartDTO struct {
	ID    int64           `json:"id"`
	Items []CartItemDTO   `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type OrderDTO struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []struct {
		ProductID int64           `json:"product_id"`
		Quantity  int64           `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
	} `json:"items"`
}

func (c *TestClient) doJSON(
	ctx context.Context,
	t *testing.T,
	method string,
	path string,
	bearer string,
	body any,
) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTP.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func requireStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body=%s", string(body))
}

func mustDecode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoErrorf(t, json.Unmarshal(body, &v), "body=%s", string(body))
	return v
}

func toStr(v int64) string {
	return strconv.FormatInt(v, 10)
}

// 毎回ユニークなユーザーを作ってトークンを返す
func registerUser(ctx context.Context, t *testing.T, c *TestClient) AuthResponse {
	t.Helper()

	username := "e2e-" + uuid.NewString()[:8]
	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":   username,
		"first_name": "E2E",
		"last_name":  "User",
		"email":      username + "@example.com",
		"password1":  "password123",
		"password2":  "password123",
	})
	requireStatus(t, resp, http.StatusCreated, body)

	out := mustDecode[AuthResponse](t, body)
	require.NotEmpty(t, out.Token)
	return out
}

func adminLogin(ctx context.Context, t *testing.T, c *TestClient) string {
	t.Helper()

	username := os.Getenv("E2E_ADMIN_USERNAME")
	password := os.Getenv("E2E_ADMIN_PASSWORD")
	if username == "" || password == "" {
		t.Skip("E2E_ADMIN_USERNAME / E2E_ADMIN_PASSWORD not set")
	}

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	requireStatus(t, resp, http.StatusOK, body)

	out := mustDecode[AuthResponse](t, body)
	require.True(t, out.User.IsStaff, "seeded user is not an admin")
	return out.Token
}

func createProduct(ctx context.Context, t *testing.T, c *TestClient, admin string, price string) ProductDTO {
	t.Helper()

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/admin/products", admin, map[string]any{
		"name":        "E2E-" + uuid.NewString()[:8],
		"description": "x",
		"price":       price,
		"in_stock":    true,
	})
	requireStatus(t, resp, http.StatusCreated, body)
	return mustDecode[ProductDTO](t, body)
}
