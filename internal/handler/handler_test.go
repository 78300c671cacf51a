package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/memory"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// テスト用サーバ
// =====================

type testAPI struct {
	e      *echo.Echo
	store  *memory.Store
	issuer *auth.Issuer
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(ctx context.Context) error { return p.err }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func newTestAPI(t *testing.T, pinger handler.Pinger) *testAPI {
	t.Helper()

	s := memory.NewStore()
	issuer := auth.NewIssuer("handler-test-secret", time.Hour)

	cartUC := usecase.NewCartUsecase(s, s.Carts(), s.CartItems(), s.Products())
	accountUC := usecase.NewAccountUsecase(s.Users(), usecase.NewBcryptPasswordHasher(bcrypt.MinCost), issuer, realClock{})

	e := echo.New()
	api := e.Group("/api")
	authMW := []echo.MiddlewareFunc{middleware.AuthJWT(issuer), middleware.TokenVersionGuard(s.Users())}
	adminMW := append(append([]echo.MiddlewareFunc{}, authMW...), middleware.AdminRoleGuard())

	handler.NewHealthHandler(pinger).RegisterRoutes(api)
	handler.NewProductHandler(usecase.NewCatalogUsecase(s.Products(), s.Categories())).RegisterRoutes(api)
	handler.NewAccountHandler(accountUC).RegisterRoutes(api, authMW...)
	handler.NewCartHandler(cartUC).RegisterRoutes(api, authMW...)
	handler.NewOrderHandler(usecase.NewCheckoutUsecase(s), usecase.NewOrderUsecase(s.Orders(), s.OrderItems())).RegisterRoutes(api, authMW...)
	handler.NewFavoriteHandler(usecase.NewFavoriteUsecase(s.Favorites(), s.Products())).RegisterRoutes(api, authMW...)
	handler.NewAdminHandler(usecase.NewAdminUsecase(s, s.Products(), s.Categories(), s.AuditLogs())).RegisterRoutes(api, adminMW...)

	return &testAPI{e: e, store: s, issuer: issuer}
}

// ユーザーを作ってBearerトークンを返す
func (a *testAPI) login(t *testing.T, username string, role model.Role) (int64, string) {
	t.Helper()

	u := &model.User{Username: username, Role: role, IsActive: true}
	require.NoError(t, a.store.Users().Create(context.Background(), u))
	tok, _, err := a.issuer.Issue(*u, time.Now())
	require.NoError(t, err)
	return u.ID, tok
}

func (a *testAPI) product(t *testing.T, name string, price string) model.Product {
	t.Helper()

	p, err := a.store.Products().Create(context.Background(), model.Product{Name: name, Price: decimal.RequireFromString(price), InStock: true})
	require.NoError(t, err)
	return p
}

func (a *testAPI) do(t *testing.T, method string, path string, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body=%s", rec.Body.String())
	return v
}

var errPing = errors.New("connection refused")
