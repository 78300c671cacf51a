package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/memory"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/web"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct{}

func (clock) Now() time.Time { return time.Now() }

// 本番と同じ組み立てをメモリストアで
func newServer(t *testing.T) (*echo.Echo, *memory.Store) {
	t.Helper()

	s := memory.NewStore()
	issuer := auth.NewIssuer("server-test-secret", time.Hour)

	catalogUC := usecase.NewCatalogUsecase(s.Products(), s.Categories())
	cartUC := usecase.NewCartUsecase(s, s.Carts(), s.CartItems(), s.Products())
	checkoutUC := usecase.NewCheckoutUsecase(s)
	orderUC := usecase.NewOrderUsecase(s.Orders(), s.OrderItems())
	accountUC := usecase.NewAccountUsecase(s.Users(), usecase.NewBcryptPasswordHasher(bcrypt.MinCost), issuer, clock{})

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	e := server.New(server.Deps{
		Tokens:   issuer,
		Users:    s.Users(),
		Renderer: renderer,

		Products:  handler.NewProductHandler(catalogUC),
		Carts:     handler.NewCartHandler(cartUC),
		Orders:    handler.NewOrderHandler(checkoutUC, orderUC),
		Accounts:  handler.NewAccountHandler(accountUC),
		Favorites: handler.NewFavoriteHandler(usecase.NewFavoriteUsecase(s.Favorites(), s.Products())),
		Admin:     handler.NewAdminHandler(usecase.NewAdminUsecase(s, s.Products(), s.Categories(), s.AuditLogs())),
		Health:    handler.NewHealthHandler(nil),
		Pages:     web.NewPages(catalogUC, cartUC, checkoutUC, orderUC, accountUC, false),
	})
	return e, s
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func TestServer_HealthHasRequestID(t *testing.T) {
	e, _ := newServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

// 知らないURLはログイン画面へ飛ばさず404（/apiはJSON、それ以外は画面）
func TestServer_UnknownRouteIs404(t *testing.T) {
	e, _ := newServer(t)

	tests := []struct {
		method string
		path   string
		json   bool
	}{
		{http.MethodGet, "/api/nope", true},
		{http.MethodPost, "/api/nope", true},
		{http.MethodGet, "/api/v2/products", true},
		{http.MethodGet, "/nope", false},
		{http.MethodPost, "/nope", false},
		{http.MethodGet, "/cart/nope/deeper", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
			if tt.json {
				var body handler.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
				assert.Equal(t, "not_found", body.Error)
			} else {
				assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
			}
		})
	}
}

// ログイン必須の画面は引き続きログインへ
func TestServer_ProtectedPageRedirectsToLogin(t *testing.T) {
	e, _ := newServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checkout", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fcheckout", rec.Header().Get("Location"))
}

// フォームはCSRFトークンが無いと通らない
func TestServer_FormsRequireCSRF(t *testing.T) {
	e, s := newServer(t)
	u := &model.User{Username: "alice", Role: model.RoleUser, IsActive: true}
	hash, err := bcrypt.GenerateFromPassword([]byte("wonderland1"), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(hash)
	require.NoError(t, s.Users().Create(context.Background(), u))

	//ログイン画面でトークンとCookieを受け取る
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	m := csrfInput.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2, "csrf token not rendered")
	token := m[1]

	var csrfCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "_csrf" {
			csrfCookie = ck
		}
	}
	require.NotNil(t, csrfCookie)

	form := url.Values{"username": {"alice"}, "password": {"wonderland1"}}

	//トークン無し
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(csrfCookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)

	//トークンあり
	form.Set("csrf_token", token)
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(csrfCookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

// APIはBearerなのでCSRFの対象外
func TestServer_APIIsNotCSRFProtected(t *testing.T) {
	e, _ := newServer(t)

	body := `{"username":"bob","first_name":"B","last_name":"B","email":"bob@example.com","password1":"builder123","password2":"builder123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
