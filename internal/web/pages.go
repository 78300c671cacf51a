package web

import (
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// サーバー描画の画面
type Pages struct {
	catalog  *usecase.CatalogUsecase
	cart     *usecase.CartUsecase
	checkout *usecase.CheckoutUsecase
	orders   *usecase.OrderUsecase
	account  *usecase.AccountUsecase

	cookieSecure bool
}

func NewPages(
	catalog *usecase.CatalogUsecase,
	cart *usecase.CartUsecase,
	checkout *usecase.CheckoutUsecase,
	orders *usecase.OrderUsecase,
	account *usecase.AccountUsecase,
	cookieSecure bool,
) *Pages {
	return &Pages{
		catalog:      catalog,
		cart:         cart,
		checkout:     checkout,
		orders:       orders,
		account:      account,
		cookieSecure: cookieSecure,
	}
}

// 全ページ共通
type PageData struct {
	Title   string
	User    *usecase.UserDTO
	Flashes []Flash
	CSRF    string
	Data    interface{}
}

// session: Cookieからログイン状態を作るミドルウェア
// extra: CSRFなど（フォーム全体に掛ける）
// 空prefixのGroupはechoが"/*"の404ルートを足してしまうので、ミドルウェアはルートごとに渡す
func (p *Pages) RegisterRoutes(e *echo.Echo, session echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) {
	public := append([]echo.MiddlewareFunc{session}, extra...)
	private := append(append([]echo.MiddlewareFunc{}, public...), middleware.RequireLogin())

	e.GET("/", p.home, public...)
	e.GET("/products", p.products, public...)
	e.GET("/about", p.about, public...)
	e.GET("/contacts", p.contacts, public...)
	e.GET("/cart", p.cartPage, public...)

	e.GET("/login", p.loginForm, public...)
	e.POST("/login", p.login, public...)
	e.GET("/register", p.registerForm, public...)
	e.POST("/register", p.register, public...)
	e.POST("/logout", p.logout, public...)

	e.POST("/cart/add/:product_id", p.addToCart, private...)
	e.POST("/cart/items/:id/update", p.updateCartItem, private...)
	e.POST("/cart/items/:id/remove", p.removeCartItem, private...)
	e.POST("/cart/clear", p.clearCart, private...)
	e.GET("/checkout", p.checkoutForm, private...)
	e.POST("/checkout", p.placeOrder, private...)
	e.GET("/profile", p.profile, private...)
	e.POST("/profile/update", p.updateProfile, private...)
	e.POST("/profile/password", p.changePassword, private...)
	e.GET("/orders/:id", p.orderDetail, private...)

	//知らないURLは画面の404（/api配下はJSONの404が先に当たる）
	e.RouteNotFound("/*", p.notFound, session)
}

func (p *Pages) notFound(c echo.Context) error {
	return p.render(c, http.StatusNotFound, "not_found.html", "Not found", nil)
}

func (p *Pages) render(c echo.Context, status int, name string, title string, data interface{}) error {
	pd := PageData{
		Title: title,
		Data:  data,
	}

	pd.Flashes = popFlashes(c)
	if pending, ok := c.Get(ctxFlashKey).([]Flash); ok && len(pending) > 0 {
		//同じリクエストで表示するので次回分は消す
		pd.Flashes = append(pd.Flashes, pending...)
		c.Set(ctxFlashKey, nil)
		clearFlashCookie(c)
	}

	if token, ok := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string); ok {
		pd.CSRF = token
	}

	if userID, ok := middleware.UserID(c); ok {
		u, err := p.account.Profile(c.Request().Context(), userID)
		if err == nil {
			pd.User = &u
		}
	}

	return c.Render(status, name, pd)
}

// usecaseのエラーを画面に
func (p *Pages) fail(c echo.Context, err error) error {
	ae, ok := usecase.AsError(err)
	if ok {
		switch ae.Kind {
		case usecase.KindNotFound:
			return p.notFound(c)
		case usecase.KindUnauthorized:
			middleware.ClearSessionCookie(c, p.cookieSecure)
			return c.Redirect(http.StatusSeeOther, "/login")
		}
	}

	log.Error().
		Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("path", c.Path()).
		Msg("page failed")
	return p.render(c, http.StatusInternalServerError, "error.html", "Error", nil)
}

func redirect(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}

// 外部サイトへは飛ばさない
func safeNext(next string, def string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return def
	}
	return next
}

func (p *Pages) userID(c echo.Context) int64 {
	id, _ := middleware.UserID(c)
	return id
}
