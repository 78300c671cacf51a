package server

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/web"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ルート登録に必要なもの
type Deps struct {
	Tokens   middleware.TokenParser
	Users    repository.UserRepository
	Renderer echo.Renderer

	Products  *handler.ProductHandler
	Carts     *handler.CartHandler
	Orders    *handler.OrderHandler
	Accounts  *handler.AccountHandler
	Favorites *handler.FavoriteHandler
	Admin     *handler.AdminHandler
	Health    *handler.HealthHandler
	Pages     *web.Pages

	CookieSecure bool
}

func RegisterRoutes(e *echo.Echo, d Deps) {
	api := e.Group("/api")

	//bearer認証 + token_version照合
	auth := []echo.MiddlewareFunc{
		middleware.AuthJWT(d.Tokens),
		middleware.TokenVersionGuard(d.Users),
	}
	admin := append(append([]echo.MiddlewareFunc{}, auth...), middleware.AdminRoleGuard())

	d.Health.RegisterRoutes(api)
	d.Products.RegisterRoutes(api)
	d.Accounts.RegisterRoutes(api, auth...)
	d.Carts.RegisterRoutes(api, auth...)
	d.Orders.RegisterRoutes(api, auth...)
	d.Favorites.RegisterRoutes(api, auth...)
	d.Admin.RegisterRoutes(api, admin...)
	e.RouteNotFound("/api/*", handler.RouteNotFound)

	//画面はCookieセッション + CSRF
	csrf := echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "form:csrf_token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   d.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	})
	d.Pages.RegisterRoutes(e, middleware.Session(d.Tokens, d.Users), csrf)
}
