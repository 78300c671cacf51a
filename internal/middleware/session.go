package middleware

import (
	"net/http"
	"net/url"
	"time"

	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// 画面用のセッションCookie名
const SessionCookieName = "session"

// Session はCookieのトークンを読み、正しければログイン状態にする。
// 無い・不正でも拒否はしない（ページ側で判断）。
func Session(parser TokenParser, userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(SessionCookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}

			claims, err := parser.Parse(ck.Value)
			if err != nil || !currentVersion(c.Request().Context(), userRepo, claims.UserID, claims.TokenVersion) {
				//古いセッションは消す
				ClearSessionCookie(c, false)
				return next(c)
			}

			setClaims(c, claims)
			return next(c)
		}
	}
}

// 未ログインなら /login?next=... へ
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := UserID(c); !ok {
				return c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
			}
			return next(c)
		}
	}
}

func SetSessionCookie(c echo.Context, token string, expiresAt time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
