package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	flashCookieName = "flash"
	ctxFlashKey     = "flash_pending"
)

type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashInfo    FlashLevel = "info"
	FlashWarning FlashLevel = "warning"
	FlashError   FlashLevel = "error"
)

// リダイレクト先で1回だけ表示するメッセージ
type Flash struct {
	Level FlashLevel `json:"l"`
	Text  string     `json:"t"`
}

// addFlash は次のページで表示するメッセージを積む
func addFlash(c echo.Context, level FlashLevel, text string) {
	pending, _ := c.Get(ctxFlashKey).([]Flash)
	pending = append(pending, Flash{Level: level, Text: text})
	c.Set(ctxFlashKey, pending)

	b, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes は受け取ったメッセージを返してCookieを消す
func popFlashes(c echo.Context) []Flash {
	ck, err := c.Cookie(flashCookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	clearFlashCookie(c)

	b, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	var out []Flash
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func clearFlashCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
