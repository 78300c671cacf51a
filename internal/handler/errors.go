package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Fields  validator.Errors `json:"fields,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsError(err); ok {
		status := ae.Status()
		if status >= http.StatusInternalServerError {
			logInternal(c, err)
			return c.JSON(status, ErrorResponse{Error: string(ae.Kind), Message: "internal error"})
		}
		return c.JSON(status, ErrorResponse{Error: string(ae.Kind), Message: ae.Message, Fields: ae.Fields})
	}

	//500
	logInternal(c, err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: string(usecase.KindStore), Message: "internal error"})
}

func logInternal(c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request failed")
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(usecase.KindValidation), Message: msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: string(usecase.KindUnauthorized), Message: "unauthorized"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	return middleware.UserID(c)
}

// パスの:idを数値に（数値でなければ404と同じ扱い）
func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: string(usecase.KindNotFound), Message: "not found"})
}

// /api配下の知らないURL
func RouteNotFound(c echo.Context) error {
	return notFound(c)
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
