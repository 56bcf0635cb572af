package handler

import (
	"log/slog"
	"net/http"

	"campusshop/internal/middleware"
	"campusshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string              `json:"error"`
	Code  string              `json:"code,omitempty"`
	Lines []usecase.LineError `json:"lines,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func statusOf(kind usecase.ErrorKind) int {
	switch kind {
	case usecase.KindValidation:
		return http.StatusBadRequest
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindStateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// usecaseのエラーをHTTPレスポンスに変換する
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	se, ok := usecase.AsShopError(err)
	if !ok {
		slog.ErrorContext(c.Request().Context(), "unhandled error", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: string(usecase.KindPersistence)})
	}

	status := statusOf(se.Kind)
	if status >= http.StatusInternalServerError {
		//原因はログにだけ出す
		slog.ErrorContext(c.Request().Context(), "request failed", "path", c.Path(), "error", errorChain(err))
	}

	return c.JSON(status, ErrorResponse{
		Error: se.Message,
		Code:  string(se.Kind),
		Lines: se.Lines,
	})
}

// ShopError.Error()は原因を含まないので全部たどる
func errorChain(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		out = append(out, e.Error())
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: string(usecase.KindValidation)})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.KindUnauthorized)})
}

//middleware.AuthJWT が c.Set("user_id", string) した値を取り出す

func getUserIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
