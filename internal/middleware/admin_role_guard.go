package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろに置く。ADMINだけ通す。
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			switch role {
			case RoleAdmin:
				return next(c)
			case "":
				return unauthorized(c)
			default:
				return c.JSON(http.StatusForbidden, errorResponse{Error: "admin only", Code: "forbidden"})
			}
		}
	}
}
