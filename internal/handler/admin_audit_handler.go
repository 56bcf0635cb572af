package handler

import (
	"net/http"

	"campusshop/internal/config"
	"campusshop/internal/middleware"
	"campusshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/audit-logs
type AdminAuditHandler struct {
	uc *usecase.AuditUsecase
}

func NewAdminAuditHandler(uc *usecase.AuditUsecase) *AdminAuditHandler {
	return &AdminAuditHandler{uc: uc}
}

func (h *AdminAuditHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin", middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	admin.GET("/audit-logs", h.list)
}

// ?action=stock.set&target_id=7 のように対象ごとの履歴を見る
func (h *AdminAuditHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.ListAuditLogs(c.Request().Context(), usecase.ListAuditLogsInput{
		Page:     page,
		Limit:    limit,
		ActorID:  c.QueryParam("actor_id"),
		Action:   c.QueryParam("action"),
		TargetID: c.QueryParam("target_id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
