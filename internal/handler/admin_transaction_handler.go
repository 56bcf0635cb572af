package handler

import (
	"net/http"
	"strconv"
	"time"

	"campusshop/internal/config"
	"campusshop/internal/domain/model"
	"campusshop/internal/middleware"
	"campusshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type TransactionStatusUpdateRequest struct {
	Status model.TransactionStatus `json:"status"`
}

// /admin/transactions
type AdminTransactionHandler struct {
	uc *usecase.AdminTransactionUsecase
}

// DI
func NewAdminTransactionHandler(uc *usecase.AdminTransactionUsecase) *AdminTransactionHandler {
	return &AdminTransactionHandler{uc: uc}
}

func (h *AdminTransactionHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/transactions", h.list)
	admin.PATCH("/transactions/:id/status", h.updateStatus)
}

func (h *AdminTransactionHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}

	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	var productID int64
	if v := c.QueryParam("product_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid product_id")
		}
		productID = id
	}

	var fromPtr *time.Time
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid from")
		}
		fromPtr = &tm
	}

	var toPtr *time.Time
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid to")
		}
		toPtr = &tm
	}

	out, err := h.uc.ListTransactions(c.Request().Context(), usecase.AdminListTransactionsInput{
		Page:      page,
		Limit:     limit,
		Status:    c.QueryParam("status"),
		BuyerID:   c.QueryParam("buyer_id"),
		ProductID: productID,
		From:      fromPtr,
		To:        toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminTransactionHandler) updateStatus(c echo.Context) error {
	var req TransactionStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	//操作した管理者ID（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.UpdateTransactionStatus(c.Request().Context(), adminID, c.Param("id"), req.Status); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}
