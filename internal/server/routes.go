package server

import (
	"net/http"

	"campusshop/internal/metrics"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", healthz(d.DB))
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}

	h := d.Handlers
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, d.Config)
	h.Transaction.RegisterRoutes(e, d.Config)
	h.AdminProduct.RegisterRoutes(e, d.Config)
	h.AdminTransaction.RegisterRoutes(e, d.Config)
	h.AdminAudit.RegisterRoutes(e, d.Config)
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

func healthz(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db == nil {
			return c.JSON(http.StatusOK, healthResponse{Status: "ok", DB: "skipped"})
		}
		if err := db.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "degraded", DB: "down"})
		}
		return c.JSON(http.StatusOK, healthResponse{Status: "ok", DB: "up"})
	}
}
