package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"campusshop/internal/config"
	"campusshop/internal/handler"
	"campusshop/internal/metrics"
	"campusshop/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// 依存の確認（DBなど）
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Product          *handler.ProductHandler
	AdminProduct     *handler.AdminProductHandler
	Cart             *handler.CartHandler
	Transaction      *handler.TransactionHandler
	AdminTransaction *handler.AdminTransactionHandler
	AdminAudit       *handler.AdminAuditHandler
}

type Deps struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.ShopMetrics
	Gatherer prometheus.Gatherer
	DB       Pinger
	Handlers Handlers
}

// echoを組み立てる（起動はしない）
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(middleware.Metrics(d.Metrics))
	if d.Config.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{d.Config.FEURL},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, handler.HeaderIdempotencyKey},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		}))
	}

	RegisterRoutes(e, d)
	return e
}

// ctxがキャンセルされたらタイムアウト付きで止める
func Run(ctx context.Context, e *echo.Echo, cfg config.Config) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
