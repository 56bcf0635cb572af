package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusshop/internal/config"
	"campusshop/internal/handler"
	"campusshop/internal/infra/cache"
	"campusshop/internal/infra/db"
	"campusshop/internal/infra/memory"
	infraRepo "campusshop/internal/infra/repository"
	"campusshop/internal/metrics"
	"campusshop/internal/server"
	"campusshop/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func main() {
	//.envは任意（本番は環境変数）
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	transactionRepo := infraRepo.NewTransactionGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//カートはメモリ上
	carts := memory.NewCartStore(cfg.CartIdleTTL)
	defer carts.Close()

	//メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewShopMetrics(reg)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//Usecase生成
	views := usecase.NewCartViewBuilder(productRepo)
	cartUC := usecase.NewCartUsecase(carts, productRepo, views, m)
	checkoutUC := usecase.NewCheckoutUsecase(txm, productRepo, carts, views, idGen, clock, m)
	productUC := usecase.NewProductUsecase(productRepo, txm, clock)
	transactionUC := usecase.NewTransactionUsecase(transactionRepo)
	adminTransactionUC := usecase.NewAdminTransactionUsecase(txm, transactionRepo, clock)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	//Redisがあれば冪等キーの結果を保存する
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			//落ちていても起動はする（結果の再送だけ効かない）
			logger.Warn("redis ping failed", "addr", cfg.RedisAddr, "error", err)
		}
		checkoutUC.WithResultStore(cache.NewCheckoutResultRedis(redisClient), cfg.CheckoutReplayTTL)
	}

	//Handler生成
	e := server.New(server.Deps{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Gatherer: reg,
		DB:       sqlDB,
		Handlers: server.Handlers{
			Product:          handler.NewProductHandler(productUC),
			AdminProduct:     handler.NewAdminProductHandler(productUC),
			Cart:             handler.NewCartHandler(cartUC, checkoutUC),
			Transaction:      handler.NewTransactionHandler(transactionUC),
			AdminTransaction: handler.NewAdminTransactionHandler(adminTransactionUC),
			AdminAudit:       handler.NewAdminAuditHandler(auditUC),
		},
	})

	return server.Run(ctx, e, cfg)
}
