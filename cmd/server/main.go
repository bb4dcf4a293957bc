package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/config"
	"github.com/KHMER0/sale-system/internal/api/handler"
	"github.com/KHMER0/sale-system/internal/api/middleware"
	"github.com/KHMER0/sale-system/internal/api/router"
	"github.com/KHMER0/sale-system/internal/repository"
	"github.com/KHMER0/sale-system/internal/service"
	"github.com/KHMER0/sale-system/pkg/database"
	"github.com/KHMER0/sale-system/pkg/jwt"
	"github.com/KHMER0/sale-system/pkg/kafka"
	"github.com/KHMER0/sale-system/pkg/llm"
	applogger "github.com/KHMER0/sale-system/pkg/logger"
	"github.com/KHMER0/sale-system/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "設定檔路徑（預設搜尋 ./config/config.yaml）")
	flag.Parse()

	// 0. 載入 .env（不存在時忽略）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "讀取 .env 失敗: %v\n", err)
	}

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "載入設定失敗: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日誌
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日誌失敗: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("應用程式啟動中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 連線資料庫並執行遷移
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("資料庫連線失敗", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("取得底層 sql.DB 失敗", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("資料庫遷移失敗", zap.Error(err))
	}

	// 4. 連線 Redis（選用：失敗時停用黑名單與限流，對話紀錄改存記憶體）
	deps := service.Deps{
		Completer: llm.NewClient(&cfg.Chatbot),
	}
	var limiter middleware.RateLimiter
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 連線失敗，降級執行", zap.Error(err))
		rdb = nil
	} else {
		deps.Blacklist = rdb
		deps.History = service.NewRedisHistoryStore(rdb)
		limiter = rdb
	}

	// 5. Kafka 銷售事件（選用）
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(&cfg.Kafka, logger)
		if err != nil {
			logger.Warn("Kafka 連線失敗，銷售事件將不發布", zap.Error(err))
			producer = nil
		} else {
			deps.Publisher = producer
		}
	}

	// 6. 依賴注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, deps, logger)

	// 7. 初始資料
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	generated, err := svc.Seed.EnsureRoot(bootCtx, cfg.Auth.RootPassword)
	if err != nil {
		bootCancel()
		logger.Fatal("建立最高權限帳號失敗", zap.Error(err))
	}
	announceRootPassword(os.Stderr, logger, generated)
	if cfg.Seed.SampleData {
		if err := svc.Seed.SeedSampleData(bootCtx); err != nil {
			logger.Error("寫入範例資料失敗", zap.Error(err))
		}
	}
	bootCancel()

	h := handler.NewHandler(svc, repo)

	// 8. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(cfg, h, svc.Auth, limiter, logger)

	// 9. 啟動 HTTP 伺服器（優雅關閉）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Chatbot.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 伺服器已啟動", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 伺服器異常", zap.Error(err))
		}
	}()

	// 10. 監聽系統訊號，優雅關閉
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到關閉訊號，開始優雅關閉...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("伺服器關閉異常", zap.Error(err))
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("關閉 Kafka 生產者失敗", zap.Error(err))
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = sqlDB.Close()

	logger.Info("伺服器已關閉")
}

// announceRootPassword 臨時密碼只直接輸出到終端機一次，結構化日誌僅記錄已產生
func announceRootPassword(w io.Writer, logger *zap.Logger, generated string) {
	if generated == "" {
		return
	}
	fmt.Fprintf(w, "最高權限帳號（員工編號 1）臨時密碼: %s\n請登入後立即修改。\n", generated)
	logger.Warn("已產生最高權限帳號臨時密碼，已輸出至標準錯誤", zap.String("employee_id", "1"))
}
