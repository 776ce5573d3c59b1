package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"academic-records-core/internal/app"
	"academic-records-core/internal/core/config"
	"academic-records-core/internal/core/logger"
	"academic-records-core/internal/core/server"
	"academic-records-core/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	core, err := app.Build(cfg, log)
	if err != nil {
		log.Fatal("core build", zap.Error(err))
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// Schema setup before serving. A failed gate leaves the process up;
	// repositories answer unavailable until a retry succeeds.
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := core.Gate.Initialize(initCtx); err != nil {
		log.Error("store initialization failed, serving degraded", zap.Error(err))
	}
	initCancel()

	r := router.NewAPIEngine(log, core.Handlers(log), core.JWT)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("records api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("records api start FAILED", zap.Error(err))
		}
	}()
	log.Info("records api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("records api stopped gracefully")
}
