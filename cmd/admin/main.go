package main

import (
	"context"
	"errors"
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

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := core.Gate.Initialize(initCtx); err != nil {
		log.Error("store initialization failed, serving degraded", zap.Error(err))
	}
	initCancel()

	r := router.NewAdminEngine(log, core.Handlers(log), core.JWT)

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 15*time.Second, 15*time.Second, 60*time.Second)

	log.Info("admin api starting", zap.String("addr", addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()
	log.Info("admin api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("admin api stopped gracefully")
}
