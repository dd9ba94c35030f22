package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "peerfund-service/internal/adapter/http"
	"peerfund-service/internal/adapter/middleware"
	"peerfund-service/internal/adapter/repository/mysql"
	"peerfund-service/internal/config"
	"peerfund-service/internal/infrastructure/cache"
	"peerfund-service/internal/infrastructure/db"
	"peerfund-service/internal/infrastructure/logger"
	"peerfund-service/internal/infrastructure/notify"
	loanuc "peerfund-service/internal/usecase/loan"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		zlog.Fatal("open mysql failed", "err", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		zlog.Fatal("open redis failed", "err", err)
	}

	loanRepo := mysql.NewLoanRepository(gdb)
	invRepo := mysql.NewInvestmentRepository(gdb)
	uow := mysql.NewGormUoW(gdb)

	dispatcher := notify.NewDispatcher(notify.NewRedisPublisher(rdb, cfg.NotifyChannel), zlog, cfg.NotifyBuffer)
	defer dispatcher.Close()

	uc := loanuc.NewLifecycle(loanRepo, invRepo, uow, dispatcher, zlog)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	idemp := middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, zlog)
	httpadp.RegisterRoutes(e, httpadp.NewHandler(), httpadp.NewLoanHandler(uc), idemp)

	go func() {
		addr := ":" + cfg.AppPort
		zlog.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil {
			zlog.Info("server stopped", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zlog.Error("shutdown failed", "err", err)
	}
}
