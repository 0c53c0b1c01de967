package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/config"
	"github.com/ChaoPei/flasky/internal/container"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
	"github.com/ChaoPei/flasky/internal/router"
	"github.com/ChaoPei/flasky/pkg/helpers"
	"github.com/ChaoPei/flasky/pkg/validation"
)

const shutdownGrace = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		helpers.LogError(logger, "server stopped", err, logrus.Fields{"store": cfg.StoreDriver})
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RealIP(), middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}
	return r
}

// serve builds the app, listens until ctx is cancelled and then drains
// in-flight requests.
func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	validation.Init()

	app, cleanup, err := container.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	r := newEngine(cfg)
	reg := router.NewRegistry(r)
	router.InitModules(reg, app)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver}).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
