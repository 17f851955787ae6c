package main

import (
	"agenda/cmd/internal/auth"
	"agenda/cmd/internal/config"
	"agenda/cmd/internal/domain/sqlite"
	"agenda/cmd/internal/domain/sqlite/repository"
	"agenda/cmd/internal/routes"
	"agenda/cmd/internal/scheduling"
	"agenda/cmd/internal/service"
	"agenda/cmd/internal/utils/validators"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (defaults to ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}
	log.SetLevel(parseLevel(cfg.Log.Level))

	validate := validator.New()
	validators.Register(validate)

	// Init SQLite
	db, err := sqlite.Init(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to initialize database: ", err)
	}

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		log.Fatal("failed to initialize token verifier: ", err)
	}

	// Getting repositories
	apptRepo := repository.NewAppointmentRepository(db)

	// Getting services
	scheduler := scheduling.NewService(apptRepo, scheduling.Options{
		MaxOccurrences:       cfg.Scheduling.MaxOccurrences,
		CheckOverlapOnUpdate: cfg.Scheduling.CheckOverlapOnUpdate,
	})
	apptService := service.NewAppointmentService(scheduler, validate)

	// Getting routes
	apptRoutes := routes.NewAppointmentDefault(apptService)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(parseLevel(cfg.Log.Level))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.Server.AllowOrigins}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api", auth.Middleware(verifier))
	apptRoutes.Register(api)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infof("received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newVerifier(cfg config.AuthConfig) (auth.Verifier, error) {
	switch cfg.Mode {
	case config.AuthModeCognito:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return auth.InitCognitoVerifier(ctx, cfg.Cognito.Region)
	default:
		return auth.NewJWTVerifier(cfg.JWTSecret, cfg.Issuer), nil
	}
}

func parseLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
