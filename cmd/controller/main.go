// Command controller is the irrigation controller's single binary:
// it boots the control dispatcher and the HTTP control surface in one
// process, grounded on the teacher's cmd/main.go bootstrap sequence
// (config -> logger -> db -> migrate -> dependencies -> server ->
// graceful shutdown).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/waterwise/irrigo/internal/auth"
	"github.com/waterwise/irrigo/internal/config"
	"github.com/waterwise/irrigo/internal/health"
	"github.com/waterwise/irrigo/internal/httpmw"
	"github.com/waterwise/irrigo/internal/logger"
	"github.com/waterwise/irrigo/internal/metrics"
	"github.com/waterwise/irrigo/internal/migrate"
	"github.com/waterwise/irrigo/internal/watering/catalog"
	"github.com/waterwise/irrigo/internal/watering/dispatcher"
	"github.com/waterwise/irrigo/internal/watering/handler"
	"github.com/waterwise/irrigo/internal/watering/model"
	"github.com/waterwise/irrigo/internal/watering/repository"
	"github.com/waterwise/irrigo/internal/watering/sensors"
	"github.com/waterwise/irrigo/internal/watering/statemachine"
	"github.com/waterwise/irrigo/internal/watering/timeprovider"
	"github.com/waterwise/irrigo/internal/watering/weather"
	"github.com/waterwise/irrigo/internal/watering/weather/etsource"
)

// CustomValidator adapts go-playground/validator to echo.Context's
// Validate hook, grounded on registerAlarmWeatherHandler_test.go's
// CustomValidator.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, sqlDB, err := openDatabase(cfg)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := migrate.Run(sqlDB, migrate.Config{
		Driver:         cfg.Database.Driver,
		MigrationsPath: cfg.MigrationsPath,
		DatabaseName:   cfg.Database.Name,
	}, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	metrics.Init()

	repo := repository.New(db, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	sectors, err := repo.LoadSectors(ctx)
	if err != nil {
		cancel()
		log.Fatal("failed to load sectors", zap.Error(err))
	}
	schedule, err := repo.LoadAutoSchedule(ctx)
	if err != nil {
		cancel()
		log.Fatal("failed to load auto schedule", zap.Error(err))
	}
	cancel()

	cat := catalog.New(sectors)

	redisCache, err := weather.New(cfg.Redis.Addr, cfg.Redis.Password, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisCache.Close()

	valve := sensors.New(cfg.SensorBaseURL, log)

	fallback := etsource.New(log)
	weatherSource := weather.NewCompositeSource(repo, redisCache, fallback, cfg.WeatherRegion, log)

	window := model.NewWindow(time.Now().UTC(), cfg.WindowStartHour, cfg.WindowDurationHours)

	machine := statemachine.New(log, cat, &window, valve, repo)

	clock := timeprovider.NewReal()

	disp := dispatcher.New(log, weatherSource, cat, &window, machine, clock, schedule, dispatcher.Params{
		TransitionSlack:    int64(cfg.SectorTransitionSeconds),
		MaxDurationSeconds: int64(cfg.MaxDurationSeconds),
		MinWateringSeconds: int64(cfg.MinWateringSeconds),
		WindowStartHour:    cfg.WindowStartHour,
		WindowDurationHrs:  cfg.WindowDurationHours,
	})

	runCtx, stopDispatcher := context.WithCancel(context.Background())
	go func() {
		if err := disp.Run(runCtx); err != nil && err != context.Canceled {
			log.Error("control dispatcher stopped with error", zap.Error(err))
		}
	}()

	healthChecker := health.NewChecker(db, redisCache.Client(), log, cfg.Version, disp, cat, &window)

	issuer := auth.NewIssuer(cfg.JWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = httpmw.ErrorHandler(log)

	rateLimiter := httpmw.NewRateLimiter(log, 10, 20)
	defer rateLimiter.Close()

	e.Use(httpmw.RequestID())
	e.Use(httpmw.RequestLogger(log))
	e.Use(httpmw.Recovery(log))
	e.Use(httpmw.CORS(nil))
	e.Use(rateLimiter.Middleware())

	handler.Register(e, disp, repo, log, issuer)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/healthz", healthChecker.Handler())
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health/metrics server stopped with error", zap.Error(err))
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		log.Info("control API listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("control API stopped with error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	disp.Shutdown()
	stopDispatcher()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("control API graceful shutdown failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("health/metrics server graceful shutdown failed", zap.Error(err))
	}

	log.Info("controller stopped")
}

func openDatabase(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	var db *gorm.DB
	var err error

	switch cfg.Database.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	default:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB, nil
}
