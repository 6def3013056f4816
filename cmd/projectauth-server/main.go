package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/projectauth"
	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type serverEnv struct {
	HTTPAddr    string `env:"HTTP_ADDR"    envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR"   envDefault:"localhost:6379"`
	RedisDB     int    `env:"REDIS_DB"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("projectauth: server stopped")
	}
}

func run(logger *logrus.Logger) error {
	var senv serverEnv
	if err := env.Parse(&senv); err != nil {
		return fmt.Errorf("load server config: %w", err)
	}
	if level, err := logrus.ParseLevel(senv.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := projectauth.LoadConfigFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, senv.DatabaseURL)
	if err != nil {
		return err
	}
	if senv.AutoMigrate {
		if err := projectauth.AutoMigrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := redis.NewClient(&redis.Options{Addr: senv.RedisAddr, DB: senv.RedisDB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Refresh fails closed until Redis is reachable; login keeps working.
		logger.WithError(err).Warn("projectauth: redis ping failed")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := projectauth.New().
		WithConfig(cfg).
		WithDatabase(db).
		WithRedis(rdb).
		WithLogger(logger).
		WithNotifier(logNotifier{logger: logger}).
		WithMetricsRegisterer(reg).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	mux := http.NewServeMux()
	newAPI(engine, logger).routes(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              senv.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", senv.HTTPAddr).Info("projectauth: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// logNotifier stands in for a mail or SMS gateway. The link carries a live token, so it
// is only logged at debug level.
type logNotifier struct {
	logger logrus.FieldLogger
}

func (n logNotifier) SendRecovery(_ context.Context, msg projectauth.RecoveryMessage) error {
	entry := n.logger.WithFields(logrus.Fields{
		"username":   msg.Account.Username,
		"expires_at": msg.ExpiresAt.Format(time.RFC3339),
	})
	entry.Info("projectauth: password recovery requested")
	entry.WithField("url", msg.URL).Debug("projectauth: password recovery link")
	return nil
}
