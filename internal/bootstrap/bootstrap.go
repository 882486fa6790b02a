// Package bootstrap assembles one service process: logger, storage handle,
// optional cache, the Fiber app and its lifecycle. Each binary constructs
// exactly one App, registers its routes on it and calls Run; shutdown tears
// the shared resources down in reverse order.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/config"
	"github.com/flavien-hugs/yimba-api/internal/logger"
	"github.com/flavien-hugs/yimba-api/internal/middleware"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

// App is one composed service process.
type App struct {
	Name  string
	Cfg   *config.Config
	Log   *zap.SugaredLogger
	Fiber *fiber.App
	Store storage.Store
	Redis *redis.Client
}

// Options tweaks what New wires up.
type Options struct {
	// WithMongo connects the storage handle. Off only for services that
	// never touch the store.
	WithMongo bool
	// WithRedis connects the cache client when an address is configured.
	WithRedis bool
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
}

// New builds the service skeleton: config-driven Fiber app with CORS,
// recovery, request logging, metrics, the banner and liveness routes, plus
// the shared storage and cache handles.
func New(ctx context.Context, name string, cfg *config.Config, opts Options) (*App, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      name,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorHandler: errorHandler,
	})
	app.Use(cors.New())
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.Metrics(name))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"app": name, "environment": cfg.App.Env})
	})
	app.Get("/metrics", middleware.MetricsHandler())

	a := &App{Name: name, Cfg: cfg, Log: log, Fiber: app}

	if opts.WithMongo {
		uri := storage.URI(cfg.MongoHosts(), cfg.Mongo.Options)
		store, err := storage.Connect(ctx, uri, cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Database, cfg.MongoTimeout, log)
		if err != nil {
			return nil, err
		}
		a.Store = store
	}

	if opts.WithRedis && cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnf("redis unreachable, cache disabled: %v", err)
		} else {
			a.Redis = rdb
		}
	}

	return a, nil
}

// Run serves until SIGINT/SIGTERM, then shuts the server and the shared
// handles down with a bounded grace period.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", a.Cfg.App.Port)
		a.Log.Infof("%s listening on %s", a.Name, addr)
		errCh <- a.Fiber.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.Log.Infof("%s shutting down: %s", a.Name, sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		a.Log.Errorf("server shutdown: %v", err)
	}
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			a.Log.Errorf("mongodb disconnect: %v", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Errorf("redis close: %v", err)
		}
	}
	_ = a.Log.Sync()
	return nil
}
