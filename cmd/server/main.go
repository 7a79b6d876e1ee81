package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/declare"
	"github.com/monomonedula/monquery/internal/middleware/requestid"
	"github.com/monomonedula/monquery/internal/observability"
	applog "github.com/monomonedula/monquery/internal/pkg/log"
	platformconfig "github.com/monomonedula/monquery/internal/platform/config"
	"github.com/monomonedula/monquery/store/mongodb"
	"github.com/monomonedula/monquery/todos"
	"github.com/monomonedula/monquery/todos/handlers"
	"github.com/monomonedula/monquery/todos/services"
)

func main() {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load platform config: %v", err)
	}
	applog.SetDebug(cfg.Server.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.QueryMetrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewQueryMetrics(cfg.Metrics.Namespace)
	}

	// Create mongo repository
	mongoCfg := cfg.Database.MongoDB
	var repo *mongodb.MongoRepository
	if mongoCfg.URI != "" {
		repo, err = mongodb.NewMongoRepositoryFromURI(ctx, mongoCfg.URI, mongoCfg.Database, mongodb.WithFindObserver(metrics))
	} else {
		repo, err = mongodb.NewMongoRepository(ctx, mongoCfg.StoreConfig(), mongoCfg.Database, mongodb.WithFindObserver(metrics))
	}
	if err != nil {
		log.Fatalf("Failed to create mongo repository: %v", err)
	}
	defer repo.Close()

	indexes := map[string]interface{}{"created_at": -1, "title": 1}
	if err := <-repo.CreateIndex(ctx, services.CollectionName, indexes); err != nil {
		applog.Warn("Failed to create %s indexes: %v", services.CollectionName, err)
	}

	schema, err := loadSchema(cfg.Query)
	if err != nil {
		log.Fatalf("Failed to load query schema: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			applog.ErrorWithContext(c.UserContext(), "[ErrorHandler] Path: %s, Error: %v, Code: %d", c.Path(), err, code)

			// If response already set by handler, don't override it
			if len(c.Response().Body()) > 0 {
				return nil
			}

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(requestid.New())
	app.Use(cors.New())

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(metrics.Handler()))
	}

	service := services.NewService(repo, schema, services.WithMetrics(metrics))
	todos.RegisterRoutes(app, &todos.Handlers{
		TodoHandler: handlers.NewTodoHandler(service),
	})

	go func() {
		<-ctx.Done()
		applog.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			applog.Error("Shutdown failed: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	applog.Info("Starting todos service on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

// loadSchema reads the schema file when one is configured and falls back to
// the built-in todos schema.
func loadSchema(cfg platformconfig.QueryConfig) (monquery.Schema, error) {
	if cfg.SchemaFile == "" {
		return services.NewSchema(cfg), nil
	}
	applog.Info("Loading query schema from %s", cfg.SchemaFile)
	return declare.LoadFile(cfg.SchemaFile)
}
