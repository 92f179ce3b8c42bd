package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"
	"gorm.io/gorm"

	"sspl_backend/internals/configs"
	database "sspl_backend/internals/databases"
	adminController "sspl_backend/internals/features/admin/controller"
	registrationController "sspl_backend/internals/features/registration/controller"
	"sspl_backend/internals/features/registration/repository"
	"sspl_backend/internals/features/registration/service"
	"sspl_backend/internals/helpers/objectstore"
	middlewares "sspl_backend/internals/middlewares"
	routes "sspl_backend/internals/route"
)

func main() {
	configs.LoadEnv()
	cfg := configs.Load()

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ProxyHeader:           fiber.HeaderXForwardedFor,
		BodyLimit:             12 * 1024 * 1024, // two uploads plus form fields
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		err := c.Next()
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s",
			id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	})

	middlewares.SetupMiddlewares(app)

	store, db, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}

	objects, err := objectstore.NewS3Store(cfg)
	if err != nil {
		log.Fatalf("object storage init: %v", err)
	}

	compressor := service.NewImageCompressor(service.DefaultCompressorOptions())
	ocr := service.NewOcrClient(service.OcrClientOptions{
		Endpoint: cfg.OcrEndpoint,
		APIKey:   cfg.OcrAPIKey,
		Timeout:  cfg.OcrTimeout,
	})
	payments := service.NewPaymentValidator(cfg.AllowedAmounts, cfg.PayeeName)

	routes.SetupRoutes(app, routes.Deps{
		Cfg:          cfg,
		DB:           db,
		Registration: registrationController.NewRegistrationController(cfg, store, objects, compressor, ocr, payments),
		Admin:        adminController.NewAdminController(cfg, store, objects),
		Auth:         adminController.NewAuthController(cfg),
	})

	app.Server().ReadTimeout = 30 * time.Second
	app.Server().WriteTimeout = 60 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("[INFO] listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// buildStore picks the submission store from STORAGE_BACKEND. The returned
// *gorm.DB is nil for the file backend.
func buildStore(cfg *configs.AppConfig) (repository.SubmissionStore, *gorm.DB, error) {
	switch cfg.StorageBackend {
	case "file":
		store, err := repository.NewFileStore(cfg.FileStoreDir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] using file store at %s", cfg.FileStoreDir)
		return store, nil, nil
	case "postgres", "mysql":
		db, err := database.Connect(cfg.StorageBackend)
		if err != nil {
			return nil, nil, err
		}
		database.TunePool(db)
		store := repository.NewGormStore(db)
		if err := store.Migrate(); err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] using %s store", cfg.StorageBackend)
		return store, db, nil
	default:
		return nil, nil, &unknownBackendError{backend: cfg.StorageBackend}
	}
}

type unknownBackendError struct{ backend string }

func (e *unknownBackendError) Error() string {
	return "unknown STORAGE_BACKEND " + e.backend + " (want postgres, mysql, or file)"
}
