package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogd/internal/queue"
	mid "catalogd/internal/server/middleware"
	"catalogd/internal/util"
	"catalogd/pkg/ingest"
	"catalogd/pkg/logger"
	"catalogd/pkg/query"
	"catalogd/pkg/store"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rabbitmq/amqp091-go"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New()
	source := ingest.NewFileSource(util.GetEnvString("CATALOG_DIR", "./catalog-data"))
	pipeline := ingest.NewPipeline(ingest.PipelineParams{
		Store:         st,
		Source:        source,
		ParallelRanks: int(util.GetEnvNumeric("PARALLEL_RANKS", 4)),
	})

	if _, err := pipeline.Reload(ctx); err != nil {
		logger.Error("Initial catalog load failed", "err", err)
	}

	// With RabbitMQ configured, reload requests go through the worker.
	// Without it the API falls back to reloading in-process.
	var ch *amqp091.Channel
	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init()
		defer que.Close()
		var err error
		ch, err = que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch, []string{queue.ReloadQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
	}

	app := &mid.App{
		Query:        query.New(st),
		Pipeline:     pipeline,
		Queue:        ch,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
