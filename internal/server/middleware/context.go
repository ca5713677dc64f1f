package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"catalogd/pkg/ingest"
	"catalogd/pkg/query"
)

// App carries the shared service handles every handler needs.
type App struct {
	Query        *query.Service
	Pipeline     *ingest.Pipeline
	Queue        *amqp091.Channel
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
