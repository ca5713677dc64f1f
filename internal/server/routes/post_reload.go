package routes

import (
	"net/http"

	"catalogd/internal/queue"
	"catalogd/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func reload(c echo.Context, scope string) error {
	type reloadParams struct {
		Reason string `json:"reason"`
	}

	params := new(reloadParams)
	_ = c.Bind(params)

	app := c.(*middleware.AppContext).App

	// When a worker is attached the rebuild runs there; otherwise do it
	// inline before answering.
	if app.Queue != nil {
		err := queue.PublishReload(app.Queue, queue.ReloadMessage{
			Scope:  scope,
			Reason: params.Reason,
		})
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusAccepted, map[string]string{"status": "queued", "scope": scope})
	}

	ctx := c.Request().Context()
	var err error
	if scope == queue.ScopeScorecards {
		_, err = app.Pipeline.ReloadScorecards(ctx)
	} else {
		_, err = app.Pipeline.Reload(ctx)
	}
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	snap := app.Query.Snapshot()
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "reloaded",
		"scope":    scope,
		"build_id": snap.BuildID(),
	})
}

func ReloadCatalogHandler(c echo.Context) error {
	return reload(c, queue.ScopeCatalog)
}

func ReloadScorecardsHandler(c echo.Context) error {
	return reload(c, queue.ScopeScorecards)
}
