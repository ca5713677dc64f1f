package routes

import (
	"net/http"

	"catalogd/internal/server/middleware"
	"catalogd/pkg/query"

	"github.com/labstack/echo/v4"
)

func GetEntitiesHandler(c echo.Context) error {
	type getEntitiesParams struct {
		Query  string `query:"q"`
		Kind   string `query:"kind"`
		Owner  string `query:"owner"`
		Tag    string `query:"tag"`
		Type   string `query:"type"`
		System string `query:"system"`
		Limit  int    `query:"limit"`
	}

	params := new(getEntitiesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query

	var res []query.EntitySummary
	switch {
	case params.Owner != "":
		res = q.ByOwner(params.Owner, params.Limit)
	case params.Tag != "":
		res = q.ByTag(params.Tag, params.Limit)
	case params.System != "":
		res = q.BySystem(params.System, params.Limit)
	case params.Type != "":
		res = q.ByType(params.Kind, params.Type, params.Limit)
	default:
		res = q.Search(query.SearchParams{
			Query: params.Query,
			Kind:  params.Kind,
			Limit: params.Limit,
		})
	}

	if res == nil {
		res = []query.EntitySummary{}
	}
	return c.JSON(http.StatusOK, res)
}

func GetEntityHandler(c echo.Context) error {
	type getEntityParams struct {
		ID string `query:"id" validate:"required"`
	}

	params := new(getEntityParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	detail, ok := q.Get(params.ID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
	}

	return c.JSON(http.StatusOK, detail)
}

func GetStatsHandler(c echo.Context) error {
	q := c.(*middleware.AppContext).App.Query

	snap := q.Snapshot()
	return c.JSON(http.StatusOK, map[string]any{
		"stats":  snap.Stats(),
		"owners": q.CountByOwner(),
	})
}
