package routes

import (
	"net/http"
	"strings"

	"catalogd/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetRootGroupsHandler(c echo.Context) error {
	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.RootGroups())
}

func GetGroupTreeHandler(c echo.Context) error {
	type getTreeParams struct {
		Root string `query:"root"`
	}

	params := new(getTreeParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.HierarchyTree(params.Root))
}

func GetGroupChildrenHandler(c echo.Context) error {
	type getChildrenParams struct {
		ID string `query:"id" validate:"required"`
	}

	params := new(getChildrenParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.ChildGroups(params.ID))
}

func GetGroupDescendantsHandler(c echo.Context) error {
	type getDescendantsParams struct {
		ID string `query:"id" validate:"required"`
	}

	params := new(getDescendantsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.Descendants(params.ID))
}

func GetGroupEntitiesHandler(c echo.Context) error {
	type getGroupEntitiesParams struct {
		ID  string `query:"id" validate:"required"`
		All bool   `query:"all"`
	}

	params := new(getGroupEntitiesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, map[string]any{
		"entities": q.OwnedEntities(params.ID, params.All),
		"counts":   q.EntityCounts(params.ID, params.All),
	})
}

func GetGroupScoresHandler(c echo.Context) error {
	type getGroupScoresParams struct {
		ID  string `query:"id" validate:"required"`
		All bool   `query:"all"`
	}

	params := new(getGroupScoresParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.ScoreAggregation(params.ID, params.All))
}

func GetGroupRanksHandler(c echo.Context) error {
	type getGroupRanksParams struct {
		ID   string `query:"id" validate:"required"`
		Rank string `query:"rank" validate:"required"`
		All  bool   `query:"all"`
	}

	params := new(getGroupRanksParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	res := map[string]any{
		"distribution": q.GroupRankDistribution(params.ID, params.Rank, params.All),
	}
	if avg, ok := q.GroupAverageRank(params.ID, params.Rank, params.All); ok {
		res["average"] = avg
	}
	return c.JSON(http.StatusOK, res)
}

func CompareGroupsHandler(c echo.Context) error {
	type compareGroupsParams struct {
		IDs string `query:"ids" validate:"required"`
		All bool   `query:"all"`
	}

	params := new(compareGroupsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	var ids []string
	for _, id := range strings.Split(params.IDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.CompareGroups(ids, params.All))
}
