package routes

import (
	"net/http"

	"catalogd/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetLeaderboardHandler(c echo.Context) error {
	type getLeaderboardParams struct {
		Rank  string `query:"rank" validate:"required"`
		Limit int    `query:"limit"`
	}

	params := new(getLeaderboardParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.Leaderboard(params.Rank, params.Limit))
}

func GetDashboardHandler(c echo.Context) error {
	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.Dashboard())
}

func GetScoreDistributionHandler(c echo.Context) error {
	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.ScoreDistribution())
}

func GetRankDistributionHandler(c echo.Context) error {
	type getRankDistributionParams struct {
		Rank string `query:"rank"`
	}

	params := new(getRankDistributionParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.RankLabelDistribution(params.Rank))
}

func GetKindDistributionHandler(c echo.Context) error {
	type getKindDistributionParams struct {
		Rank string `query:"rank" validate:"required"`
	}

	params := new(getKindDistributionParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.KindRankDistribution(params.Rank))
}

func GetTrendsHandler(c echo.Context) error {
	type getTrendsParams struct {
		Days int `query:"days"`
	}

	params := new(getTrendsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, q.ScoreTrends(params.Days))
}

func GetEntityHistoryHandler(c echo.Context) error {
	type getHistoryParams struct {
		ID    string `query:"id" validate:"required"`
		Score string `query:"score"`
		Rank  string `query:"rank"`
	}

	params := new(getHistoryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	q := c.(*middleware.AppContext).App.Query
	return c.JSON(http.StatusOK, map[string]any{
		"scores": q.EntityScoreHistory(params.ID, params.Score),
		"ranks":  q.EntityRankHistory(params.ID, params.Rank),
	})
}
