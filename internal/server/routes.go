package server

import (
	"catalogd/internal/server/middleware"
	"catalogd/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Entity routes
	apiRoutes.GET("/entities", routes.GetEntitiesHandler)
	apiRoutes.GET("/entity", routes.GetEntityHandler)
	apiRoutes.GET("/stats", routes.GetStatsHandler)

	// Graph routes
	apiRoutes.GET("/graph", routes.GetGraphHandler)
	apiRoutes.GET("/graph/reachable", routes.GetReachableGraphHandler)
	apiRoutes.GET("/graph/dependencies", routes.GetDependenciesHandler)
	apiRoutes.GET("/graph/dependents", routes.GetDependentsHandler)
	apiRoutes.GET("/graph/cycles", routes.GetCyclesHandler)
	apiRoutes.GET("/graph/impact", routes.GetImpactHandler)

	// Group routes
	apiRoutes.GET("/groups/roots", routes.GetRootGroupsHandler)
	apiRoutes.GET("/groups/tree", routes.GetGroupTreeHandler)
	apiRoutes.GET("/groups/children", routes.GetGroupChildrenHandler)
	apiRoutes.GET("/groups/descendants", routes.GetGroupDescendantsHandler)
	apiRoutes.GET("/groups/entities", routes.GetGroupEntitiesHandler)
	apiRoutes.GET("/groups/scores", routes.GetGroupScoresHandler)
	apiRoutes.GET("/groups/ranks", routes.GetGroupRanksHandler)
	apiRoutes.GET("/groups/compare", routes.CompareGroupsHandler)

	// Score and rank routes
	apiRoutes.GET("/leaderboard", routes.GetLeaderboardHandler)
	apiRoutes.GET("/dashboard", routes.GetDashboardHandler)
	apiRoutes.GET("/distributions/scores", routes.GetScoreDistributionHandler)
	apiRoutes.GET("/distributions/ranks", routes.GetRankDistributionHandler)
	apiRoutes.GET("/distributions/kinds", routes.GetKindDistributionHandler)
	apiRoutes.GET("/trends", routes.GetTrendsHandler)
	apiRoutes.GET("/history", routes.GetEntityHistoryHandler)

	// Reload routes
	apiRoutes.POST("/catalog/reload", routes.ReloadCatalogHandler, middleware.APIKeyMiddleware)
	apiRoutes.POST("/scorecards/reload", routes.ReloadScorecardsHandler, middleware.APIKeyMiddleware)
}
