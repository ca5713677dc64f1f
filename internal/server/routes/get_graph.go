package routes

import (
	"net/http"
	"strings"

	"catalogd/internal/server/middleware"
	"catalogd/pkg/catalog"

	"github.com/labstack/echo/v4"
)

// relationTypeOrDefault falls back to dependsOn, matching the traversal
// queries' default edge type.
func relationTypeOrDefault(s string) catalog.RelationType {
	if s == "" {
		return catalog.RelationDependsOn
	}
	return catalog.RelationType(s)
}

func splitRelationTypes(s string) []catalog.RelationType {
	if s == "" {
		return nil
	}
	var out []catalog.RelationType
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, catalog.RelationType(part))
		}
	}
	return out
}

func splitKinds(s string) []catalog.Kind {
	if s == "" {
		return nil
	}
	var out []catalog.Kind
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, catalog.KindFromString(part))
		}
	}
	return out
}

func GetGraphHandler(c echo.Context) error {
	type getGraphParams struct {
		Types string `query:"types"`
		Kinds string `query:"kinds"`
	}

	params := new(getGraphParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	snap := c.(*middleware.AppContext).App.Query.Snapshot()
	view := snap.DependencyGraph(splitRelationTypes(params.Types), splitKinds(params.Kinds))
	return c.JSON(http.StatusOK, view)
}

func GetReachableGraphHandler(c echo.Context) error {
	type getReachableParams struct {
		Center string `query:"center" validate:"required"`
		Depth  int    `query:"depth"`
		Types  string `query:"types"`
		Kinds  string `query:"kinds"`
	}

	params := new(getReachableParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	snap := c.(*middleware.AppContext).App.Query.Snapshot()
	if _, ok := snap.Entity(params.Center); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
	}

	view := snap.ReachableGraph(params.Center, params.Depth, splitRelationTypes(params.Types), splitKinds(params.Kinds))
	return c.JSON(http.StatusOK, view)
}

func GetDependenciesHandler(c echo.Context) error {
	type getDependenciesParams struct {
		ID         string `query:"id" validate:"required"`
		Type       string `query:"type"`
		Transitive bool   `query:"transitive"`
		Depth      int    `query:"depth"`
	}

	params := new(getDependenciesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	snap := c.(*middleware.AppContext).App.Query.Snapshot()
	relType := relationTypeOrDefault(params.Type)

	if params.Transitive {
		return c.JSON(http.StatusOK, snap.TransitiveDependencies(params.ID, relType, params.Depth))
	}
	return c.JSON(http.StatusOK, snap.Dependencies(params.ID, relType))
}

func GetDependentsHandler(c echo.Context) error {
	type getDependentsParams struct {
		ID         string `query:"id" validate:"required"`
		Type       string `query:"type"`
		Transitive bool   `query:"transitive"`
		Depth      int    `query:"depth"`
	}

	params := new(getDependentsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	snap := c.(*middleware.AppContext).App.Query.Snapshot()
	relType := relationTypeOrDefault(params.Type)

	if params.Transitive {
		return c.JSON(http.StatusOK, snap.TransitiveDependents(params.ID, relType, params.Depth))
	}
	return c.JSON(http.StatusOK, snap.Dependents(params.ID, relType))
}

func GetCyclesHandler(c echo.Context) error {
	type getCyclesParams struct {
		Type string `query:"type"`
	}

	params := new(getCyclesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	snap := c.(*middleware.AppContext).App.Query.Snapshot()
	cycles := snap.DetectCycles(relationTypeOrDefault(params.Type))
	if cycles == nil {
		cycles = [][]string{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"cycles": cycles,
		"count":  len(cycles),
	})
}

func GetImpactHandler(c echo.Context) error {
	type getImpactParams struct {
		ID   string `query:"id" validate:"required"`
		Type string `query:"type"`
	}

	params := new(getImpactParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	snap := c.(*middleware.AppContext).App.Query.Snapshot()
	if _, ok := snap.Entity(params.ID); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
	}

	return c.JSON(http.StatusOK, snap.ImpactAnalysis(params.ID, relationTypeOrDefault(params.Type)))
}
