package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

// Route is one endpoint of the versioned API
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Area is a set of routes below one prefix. A non-empty Scope must be
// granted by the caller's token for any route of the area.
type Area struct {
	Prefix string
	Scope  string
	Routes []Route
}

// Mount registers areas under /api/{version}. mw runs before the scope check
// of each area.
func Mount(engine *gin.Engine, version string, mw []gin.HandlerFunc, areas ...Area) *gin.RouterGroup {
	api := engine.Group("/api/"+version, mw...)
	for _, area := range areas {
		group := api.Group(area.Prefix)
		if area.Scope != "" {
			group.Use(middleware.RequireScope(area.Scope))
		}
		for _, rt := range area.Routes {
			group.Handle(rt.Method, rt.Path, rt.Handler)
		}
	}
	return api
}
