package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/museumtech/exhibition-manager/internal/handler"
	"github.com/museumtech/exhibition-manager/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the admin account routes under /api/admin. None
// of them require an existing session: register and login mint tokens and
// logout is a stateless acknowledgment.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api/admin")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
}

// RegisterAdmin registers all protected content routes under /api. The
// JWT guard runs first on every request; the response cache runs after it
// so cache keys can be scoped to the authenticated admin.
//
// Note the nested station routes reuse the :id parameter name of the
// exhibition routes; echo requires one name per path position.
func RegisterAdmin(e *echo.Echo, ex *handler.ExhibitionHandler, st *handler.StationHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/api",
		middleware.JWTAuth(jwtSecret),
		cache,
	)

	// ---- Exhibitions ----
	g.POST("/exhibitions", ex.Create)
	g.GET("/exhibitions", ex.List)
	g.GET("/exhibitions/:id", ex.Get)
	g.PUT("/exhibitions/:id", ex.Update)
	g.DELETE("/exhibitions/:id", ex.Delete)
	g.GET("/exhibitions/:id/qrcode", ex.QRCode)

	// ---- Stations ----
	g.POST("/exhibitions/:id/stations", st.Create)
	g.GET("/exhibitions/:id/stations", st.ListByExhibition)
	g.GET("/stations/:id", st.Get)
	g.PUT("/stations/:id", st.Update)
	g.DELETE("/stations/:id", st.Delete)
}
