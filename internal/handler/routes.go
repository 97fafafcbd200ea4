package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/howyoufell/prometheus"
)

// RegisterRoutes mounts the application, health and metrics routes.
// Every /app route runs behind auth.
func RegisterRoutes(e *echo.Echo, app *AppHandler, health *HealthHandler, auth echo.MiddlewareFunc) {
	e.GET("/health", health.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	g := e.Group("/app", auth)
	g.GET("/tenants/:id", app.GetTenant).Name = routeGetTenant
	g.POST("/tenants/register", app.RegisterTenant)
	g.POST("/persons/register", app.RegisterPerson)
	g.GET("/persons", app.GetPerson).Name = routeGetPerson
	g.POST("/persons/add-felling", app.AddPersonFelling)
}
