package api

import (
	"github.com/datallboy/catfish/internal/api/controllers"
	"github.com/datallboy/catfish/internal/app"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	runsCtrl := &controllers.RunsController{App: app}

	e.GET("/api/runs", runsCtrl.List)
	e.GET("/api/runs/:id", runsCtrl.Get)
	e.GET("/api/runs/:id/failures", runsCtrl.Failures)
}
