// Package routers wires handlers and their middleware onto echo groups
package routers

import (
	"ask-api/internal/handlers/ask"
	"ask-api/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterAskRoutes(e *echo.Group, umw *middleware.UserMiddleware, quota ask.Quota, model ask.Generator) {
	handler := ask.NewAskHandler(quota, model)

	e.GET("/", ask.Health)
	e.POST("/ask", handler.Ask, umw.RequireConfig, umw.RequireUser)
}
