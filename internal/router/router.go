package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/amirasyraf/edugrade-api/internal/config"
	"github.com/amirasyraf/edugrade-api/internal/handler"
	"github.com/amirasyraf/edugrade-api/internal/middleware"
	"github.com/amirasyraf/edugrade-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	GradingHandler    *handler.GradingHandler
	ProgressHandler   *handler.ProgressHandler
	EventsHandler     *handler.EventsHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	authenticated := api.Group("", jwtMiddleware)

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(authenticated.Group("/assignments"))

		admin := authenticated.Group("/admin/assignments",
			middleware.RequireRole(middleware.RoleInstructor, middleware.RoleAdmin))
		deps.AssignmentHandler.RegisterAdmin(admin)
	}

	if deps.SubmissionHandler != nil {
		student := authenticated.Group("",
			middleware.RequireRole(middleware.RoleStudent),
			middleware.RateLimit("submissions", 10, time.Minute))
		deps.SubmissionHandler.Register(student)
	}

	if deps.GradingHandler != nil {
		grading := authenticated.Group("/grading",
			middleware.RequireRole(middleware.RoleInstructor, middleware.RoleAdmin))
		deps.GradingHandler.Register(grading)
	}

	if deps.ProgressHandler != nil {
		progress := authenticated.Group("", middleware.RequireRole(middleware.RoleStudent))
		deps.ProgressHandler.Register(progress)
	}

	if deps.EventsHandler != nil {
		deps.EventsHandler.Register(authenticated)
	}
}
