package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/expenses-api/internal/middleware"
	"github.com/deppfellow/expenses-api/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler serves the "system" endpoints that monitors and load
// balancers use to see whether the service is up.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

// Root names the API, its version and where the docs live.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{
		Message: h.server.Config.API.Title,
		Version: h.server.Config.API.Version,
		Docs:    "/docs",
	})
}

// Health is the liveness probe. It touches no dependency.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// CheckHealth runs the configured dependency checks.
//
// It returns 200 when every check passes and 503 otherwise, with the
// per-check status and response time in the body.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	cfg := h.server.Config.Observability.HealthChecks

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true

	var names []string
	if cfg.Enabled {
		names = cfg.Checks
	}

	for _, name := range names {
		// "database" is the only dependency this service has.
		if name != "database" {
			continue
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
		dbStart := time.Now()
		err := h.server.DB.Ping(ctx)
		cancel()

		if err != nil {
			isHealthy = false
			checks[name] = map[string]interface{}{
				"status":        "unhealthy",
				"response_time": time.Since(dbStart).String(),
				"error":         err.Error(),
			}

			logger.Error().
				Err(err).
				Dur("response_time", time.Since(dbStart)).
				Msg("database health check failed")

			if app := h.server.LoggerService.GetApplication(); app != nil {
				app.RecordCustomEvent("HealthCheckError", map[string]interface{}{
					"check_type":       name,
					"operation":        "health_check",
					"error_type":       "database_unhealthy",
					"response_time_ms": time.Since(dbStart).Milliseconds(),
					"error_message":    err.Error(),
				})
			}
			continue
		}

		checks[name] = map[string]interface{}{
			"status":        "healthy",
			"response_time": time.Since(dbStart).String(),
			"driver":        string(h.server.DB.Driver),
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"
		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}
