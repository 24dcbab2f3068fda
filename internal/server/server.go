// Package server exposes the interview core over HTTP.
package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/candidates"
	"github.com/spigell/hh-interviewer/internal/common"
	"github.com/spigell/hh-interviewer/internal/interview"
)

// Handler serves the candidate, job description and session endpoints.
type Handler struct {
	registry    *candidates.Registry
	interviewer *interview.Interviewer
	sessions    *sessionTable
	logger      *zap.Logger
}

func NewHandler(registry *candidates.Registry, interviewer *interview.Interviewer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		registry:    registry,
		interviewer: interviewer,
		sessions:    newSessionTable(),
		logger:      logger,
	}
}

// New creates the echo server with all routes registered.
func New(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			h.logger.Debug("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	h.RegisterRoutes(e)

	return e
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	api.GET("/candidates", h.ListCandidates)
	api.POST("/candidates", h.RegisterCandidate)

	api.GET("/job-description", h.GetJobDescription)
	api.PUT("/job-description", h.UpdateJobDescription)

	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.POST("/sessions/:id/messages", h.PostMessage)

	e.GET("/health", h.Health)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// failure maps core errors onto HTTP statuses.
func (h *Handler) failure(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrGateway):
		return errorJSON(c, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
}
