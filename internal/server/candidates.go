package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Resume string `json:"resume"`
}

type jobDescriptionBody struct {
	JobDescription *string `json:"job_description"`
}

// ListCandidates GET /api/candidates
func (h *Handler) ListCandidates(c echo.Context) error {
	list, err := h.registry.List(c.Request().Context())
	if err != nil {
		return h.failure(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"candidates": list})
}

// RegisterCandidate POST /api/candidates
func (h *Handler) RegisterCandidate(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	candidate, err := h.registry.Register(c.Request().Context(), req.Name, req.Email, req.Phone, req.Resume)
	if err != nil {
		return h.failure(c, err)
	}

	return c.JSON(http.StatusCreated, candidate)
}

// GetJobDescription GET /api/job-description
func (h *Handler) GetJobDescription(c echo.Context) error {
	jd, err := h.registry.JobDescription(c.Request().Context())
	if err != nil {
		return h.failure(c, err)
	}

	return c.JSON(http.StatusOK, jobDescriptionBody{JobDescription: &jd})
}

// UpdateJobDescription PUT /api/job-description
func (h *Handler) UpdateJobDescription(c echo.Context) error {
	var req jobDescriptionBody
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.JobDescription == nil {
		return errorJSON(c, http.StatusBadRequest, "job_description is required")
	}

	if err := h.registry.UpdateJobDescription(c.Request().Context(), *req.JobDescription); err != nil {
		return h.failure(c, err)
	}

	return c.JSON(http.StatusOK, req)
}
