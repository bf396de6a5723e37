package org

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/callcare/callcare/internal/platform/auth"
	"github.com/callcare/callcare/internal/schema"
	"github.com/callcare/callcare/internal/session"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	role := auth.RequireRole("admin", "agent")
	g := api.Group("", role)
	g.GET("/org", h.GetOrganization)
	g.GET("/org/workflows", h.ListWorkflows)
	g.PUT("/org/workflow", h.SelectWorkflow)
}

// Login exchanges a verified token for the caller's full organization
// config. The org slug comes from the token, never the request body.
func (h *Handler) Login(c echo.Context) error {
	slug := auth.OrgSlugFromContext(c.Request().Context())
	if slug == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "token carries no organization")
	}
	o, err := h.svc.Login(c.Request().Context(), slug)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context()); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetOrganization(c echo.Context) error {
	o, err := h.svc.Current()
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListWorkflows(c echo.Context) error {
	ws, err := h.svc.Workflows()
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"workflows": ws})
}

func (h *Handler) SelectWorkflow(c echo.Context) error {
	var req struct {
		WorkflowID string `json:"workflow_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SelectWorkflow(c.Request().Context(), req.WorkflowID); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"selected_workflow": req.WorkflowID})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, schema.ErrSchemaMissing):
		return echo.NewHTTPError(http.StatusNotFound, "unknown workflow")
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
