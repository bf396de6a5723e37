package patient

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/callcare/callcare/internal/bulkimport"
	"github.com/callcare/callcare/internal/platform/auth"
	"github.com/callcare/callcare/internal/schema"
	"github.com/callcare/callcare/internal/session"
	"github.com/callcare/callcare/pkg/pagination"
)

type Handler struct {
	svc     *Service
	watcher *Watcher
}

func NewHandler(svc *Service, watcher *Watcher) *Handler {
	return &Handler{svc: svc, watcher: watcher}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("admin", "agent")

	g := api.Group("", role)
	g.GET("/patients", h.ListRecords)
	g.GET("/patients/form", h.GetCreateForm)
	g.GET("/patients/columns", h.GetColumns)
	g.GET("/patients/:id", h.GetRecord)
	g.GET("/patients/:id/form", h.GetEditForm)
	g.POST("/patients", h.CreateRecord)
	g.PUT("/patients/:id", h.UpdateRecord)
	g.PATCH("/patients/:id/call-status", h.UpdateCallStatus)
	g.DELETE("/patients/:id", h.DeleteRecord)
	g.POST("/patients/import", h.ImportCSV)
}

// writeRequest carries a form submission. Values is keyed by schema field
// key; stray keys are ignored. SchemaEpoch, when non-zero, is checked
// against the session's current epoch so a submission built before a
// workflow switch is rejected instead of written against the wrong schema.
type writeRequest struct {
	Values      map[string]string `json:"values"`
	SchemaEpoch uint64            `json:"schema_epoch,omitempty"`
}

type formResponse struct {
	Form        interface{} `json:"form"`
	SchemaEpoch uint64      `json:"schema_epoch"`
}

func (h *Handler) GetCreateForm(c echo.Context) error {
	f, epoch, err := h.svc.CreateForm()
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, formResponse{Form: f, SchemaEpoch: epoch})
}

func (h *Handler) GetEditForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	f, epoch, err := h.svc.EditForm(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, formResponse{Form: f, SchemaEpoch: epoch})
}

func (h *Handler) GetColumns(c echo.Context) error {
	cols, err := h.svc.Columns()
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"columns": cols})
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var req writeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Create(c.Request().Context(), req.Values, req.SchemaEpoch)
	if err != nil {
		return mapError(err)
	}
	if h.watcher != nil {
		h.watcher.Kick()
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := CallStatus(c.QueryParam("call_status"))
	if status != "" && !validCallStatuses[status] {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid call_status")
	}
	records, total, err := h.svc.List(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req writeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Update(c.Request().Context(), id, req.Values, req.SchemaEpoch)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateCallStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		CallStatus CallStatus `json:"call_status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.UpdateCallStatus(c.Request().Context(), id, req.CallStatus)
	if err != nil {
		return mapError(err)
	}
	if h.watcher != nil {
		h.watcher.Kick()
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ImportCSV accepts the batch either as a multipart "file" part or as the
// raw request body.
func (h *Handler) ImportCSV(c echo.Context) error {
	var src io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		defer f.Close()
		src = f
	} else {
		src = c.Request().Body
	}

	res, err := h.svc.ImportCSV(c.Request().Context(), src)
	if err != nil {
		return mapError(err)
	}
	if h.watcher != nil && res.Succeeded > 0 {
		h.watcher.Kick()
	}
	return c.JSON(http.StatusOK, res)
}

// mapError translates engine errors into HTTP responses. Validation failures
// carry the per-field detail so the client can annotate the open form.
func mapError(err error) error {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "validation failed",
			"fields":  verr.Fields,
		})
	case errors.Is(err, session.ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, schema.ErrSchemaMissing):
		return echo.NewHTTPError(http.StatusConflict, "no workflow schema selected")
	case errors.Is(err, ErrStaleSchema):
		return echo.NewHTTPError(http.StatusConflict, "schema changed, rebuild the form")
	case errors.Is(err, ErrInvalidCallStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, bulkimport.ErrEmptyImport):
		return echo.NewHTTPError(http.StatusBadRequest, bulkimport.ErrEmptyImport.Error())
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
