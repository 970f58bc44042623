package request

import (
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/contrack/contrack/internal/apperr"
	"github.com/contrack/contrack/internal/platform/auth"
	"github.com/contrack/contrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/requests", h.List)
	api.GET("/requests/:id", h.Get)
	api.GET("/requests/eligibility", h.Eligibility)

	api.POST("/requests", h.Create, auth.RequireRole(auth.RoleHospital))
	api.POST("/requests/:id/submit", h.Submit, auth.RequireRole(auth.RoleHospital))
	api.POST("/requests/:id/documents/:docType", h.Upload)
	api.GET("/requests/:id/documents/:docType/file", h.Download)
	api.DELETE("/requests/:id", h.Delete)

	staffGroup := api.Group("", auth.RequireRole(auth.RoleReviewer))
	staffGroup.PUT("/requests/:id/status", h.TransitionStatus)
	staffGroup.PUT("/requests/:id/documents/:docType", h.PatchDocument)
	staffGroup.POST("/requests/:id/documents/resync", h.ResyncDocuments)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	page := pagination.FromContext(c)

	var f ListFilter
	if v := c.QueryParam("hospital_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
		}
		f.HospitalID = id
	}
	if v := c.QueryParam("service_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid service_id")
		}
		f.ServiceID = id
	}
	f.Status = c.QueryParam("status")

	role := auth.RoleFromContext(ctx)
	if role == auth.RoleHospital {
		f.HospitalID = auth.HospitalIDFromContext(ctx)
		f.IncludeDeleted = false
	} else {
		f.IncludeDeleted = c.QueryParam("include_deleted") == "true"
	}

	items, total, err := h.svc.List(ctx, f, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	role := auth.RoleFromContext(ctx)
	detail, err := h.svc.Get(ctx, id, auth.IsStaff(role))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	if role == auth.RoleHospital && detail.Request.HospitalID != auth.HospitalIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "not your request")
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) Eligibility(c echo.Context) error {
	ctx := c.Request().Context()
	serviceID, err := uuid.Parse(c.QueryParam("service_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service_id")
	}

	hospitalID := auth.HospitalIDFromContext(ctx)
	if auth.IsStaff(auth.RoleFromContext(ctx)) {
		hospitalID, err = uuid.Parse(c.QueryParam("hospital_id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
		}
	}

	decision, err := h.svc.CanCreate(ctx, hospitalID, serviceID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, decision)
}

func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	var body struct {
		ServiceID   uuid.UUID `json:"service_id"`
		AgeCategory string    `json:"age_category"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hospitalID := auth.HospitalIDFromContext(ctx)
	if hospitalID == uuid.Nil {
		return echo.NewHTTPError(http.StatusForbidden, "no hospital identity")
	}

	req, err := h.svc.Create(ctx, hospitalID, body.ServiceID, body.AgeCategory)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	if err := h.requireOwnership(c, id); err != nil {
		return err
	}
	req, err := h.svc.Submit(ctx, id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) TransitionStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.TransitionStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	role := auth.RoleFromContext(ctx)
	if role == auth.RoleHospital {
		if err := h.requireEditable(c, id); err != nil {
			return err
		}
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	doc, err := h.svc.UploadDocument(ctx, id, c.Param("docType"), fh.Filename, src)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) Download(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	if auth.RoleFromContext(ctx) == auth.RoleHospital {
		if err := h.requireOwnership(c, id); err != nil {
			return err
		}
	}
	rc, path, err := h.svc.OpenDocument(ctx, id, c.Param("docType"))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+filepath.Base(path)+`"`)
	return c.Stream(http.StatusOK, "application/octet-stream", rc)
}

func (h *Handler) PatchDocument(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	var patch DocumentPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doc, err := h.svc.PatchDocument(c.Request().Context(), id, c.Param("docType"), patch)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) ResyncDocuments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	if err := h.svc.EnsureDocumentSet(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete is soft for staff (trash) and hard for the owning hospital (row
// and files removed, only from editable statuses).
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	role := auth.RoleFromContext(ctx)
	if role == auth.RoleHospital {
		if err := h.requireOwnership(c, id); err != nil {
			return err
		}
		if err := h.svc.HardDelete(ctx, id); err != nil {
			return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
		}
		return c.NoContent(http.StatusNoContent)
	}
	if role != auth.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
	}
	if err := h.svc.SoftDelete(ctx, id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) requireOwnership(c echo.Context, id uuid.UUID) error {
	ctx := c.Request().Context()
	detail, err := h.svc.Get(ctx, id, false)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	if detail.Request.HospitalID != auth.HospitalIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "not your request")
	}
	return nil
}

func (h *Handler) requireEditable(c echo.Context, id uuid.UUID) error {
	ctx := c.Request().Context()
	detail, err := h.svc.Get(ctx, id, false)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	if detail.Request.HospitalID != auth.HospitalIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "not your request")
	}
	ok, err := h.svc.HospitalMayEdit(ctx, detail.Request)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "request is no longer editable")
	}
	return nil
}
