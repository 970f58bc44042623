package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/contrack/contrack/internal/apperr"
	"github.com/contrack/contrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/document-types", h.ListTypes, auth.RequireRole(auth.RoleReviewer, auth.RoleHospital))

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.PUT("/document-types/:name", h.UpsertType)
	adminGroup.DELETE("/document-types/:name", h.DeleteType)
	adminGroup.GET("/hospital-types/:type/optional-docs", h.GetOptionalDocs)
	adminGroup.PUT("/hospital-types/:type/optional-docs", h.SetOptionalDocs)
}

func (h *Handler) ListTypes(c echo.Context) error {
	items, err := h.svc.ListTypes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpsertType(c echo.Context) error {
	var dt DocumentType
	if err := c.Bind(&dt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dt.Name = c.Param("name")
	if err := h.svc.UpsertType(c.Request().Context(), &dt); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, dt)
}

func (h *Handler) DeleteType(c echo.Context) error {
	if err := h.svc.DeleteType(c.Request().Context(), c.Param("name")); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetOptionalDocs(c echo.Context) error {
	set, err := h.svc.OptionalSet(c.Request().Context(), c.Param("type"))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	return c.JSON(http.StatusOK, OptionalDocs{HospitalType: c.Param("type"), DocNames: names})
}

func (h *Handler) SetOptionalDocs(c echo.Context) error {
	var body OptionalDocs
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetOptionalDocs(c.Request().Context(), c.Param("type"), body.DocNames); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
