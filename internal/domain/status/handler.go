package status

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
	api.GET("/statuses", h.List, auth.RequireRole(auth.RoleReviewer, auth.RoleHospital))

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.PUT("/statuses/:name", h.Upsert)
	adminGroup.DELETE("/statuses/:name", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Upsert(c echo.Context) error {
	var setting Setting
	if err := c.Bind(&setting); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	setting.Name = c.Param("name")
	if err := h.svc.Upsert(c.Request().Context(), &setting); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, setting)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
