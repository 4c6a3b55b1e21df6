package catalog

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Catalog reads – every lab role needs reference data
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReceptionist, auth.RoleTechnician, auth.RoleAnalyst, auth.RoleValidator))
	readGroup.GET("/catalog/tests", h.ListTests)
	readGroup.GET("/catalog/tests/:id", h.GetTest)
	readGroup.GET("/catalog/methods", h.ListMethods)
	readGroup.GET("/catalog/analytes", h.ListAnalytes)

	// Catalog writes – admin only
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	writeGroup.POST("/catalog/tests", h.CreateTest)
	writeGroup.POST("/catalog/methods", h.CreateMethod)
	writeGroup.POST("/catalog/analytes", h.CreateAnalyte)
}

func (h *Handler) CreateTest(c echo.Context) error {
	var t TestCatalogEntry
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateTest(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.GetTest(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "catalog test not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTests(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListTests(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateMethod(c echo.Context) error {
	var m Method
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMethod(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMethods(c echo.Context) error {
	items, err := h.svc.ListMethods(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateAnalyte(c echo.Context) error {
	var a Analyte
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAnalyte(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAnalytes(c echo.Context) error {
	items, err := h.svc.ListAnalytes(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
