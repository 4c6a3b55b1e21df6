package results

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/domain/findings"
	"github.com/labtrack/labtrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Reads – every lab role
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReceptionist, auth.RoleTechnician, auth.RoleAnalyst, auth.RoleValidator))
	readGroup.GET("/results/:id", h.Get)
	readGroup.GET("/results/:id/findings", h.RenderFindings)
	readGroup.GET("/samples/:id/results", h.ListBySample)

	// Bench work – technicians, analysts, validators
	benchGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleTechnician, auth.RoleAnalyst, auth.RoleValidator))
	benchGroup.POST("/results", h.Create)
	benchGroup.PUT("/results/:id", h.Update)

	// Validation – the service re-checks the role; the route gate keeps
	// the endpoint off-limits to reception staff entirely.
	validateGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleValidator))
	validateGroup.POST("/results/:id/validate", h.Validate)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.DELETE("/results/:id", h.Delete)
}

type createResultRequest struct {
	SampleID       uuid.UUID       `json:"sample_id"`
	SampleTestID   uuid.UUID       `json:"sample_test_id"`
	Classification *Classification `json:"classification"`
	Severity       *string         `json:"severity"`
	Confidence     *string         `json:"confidence"`
	Diagnosis      *string         `json:"diagnosis"`
	Conclusion     *string         `json:"conclusion"`

	Draft *findings.Draft `json:"draft"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createResultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r := &Result{
		SampleID:       req.SampleID,
		SampleTestID:   req.SampleTestID,
		Classification: req.Classification,
		Severity:       req.Severity,
		Confidence:     req.Confidence,
		Diagnosis:      req.Diagnosis,
		Conclusion:     req.Conclusion,
	}
	if err := h.svc.Create(c.Request().Context(), r, req.Draft); err != nil {
		return resultHTTPError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return resultHTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListBySample(c echo.Context) error {
	sampleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListBySample(c.Request().Context(), sampleID)
	if err != nil {
		return resultHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Update(c.Request().Context(), id, &patch, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return resultHTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Validate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Validate(c.Request().Context(), id, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return resultHTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return resultHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RenderFindings(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	table, err := h.svc.RenderFindings(c.Request().Context(), id)
	if err != nil {
		return resultHTTPError(err)
	}
	if table == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, table)
}

func resultHTTPError(err error) error {
	var pgErr *pgconn.PgError

	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "result not found")
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "result was modified concurrently, retry the request")
	case errors.Is(err, ErrValidatedLocked), errors.Is(err, ErrValidatorRole):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotCompleted):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23503"):
		return echo.NewHTTPError(http.StatusConflict, pgErr.Message)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
