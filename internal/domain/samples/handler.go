package samples

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/internal/platform/validate"
	"github.com/labtrack/labtrack/pkg/pagination"
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
	readGroup.GET("/samples", h.List)
	readGroup.GET("/samples/:id", h.Get)
	readGroup.GET("/samples/:id/transitions", h.ListTransitions)

	// Intake – reception desk
	intakeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReceptionist))
	intakeGroup.POST("/samples", h.Create)

	// Edits – the field matrix does the per-field gating; roles gate the door
	editGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReceptionist, auth.RoleTechnician, auth.RoleAnalyst, auth.RoleValidator))
	editGroup.PUT("/samples/:id", h.Update)

	// Workflow – bench and validation staff
	workflowGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleTechnician, auth.RoleAnalyst, auth.RoleValidator))
	workflowGroup.POST("/samples/:id/status", h.ChangeStatus)

	// Purge – admin only
	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.DELETE("/samples/:id", h.Delete)
}

type createSampleTest struct {
	TestID   uuid.UUID  `json:"test_id" validate:"required"`
	MethodID *uuid.UUID `json:"method_id"`
}

type createSampleRequest struct {
	Code         string    `json:"code" validate:"required,sample_code"`
	ClientID     uuid.UUID `json:"client_id" validate:"required"`
	ReceivedDate time.Time `json:"received_date" validate:"required"`
	Species      string    `json:"species" validate:"required"`
	SLAType      string    `json:"sla_type" validate:"omitempty,sla_type"`

	ProjectID         *uuid.UUID `json:"project_id"`
	Variety           *string    `json:"variety"`
	Rootstock         *string    `json:"rootstock"`
	PlantingYear      *int       `json:"planting_year"`
	PreviousCrop      *string    `json:"previous_crop"`
	NextCrop          *string    `json:"next_crop"`
	Fallow            *bool      `json:"fallow"`
	Region            *string    `json:"region"`
	Locality          *string    `json:"locality"`
	TakenBy           *string    `json:"taken_by"`
	SamplingMethod    *string    `json:"sampling_method"`
	SuspectedPathogen *string    `json:"suspected_pathogen"`
	DeliveryMethod    *string    `json:"delivery_method"`

	ClientNotes           *string `json:"client_notes"`
	ReceptionNotes        *string `json:"reception_notes"`
	SamplingObservations  *string `json:"sampling_observations"`
	ReceptionObservations *string `json:"reception_observations"`

	Tests []createSampleTest `json:"tests" validate:"dive"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createSampleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, validate.FormatErrors(err))
	}

	sample := &Sample{
		Code:                  req.Code,
		ClientID:              req.ClientID,
		ProjectID:             req.ProjectID,
		ReceivedDate:          req.ReceivedDate,
		SLAType:               SLAType(req.SLAType),
		Species:               req.Species,
		Variety:               req.Variety,
		Rootstock:             req.Rootstock,
		PlantingYear:          req.PlantingYear,
		PreviousCrop:          req.PreviousCrop,
		NextCrop:              req.NextCrop,
		Fallow:                req.Fallow,
		Region:                req.Region,
		Locality:              req.Locality,
		TakenBy:               req.TakenBy,
		SamplingMethod:        req.SamplingMethod,
		SuspectedPathogen:     req.SuspectedPathogen,
		DeliveryMethod:        req.DeliveryMethod,
		ClientNotes:           req.ClientNotes,
		ReceptionNotes:        req.ReceptionNotes,
		SamplingObservations:  req.SamplingObservations,
		ReceptionObservations: req.ReceptionObservations,
	}
	tests := make([]*SampleTest, 0, len(req.Tests))
	for _, t := range req.Tests {
		tests = append(tests, &SampleTest{TestID: t.TestID, MethodID: t.MethodID})
	}

	if err := h.svc.Create(c.Request().Context(), sample, tests); err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, sample)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	view, err := h.svc.GetView(c.Request().Context(), id)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
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
	if patch.Status != nil && !ValidStatus(*patch.Status) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown status "+string(*patch.Status))
	}
	if patch.SLAType != nil && *patch.SLAType != SLANormal && *patch.SLAType != SLAExpress {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "sla_type must be \"normal\" or \"express\"")
	}
	sample, err := h.svc.Update(c.Request().Context(), id, &patch, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, sample)
}

type changeStatusRequest struct {
	Status Status  `json:"status" validate:"required"`
	Reason *string `json:"reason"`
}

func (h *Handler) ChangeStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req changeStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, validate.FormatErrors(err))
	}
	if !ValidStatus(req.Status) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown status "+string(req.Status))
	}
	sample, err := h.svc.ChangeStatus(c.Request().Context(), id, req.Status, req.Reason, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, sample)
}

func (h *Handler) ListTransitions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListTransitions(c.Request().Context(), id)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return domainHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// domainHTTPError maps domain failures onto the API error taxonomy.
func domainHTTPError(err error) error {
	var authErr *AuthorizationError
	var valErr *ValidationError
	var pgErr *pgconn.PgError

	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "sample not found")
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "sample was modified concurrently, retry the request")
	case errors.As(err, &authErr):
		return echo.NewHTTPError(http.StatusForbidden, map[string]interface{}{
			"error":           authErr.Error(),
			"rejected_fields": authErr.RejectedFields,
		})
	case errors.As(err, &valErr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   valErr.Error(),
			"missing": valErr.Missing,
		})
	case errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23503"):
		// Unique/foreign-key violations surface verbatim.
		return echo.NewHTTPError(http.StatusConflict, pgErr.Message)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
