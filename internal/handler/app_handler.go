package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/howyoufell/internal/model"
	"github.com/suteetoe/howyoufell/internal/service"
	"github.com/suteetoe/howyoufell/pkg/logger"
	"go.uber.org/zap"
)

// Route names used to build Location headers
const (
	routeGetTenant = "get-tenant"
	routeGetPerson = "get-person"
)

// AppService is the use case surface served over HTTP
type AppService interface {
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	RegisterTenant(ctx context.Context) (*model.Tenant, error)
	RegisterPerson(ctx context.Context) (*model.Person, error)
	GetPerson(ctx context.Context) (*model.Person, error)
	AddPersonFelling(ctx context.Context, input model.FellingInput) (*model.PersonFelling, error)
}

// AppHandler serves the /app routes
type AppHandler struct {
	service AppService
}

// NewAppHandler creates the handler
func NewAppHandler(service AppService) *AppHandler {
	return &AppHandler{service: service}
}

// GetTenant handles GET /app/tenants/:id
func (h *AppHandler) GetTenant(c echo.Context) error {
	id := c.Param("id")
	// ids are 24 hex characters; anything else does not name a route
	if len(id) != 24 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	tenant, err := h.service.GetTenant(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// RegisterTenant handles POST /app/tenants/register
func (h *AppHandler) RegisterTenant(c echo.Context) error {
	tenant, err := h.service.RegisterTenant(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, c.Echo().Reverse(routeGetTenant, tenant.ID.Hex()))
	return c.NoContent(http.StatusCreated)
}

// RegisterPerson handles POST /app/persons/register
func (h *AppHandler) RegisterPerson(c echo.Context) error {
	person, err := h.service.RegisterPerson(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, personLocation(c, person.ID))
	return c.NoContent(http.StatusCreated)
}

// GetPerson handles GET /app/persons
func (h *AppHandler) GetPerson(c echo.Context) error {
	person, err := h.service.GetPerson(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, person)
}

// AddPersonFelling handles POST /app/persons/add-felling
func (h *AppHandler) AddPersonFelling(c echo.Context) error {
	log := logger.FromEcho(c)

	var input model.FellingInput
	if err := c.Bind(&input); err != nil {
		log.Warn("Failed to parse felling request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	felling, err := h.service.AddPersonFelling(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, personLocation(c, felling.ID))
	return c.NoContent(http.StatusCreated)
}

// personLocation points at GetPerson, which takes no parameters, and carries the id as a query value
func personLocation(c echo.Context, id model.ID) string {
	return c.Echo().Reverse(routeGetPerson) + "?id=" + id.Hex()
}

// respondError maps use case errors to status codes with a generic body
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	default:
		logger.FromEcho(c).Error("Request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
