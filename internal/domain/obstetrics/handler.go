package obstetrics

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mamacare/clinic/internal/domain/patient"
	"github.com/mamacare/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/deliveries", h.ListDeliveries)
	api.GET("/deliveries/:id", h.GetDelivery)
	api.POST("/deliveries", h.CreateDelivery)
	api.PUT("/deliveries/:id", h.UpdateDelivery)
	api.DELETE("/deliveries/:id", h.DeleteDelivery)

	api.GET("/discharges", h.ListDischarges)
	api.GET("/discharges/:id", h.GetDischarge)
	api.POST("/discharges", h.CreateDischarge)
	api.PUT("/discharges/:id", h.UpdateDischarge)
	api.DELETE("/discharges/:id", h.DeleteDischarge)
}

// DischargeBlockedResponse is the 409 body for a refused discharge. It echoes
// the submitted discharge back.
type DischargeBlockedResponse struct {
	Message     string     `json:"message"`
	PatientID   uuid.UUID  `json:"patient_id"`
	PatientName string     `json:"patient_name"`
	Discharge   *Discharge `json:"discharge"`
}

// -- Delivery handlers --

func (h *Handler) CreateDelivery(c echo.Context) error {
	var d Delivery
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDelivery(c.Request().Context(), &d); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDelivery(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDeliveries(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDeliveries(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Delivery
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDelivery(c.Request().Context(), &d); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDelivery(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Discharge handlers --

func (h *Handler) CreateDischarge(c echo.Context) error {
	var d Discharge
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.CreateDischarge(c.Request().Context(), &d)
	var blocked *DischargeBlockedError
	if errors.As(err, &blocked) {
		return c.JSON(http.StatusConflict, DischargeBlockedResponse{
			Message:     blocked.Error(),
			PatientID:   blocked.PatientID,
			PatientName: blocked.PatientName,
			Discharge:   blocked.Discharge,
		})
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDischarge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDischarge(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDischarges(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDischarges(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDischarge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Discharge
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDischarge(c.Request().Context(), &d); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDischarge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDischarge(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrDeliveryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "delivery not found")
	case errors.Is(err, ErrDischargeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "discharge not found")
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
