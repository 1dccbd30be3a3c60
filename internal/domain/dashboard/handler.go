package dashboard

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.GetDashboard)
}

// GetDashboard serves the report. ?today=YYYY-MM-DD overrides the clinic's
// current date and ?revenue_scope= picks month or year_month.
func (h *Handler) GetDashboard(c echo.Context) error {
	today := h.svc.Today()
	if raw := c.QueryParam("today"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "today must be YYYY-MM-DD")
		}
		today = t
	}
	scope, err := ParseRevenueScope(c.QueryParam("revenue_scope"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	r, err := h.svc.Report(c.Request().Context(), today, scope)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, r)
}
