package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pulmoscan/pulmoscan/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/stock-summary", h.GetStockSummary,
		auth.RequireRole(auth.RolePharmacist, auth.RoleAdmin))
	api.GET("/dashboard/doctor-summary", h.GetDoctorSummary,
		auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
}

func (h *Handler) GetStockSummary(c echo.Context) error {
	summary, err := h.svc.StockSummary(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetDoctorSummary(c echo.Context) error {
	summary, err := h.svc.DoctorSummary(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}
