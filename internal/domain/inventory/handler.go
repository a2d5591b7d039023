package inventory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pulmoscan/pulmoscan/internal/platform/auth"
	"github.com/pulmoscan/pulmoscan/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RolePharmacist, auth.RoleAdmin))
	g.GET("/inventory-transactions", h.ListTransactions)
	g.POST("/inventory-transactions", h.CreateTransaction)
}

func (h *Handler) CreateTransaction(c echo.Context) error {
	var t Transaction
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		t.UserID = &uid
	}
	if err := h.svc.RecordTransaction(c.Request().Context(), &t); err != nil {
		switch {
		case errors.Is(err, ErrMedicineNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInsufficientStock):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrMissingMedicine):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	pg := pagination.FromContext(c)
	if raw := c.QueryParam("medicine_id"); raw != "" {
		medicineID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine_id")
		}
		items, total, err := h.svc.ListByMedicine(c.Request().Context(), medicineID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
