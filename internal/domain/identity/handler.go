package identity

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
	api.GET("/user-profiles", h.ListProfiles)
	api.GET("/user-profiles/:id", h.GetProfile)
}

// ListProfiles returns every profile for staff users, and only the
// caller's own profile for everyone else.
func (h *Handler) ListProfiles(c echo.Context) error {
	ctx := c.Request().Context()
	claims := auth.ClaimsFromContext(ctx)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	if claims.IsStaff {
		pg := pagination.FromContext(c)
		items, total, err := h.svc.ListProfiles(ctx, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	uid, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	p, err := h.svc.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return c.JSON(http.StatusOK, pagination.NewResponse([]*Profile{}, 0, 0, 0))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse([]*Profile{p}, 1, 1, 0))
}

// GetProfile returns one profile. Non-staff callers may only retrieve
// their own.
func (h *Handler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	claims := auth.ClaimsFromContext(ctx)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if !claims.IsStaff && auth.UserIDFromContext(ctx) != id.String() {
		return echo.NewHTTPError(http.StatusForbidden, "cannot view another user's profile")
	}

	p, err := h.svc.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
