package scanreport

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pulmoscan/pulmoscan/internal/platform/auth"
	"github.com/pulmoscan/pulmoscan/internal/platform/blobstore"
	"github.com/pulmoscan/pulmoscan/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.POST("/scan-reports", h.CreateScanReport)
	g.GET("/scan-reports", h.ListScanReports)
	g.GET("/scan-reports/:id", h.GetScanReport)
	g.GET("/scan-reports/:id/image", h.DownloadImage)
}

func (h *Handler) CreateScanReport(c echo.Context) error {
	patientName := c.FormValue("patient_name")

	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	var userID *uuid.UUID
	if uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		userID = &uid
	}

	report, err := h.svc.Submit(c.Request().Context(), patientName, fh.Filename,
		fh.Header.Get(echo.HeaderContentType), src, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrPatientNameRequired),
			errors.Is(err, blobstore.ErrInvalidContentType),
			errors.Is(err, blobstore.ErrFileTooLarge),
			errors.Is(err, blobstore.ErrMissingFileName):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, report)
}

func (h *Handler) ListScanReports(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("patient_name"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetScanReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	report, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "scan report not found")
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) DownloadImage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	report, rc, err := h.svc.OpenImage(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, blobstore.ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "scan image not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(report.ImageKey))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, rc)
}
