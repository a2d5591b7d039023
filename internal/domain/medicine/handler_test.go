package medicine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

func TestHandler_CreateMedicine(t *testing.T) {
	h, e := newTestHandler()

	body := `{"name":"Paracetamol 500mg","batch_number":"PCM-01","quantity":40,"price":3.20,"supplier":"Acme Pharma"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateMedicine(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var m Medicine
	json.Unmarshal(rec.Body.Bytes(), &m)
	if m.Name != "Paracetamol 500mg" {
		t.Errorf("expected name echoed back, got %s", m.Name)
	}
	if m.ID == uuid.Nil {
		t.Error("expected assigned id in response")
	}
}

func TestHandler_CreateMedicine_MissingName(t *testing.T) {
	h, e := newTestHandler()

	body := `{"batch_number":"PCM-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateMedicine(c)
	if err == nil {
		t.Fatal("expected error for missing name")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GetMedicine(t *testing.T) {
	h, e := newTestHandler()

	m := &Medicine{Name: "Aspirin", BatchNumber: "ASP-01"}
	h.svc.Create(nil, m)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())

	if err := h.GetMedicine(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetMedicine_NotFound(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetMedicine(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_GetMedicine_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetMedicine(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListMedicines_Pagination(t *testing.T) {
	h, e := newTestHandler()

	for _, name := range []string{"Alba", "Beta", "Ceta"} {
		h.svc.Create(nil, &Medicine{Name: name, BatchNumber: name + "-1"})
	}

	req := httptest.NewRequest(http.MethodGet, "/?limit=2&offset=0", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListMedicines(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data    []*Medicine `json:"data"`
		Total   int         `json:"total"`
		HasMore bool        `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 3 {
		t.Errorf("expected total 3, got %d", resp.Total)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 items on page, got %d", len(resp.Data))
	}
	if !resp.HasMore {
		t.Error("expected has_more=true")
	}
}

func TestHandler_UpdateMedicine(t *testing.T) {
	h, e := newTestHandler()

	m := &Medicine{Name: "Old", BatchNumber: "B-1", Quantity: 7}
	h.svc.Create(nil, m)

	body := `{"name":"New","batch_number":"B-1","price":9.99}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())

	if err := h.UpdateMedicine(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_UpdateMedicine_NotFound(t *testing.T) {
	h, e := newTestHandler()

	body := `{"name":"New","batch_number":"B-1"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.UpdateMedicine(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_DeleteMedicine(t *testing.T) {
	h, e := newTestHandler()

	m := &Medicine{Name: "Temp", BatchNumber: "T-1"}
	h.svc.Create(nil, m)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())

	if err := h.DeleteMedicine(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_GetAlerts(t *testing.T) {
	h, e := newTestHandler()

	future := time.Now().AddDate(1, 0, 0)
	h.svc.Create(nil, &Medicine{Name: "Low", BatchNumber: "L-1", Quantity: 2, ExpiryDate: future})
	h.svc.Create(nil, &Medicine{Name: "Fine", BatchNumber: "F-1", Quantity: 80, ExpiryDate: future})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetAlerts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var alerts Alerts
	json.Unmarshal(rec.Body.Bytes(), &alerts)
	if len(alerts.LowStock) != 1 {
		t.Errorf("expected 1 low stock alert, got %d", len(alerts.LowStock))
	}
	if len(alerts.Expired) != 0 {
		t.Errorf("expected no expired alerts, got %d", len(alerts.Expired))
	}
}
