package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func expectHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestHandler_InitiatePayment(t *testing.T) {
	h, f, e := newTestHandler()
	body := `{"patient_id":"` + f.patient.String() + `","amount":"750"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.InitiatePayment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusSuccess || got.Amount.String() != "750" {
		t.Errorf("unexpected transaction %+v", got)
	}
}

func TestHandler_InitiatePayment_UnknownPatient(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"patient_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	expectHTTPStatus(t, h.InitiatePayment(c), http.StatusNotFound)
}

func TestHandler_RecordTransaction_Invalid(t *testing.T) {
	h, f, e := newTestHandler()
	body := `{"patient_id":"` + f.patient.String() + `","amount":"0","status":"Success"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	expectHTTPStatus(t, h.RecordTransaction(c), http.StatusBadRequest)
}

func TestHandler_GetClearance(t *testing.T) {
	h, f, e := newTestHandler()

	check := func(want bool) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(f.patient.String())

		if err := h.GetClearance(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got Clearance
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Cleared != want {
			t.Errorf("expected cleared=%v, got %v", want, got.Cleared)
		}
	}

	check(false)
	f.svc.InitiatePayment(context.Background(), PaymentRequest{PatientID: f.patient})
	check(true)
}

func TestHandler_GetClearance_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	expectHTTPStatus(t, h.GetClearance(c), http.StatusNotFound)
}

func TestHandler_ListTransactions(t *testing.T) {
	h, f, e := newTestHandler()
	f.svc.InitiatePayment(context.Background(), PaymentRequest{PatientID: f.patient})

	req := httptest.NewRequest(http.MethodGet, "/?limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListTransactions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(items))
	}
}
