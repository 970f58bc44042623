package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/contrack/contrack/internal/platform/auth"
)

func doRequest(t *testing.T, h *Handler, method, path string, identity context.Context) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1"))

	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(identity)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerDelete_HospitalHardDeletes(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	h := NewHandler(f.svc)

	identity := auth.WithIdentity(context.Background(), "hosp-user", auth.RoleHospital, f.hospitalID)
	rec := doRequest(t, h, http.MethodDelete, "/api/v1/requests/"+req.ID.String(), identity)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := f.reqRepo.GetByID(context.Background(), req.ID); err == nil {
		t.Error("hospital delete must remove the row")
	}
}

func TestHandlerDelete_AdminSoftDeletes(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	h := NewHandler(f.svc)

	identity := auth.WithIdentity(context.Background(), "admin-user", auth.RoleAdmin, uuid.Nil)
	rec := doRequest(t, h, http.MethodDelete, "/api/v1/requests/"+req.ID.String(), identity)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	got, err := f.reqRepo.GetByID(context.Background(), req.ID)
	if err != nil {
		t.Fatal("admin delete must keep the row")
	}
	if got.DeletedAt == nil {
		t.Error("admin delete must stamp deletedAt")
	}
}

func TestHandlerDelete_ForeignHospitalForbidden(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t)
	h := NewHandler(f.svc)

	identity := auth.WithIdentity(context.Background(), "other-hosp", auth.RoleHospital, uuid.New())
	rec := doRequest(t, h, http.MethodDelete, "/api/v1/requests/"+req.ID.String(), identity)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if _, err := f.reqRepo.GetByID(context.Background(), req.ID); err != nil {
		t.Error("forbidden delete must not touch the request")
	}
}

func TestHandlerEligibility(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	identity := auth.WithIdentity(context.Background(), "hosp-user", auth.RoleHospital, f.hospitalID)

	rec := doRequest(t, h, http.MethodGet,
		"/api/v1/requests/eligibility?service_id="+f.serviceID.String(), identity)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	f.createRequest(t)
	rec = doRequest(t, h, http.MethodGet,
		"/api/v1/requests/eligibility?service_id="+f.serviceID.String(), identity)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if body == "" || body[0] != '{' {
		t.Fatalf("expected JSON decision, got %q", body)
	}
}

func TestHandlerTransition_RequiresStaffRole(t *testing.T) {
	f := newFixture()
	req := f.submitted(t)
	h := NewHandler(f.svc)

	identity := auth.WithIdentity(context.Background(), "hosp-user", auth.RoleHospital, f.hospitalID)
	rec := doRequest(t, h, http.MethodPut, "/api/v1/requests/"+req.ID.String()+"/status", identity)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for hospital role on status transition, got %d", rec.Code)
	}
}
