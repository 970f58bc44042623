package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret")

func doRequest(t *testing.T, mw echo.MiddlewareFunc, token string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, RoleFromContext(c.Request().Context()))
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	rec := doRequest(t, JWTMiddleware(testSecret), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	rec := doRequest(t, JWTMiddleware(testSecret), "garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	hid := uuid.New()
	token, err := IssueToken(testSecret, "hospital-7", RoleHospital, &hid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := doRequest(t, JWTMiddleware(testSecret), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != RoleHospital {
		t.Errorf("expected role %q in context, got %q", RoleHospital, rec.Body.String())
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	token, _ := IssueToken([]byte("other-secret"), "x", RoleAdmin, nil)
	rec := doRequest(t, JWTMiddleware(testSecret), token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := RequireRole(RoleReviewer)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	cases := []struct {
		role string
		want int
	}{
		{RoleAdmin, http.StatusOK},
		{RoleReviewer, http.StatusOK},
		{RoleHospital, http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), "u", tc.role, uuid.Nil))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		if rec.Code != tc.want {
			t.Errorf("role %q: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}
}

func TestHospitalIDFromContext_Empty(t *testing.T) {
	ctx := WithIdentity(context.Background(), "a", RoleAdmin, uuid.Nil)
	if id := HospitalIDFromContext(ctx); id != uuid.Nil {
		t.Errorf("expected uuid.Nil, got %v", id)
	}
}
