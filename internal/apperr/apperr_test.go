package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrappersMatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{Validationf("bad field %s", "name"), ErrValidation},
		{Conflictf("code %q taken", "H-1"), ErrConflict},
		{NotFoundf("request %d", 7), ErrNotFound},
		{Storagef("disk full"), ErrStorage},
		{Forbiddenf("hospital edit window closed"), ErrForbidden},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.sentinel) {
			t.Errorf("%v does not match %v", tc.err, tc.sentinel)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validationf("x"), http.StatusBadRequest},
		{Conflictf("x"), http.StatusConflict},
		{NotFoundf("x"), http.StatusNotFound},
		{Forbiddenf("x"), http.StatusForbidden},
		{Storagef("x"), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
