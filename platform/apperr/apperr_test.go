package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("gone"), http.StatusNotFound},
		{Validation("bad"), http.StatusBadRequest},
		{BadRequest("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusConflict},
		{PreconditionFailed("not yet"), http.StatusUnprocessableEntity},
		{External("down", errors.New("boom")), http.StatusBadGateway},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{Internal("oops"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: got status %d, want %d", tc.err.Kind, got, tc.want)
		}
	}
}

func TestGetKind(t *testing.T) {
	if got := GetKind(NotFound("x")); got != KindNotFound {
		t.Fatalf("got %d, want KindNotFound", got)
	}
	if got := GetKind(errors.New("plain")); got != KindUnknown {
		t.Fatalf("plain errors must map to KindUnknown, got %d", got)
	}
	if got := GetKind(nil); got != KindUnknown {
		t.Fatalf("nil must map to KindUnknown, got %d", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := External("payment processor call failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause must be reachable via errors.Is")
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := NotFound("lead not found").WithOp("leads.Get")
	if got, want := err.Error(), "leads.Get: lead not found"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWrappedKindIsNotVisibleThroughFmtErrorf(t *testing.T) {
	// GetKind deliberately looks at the outermost error only: a repository
	// error annotated with fmt.Errorf is an internal failure to the caller,
	// not the original kind.
	inner := NotFound("row missing")
	wrapped := fmt.Errorf("load lead: %w", inner)

	if got := GetKind(wrapped); got != KindUnknown {
		t.Fatalf("got %d, want KindUnknown", got)
	}
}
