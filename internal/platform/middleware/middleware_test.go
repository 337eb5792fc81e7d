package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	c, rec := newTestContext(t)

	var seen string
	err := RequestID()(func(c echo.Context) error {
		seen, _ = c.Get("request_id").(string)
		return okHandler(c)
	})(c)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	if seen == "" {
		t.Error("no request_id set on context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header = %q, context value = %q", got, seen)
	}
}

func TestRequestID_KeepsClientSupplied(t *testing.T) {
	c, rec := newTestContext(t)
	c.Request().Header.Set(RequestIDHeader, "rid-42")

	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "rid-42" {
		t.Errorf("response header = %q, want rid-42", got)
	}
}

func TestLogger_WritesRequestLine(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)
	c, _ := newTestContext(t)
	c.Set("request_id", "rid-7")

	if err := Logger(logger)(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	line := buf.String()
	for _, want := range []string{`"request_id":"rid-7"`, `"method":"GET"`, `"path":"/appointments"`, `"status":200`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestRecovery_TurnsPanicInto500(t *testing.T) {
	logger := zerolog.New(io.Discard)
	c, _ := newTestContext(t)

	err := Recovery(logger)(func(echo.Context) error {
		panic("boom")
	})(c)

	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if he.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", he.Code)
	}
}

func TestRecovery_LeavesNormalFlowAlone(t *testing.T) {
	logger := zerolog.New(io.Discard)
	c, rec := newTestContext(t)

	if err := Recovery(logger)(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
