package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func tenantContext(t *testing.T, setup func(c echo.Context, req *http.Request)) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c, req)
	}
	return c
}

func TestExtractTenantID_Sources(t *testing.T) {
	cases := []struct {
		name  string
		setup func(c echo.Context, req *http.Request)
		want  string
	}{
		{"default when nothing set", nil, "default"},
		{"from header", func(c echo.Context, req *http.Request) {
			req.Header.Set("X-Tenant-ID", "clinic_a")
		}, "clinic_a"},
		{"from query param", func(c echo.Context, req *http.Request) {
			q := req.URL.Query()
			q.Set("tenant_id", "clinic_b")
			req.URL.RawQuery = q.Encode()
		}, "clinic_b"},
		{"from jwt claim", func(c echo.Context, req *http.Request) {
			c.Set("jwt_tenant_id", "clinic_c")
		}, "clinic_c"},
		{"jwt claim beats header", func(c echo.Context, req *http.Request) {
			c.Set("jwt_tenant_id", "clinic_c")
			req.Header.Set("X-Tenant-ID", "clinic_a")
		}, "clinic_c"},
		{"header beats query", func(c echo.Context, req *http.Request) {
			req.Header.Set("X-Tenant-ID", "clinic_a")
			q := req.URL.Query()
			q.Set("tenant_id", "clinic_b")
			req.URL.RawQuery = q.Encode()
		}, "clinic_a"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tenantContext(t, tc.setup)
			if got := extractTenantID(c, "default"); got != tc.want {
				t.Errorf("extractTenantID = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTenantIDPattern(t *testing.T) {
	valid := []string{"default", "clinic_a", "Tenant9", "a"}
	for _, id := range valid {
		if !tenantIDPattern.MatchString(id) {
			t.Errorf("%q rejected, want accepted", id)
		}
	}

	invalid := []string{"", "clinic-a", "a.b", "a b", "x;DROP SCHEMA", "tenant'"}
	for _, id := range invalid {
		if tenantIDPattern.MatchString(id) {
			t.Errorf("%q accepted, want rejected", id)
		}
	}
}

func TestWithTenant_RejectsInvalidID(t *testing.T) {
	// Validation runs before any pool access, so a nil pool is safe here.
	for _, id := range []string{"", "bad-id", "x;DROP SCHEMA", "a b"} {
		if _, _, err := WithTenant(context.Background(), nil, id); err == nil {
			t.Errorf("WithTenant(%q) accepted an unsafe identifier", id)
		}
	}
}

func TestSchemaFor(t *testing.T) {
	if got := schemaFor("clinic_a"); got != "tenant_clinic_a" {
		t.Errorf("schemaFor = %q, want tenant_clinic_a", got)
	}
}

func TestCreateTenantSchema_RejectsInvalidID(t *testing.T) {
	for _, id := range []string{"", "bad-id", "x;--", "a b"} {
		if err := CreateTenantSchema(context.Background(), nil, id, ""); err == nil {
			t.Errorf("CreateTenantSchema(%q) accepted an unsafe identifier", id)
		}
	}
}

func TestConnFromContext(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Errorf("expected nil conn from empty context, got %v", conn)
	}
}

func TestTenantFromContext(t *testing.T) {
	if tid := TenantFromContext(context.Background()); tid != "" {
		t.Errorf("expected empty tenant from empty context, got %q", tid)
	}

	ctx := context.WithValue(context.Background(), TenantIDKey, "clinic_a")
	if tid := TenantFromContext(ctx); tid != "clinic_a" {
		t.Errorf("tenant = %q, want clinic_a", tid)
	}

	wrong := context.WithValue(context.Background(), TenantIDKey, 7)
	if tid := TenantFromContext(wrong); tid != "" {
		t.Errorf("expected empty tenant for non-string value, got %q", tid)
	}
}
