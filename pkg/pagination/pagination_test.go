package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(t *testing.T, query string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit values", "limit=50&offset=10", 50, 10},
		{"limit capped at max", "limit=500", MaxLimit, 0},
		{"negative offset clamped", "offset=-5", DefaultLimit, 0},
		{"zero limit uses default", "limit=0", DefaultLimit, 0},
		{"non-numeric ignored", "limit=abc&offset=xyz", DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromContext(newContext(t, tt.query))
			if p.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", p.Offset, tt.wantOffset)
			}
		})
	}
}

func TestSQL(t *testing.T) {
	p := Params{Limit: 25, Offset: 50}
	if got := p.SQL(); got != "LIMIT 25 OFFSET 50" {
		t.Errorf("SQL() = %q", got)
	}
}

func TestNavigation(t *testing.T) {
	p := Params{Limit: 20, Offset: 20}

	if !p.HasNext(100) {
		t.Error("expected HasNext with total 100")
	}
	if p.HasNext(40) {
		t.Error("did not expect HasNext with total 40")
	}
	if !p.HasPrevious() {
		t.Error("expected HasPrevious at offset 20")
	}
	if p.NextOffset() != 40 {
		t.Errorf("NextOffset = %d, want 40", p.NextOffset())
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("PreviousOffset = %d, want 0", p.PreviousOffset())
	}

	first := Params{Limit: 20, Offset: 0}
	if first.HasPrevious() {
		t.Error("did not expect HasPrevious at offset 0")
	}
	if first.PreviousOffset() != 0 {
		t.Errorf("PreviousOffset at start = %d, want 0", first.PreviousOffset())
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 10, 2, 0)
	if !resp.HasMore {
		t.Error("expected HasMore")
	}
	last := NewResponse([]string{"a"}, 10, 2, 8)
	if last.HasMore {
		t.Error("did not expect HasMore on last page")
	}
}
