package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/", DefaultLimit, 0},
		{"explicit", "/?limit=50&offset=10", 50, 10},
		{"capped at max", "/?limit=500", MaxLimit, 0},
		{"negative offset", "/?offset=-5", DefaultLimit, 0},
		{"zero limit falls back", "/?limit=0", DefaultLimit, 0},
		{"garbage ignored", "/?limit=abc&offset=xyz", DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.target)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d",
					p.Limit, p.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	r := NewResponse(nil, 100, 20, 0)
	if !r.HasMore {
		t.Error("expected HasMore with 100 total and first page of 20")
	}

	r = NewResponse(nil, 15, 20, 0)
	if r.HasMore {
		t.Error("expected no more pages with 15 total and limit 20")
	}

	r = NewResponse(nil, 40, 20, 20)
	if r.HasMore {
		t.Error("offset 20 + limit 20 covers 40 total, expected no more pages")
	}
}

func TestParams_NextOffset(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if p.NextOffset() != 60 {
		t.Errorf("expected 60, got %d", p.NextOffset())
	}
	if !p.HasNext(100) {
		t.Error("expected a next page with 100 total")
	}
	if p.HasNext(60) {
		t.Error("expected no next page with 60 total")
	}
}
