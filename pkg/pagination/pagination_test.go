package pagination

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ctxWithQuery(q string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/mood/history"+q, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p, err := FromContext(ctxWithQuery(""), Journal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 30 || p.Offset != 0 {
		t.Errorf("expected limit 30 offset 0, got %+v", p)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p, err := FromContext(ctxWithQuery("?limit=7&offset=14"), Journal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 7 || p.Offset != 14 {
		t.Errorf("expected limit 7 offset 14, got %+v", p)
	}
}

func TestFromContext_ClampsToMax(t *testing.T) {
	p, _ := FromContext(ctxWithQuery("?limit=1000"), Journal)
	if p.Limit != MaxLimit {
		t.Errorf("expected %d, got %d", MaxLimit, p.Limit)
	}
	p, _ = FromContext(ctxWithQuery("?limit=1000"), Chat)
	if p.Limit != 500 {
		t.Errorf("expected 500, got %d", p.Limit)
	}
}

func TestFromContext_InvalidLimit(t *testing.T) {
	for _, q := range []string{"?limit=abc", "?limit=0", "?limit=-3"} {
		if _, err := FromContext(ctxWithQuery(q), Journal); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("%s: expected ErrInvalidLimit, got %v", q, err)
		}
	}
}

func TestFromContext_NegativeOffsetIgnored(t *testing.T) {
	p, _ := FromContext(ctxWithQuery("?offset=-5"), Inbox)
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]string{"a"}, 120, Params{Limit: 50, Offset: 50})
	if !r.HasMore {
		t.Error("expected has_more")
	}
	r = NewResponse([]string{"a"}, 100, Params{Limit: 50, Offset: 50})
	if r.HasMore {
		t.Error("expected no more pages")
	}
}
