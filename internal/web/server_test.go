package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/signal-controller/internal/logic"
	"github.com/sweeney/signal-controller/internal/status"
)

func testTracker() *status.Tracker {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{
		TickMs:   50,
		StaleMs:  15000,
		Broker:   "tcp://broker:1883",
		HTTPPort: ":80",
	})
	tr.Update(
		logic.PhaseNSGreen,
		logic.Outputs{NS: logic.AspectGo, EW: logic.AspectStop},
		logic.DefaultCycle,
		false,
		start,
		logic.EventCounts{Advances: 7},
	)
	return tr
}

func TestHandleIndex(t *testing.T) {
	s := New(":0", testTracker())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type: %s", ct)
	}
	for _, want := range []string{"NS_GREEN", "North/South", "East/West", "GO", "tcp://broker:1883"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHandleIndexNotFound(t *testing.T) {
	s := New(":0", testTracker())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleJSON(t *testing.T) {
	s := New(":0", testTracker())

	req := httptest.NewRequest(http.MethodGet, "/index.json", nil)
	rec := httptest.NewRecorder()
	s.handleJSON(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type: %s", ct)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Phase != "NS_GREEN" {
		t.Errorf("unexpected phase: %s", parsed.Status.Phase)
	}
	if parsed.Status.Counts.Advances != 7 {
		t.Errorf("unexpected counts: %+v", parsed.Status.Counts)
	}
}

func TestRenderHTMLStale(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{StaleMs: 1})
	// LastUpdate is seeded to start, long before Snapshot's Now.
	snap := tr.Snapshot()

	var sb strings.Builder
	renderHTML(&sb, snap)
	if !strings.Contains(sb.String(), "STALE") {
		t.Error("expected stale marker in HTML")
	}
}
