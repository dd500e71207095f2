package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/talgya/ugworld/internal/engine"
	"github.com/talgya/ugworld/internal/experiment"
	"github.com/talgya/ugworld/internal/persistence"
)

type fakeRuns struct {
	runs    []persistence.Run
	records map[string][]experiment.Record
	err     error
}

func (f *fakeRuns) ListRuns() ([]persistence.Run, error) { return f.runs, f.err }

func (f *fakeRuns) LoadRecords(id string) ([]experiment.Record, error) {
	return f.records[id], f.err
}

func newTestServer(t *testing.T, runs RunStore) (*Server, *httptest.Server) {
	t.Helper()
	reg := prometheus.NewRegistry()
	engine.NewDiagnostics(reg).Births.Add(3)
	s := NewServer(0, runs, reg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestStatusAndGroups(t *testing.T) {
	s, ts := newTestServer(t, nil)
	s.PublishState(State{
		RunID:      "r1",
		Tick:       42,
		Population: 30,
		Groups: []engine.GroupSummary{
			{ID: 1, X: 2, Y: 3, Size: 10, MeanOffer: 0.5, Color: "green"},
			{ID: 4, X: 5, Y: 5, Size: 20, MeanOffer: 0.2, Color: "yellow"},
		},
	})

	var status map[string]any
	if code := getJSON(t, ts.URL+"/api/v1/status", &status); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if status["tick"].(float64) != 42 || status["groups"].(float64) != 2 || status["run_id"] != "r1" {
		t.Fatalf("status = %v", status)
	}

	var groups []engine.GroupSummary
	getJSON(t, ts.URL+"/api/v1/groups", &groups)
	if len(groups) != 2 || groups[1].Color != "yellow" {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestRecordsLimit(t *testing.T) {
	s, ts := newTestServer(t, nil)
	for tick := uint64(1); tick <= 5; tick++ {
		if err := s.WriteRecord(experiment.Record{Tick: tick}); err != nil {
			t.Fatal(err)
		}
	}

	var recs []experiment.Record
	getJSON(t, ts.URL+"/api/v1/records?limit=2", &recs)
	if len(recs) != 2 || recs[0].Tick != 4 || recs[1].Tick != 5 {
		t.Fatalf("records = %+v", recs)
	}
	if code := getJSON(t, ts.URL+"/api/v1/records?limit=zero", nil); code != http.StatusBadRequest {
		t.Fatalf("bad limit code = %d", code)
	}
}

func TestRunsEndpoints(t *testing.T) {
	store := &fakeRuns{
		runs:    []persistence.Run{{ID: "a", Seed: 1}},
		records: map[string][]experiment.Record{"a": {{RunID: "a", Tick: 100}}},
	}
	_, ts := newTestServer(t, store)

	var runs []persistence.Run
	getJSON(t, ts.URL+"/api/v1/runs", &runs)
	if len(runs) != 1 || runs[0].ID != "a" {
		t.Fatalf("runs = %+v", runs)
	}
	var recs []experiment.Record
	getJSON(t, ts.URL+"/api/v1/runs/a/records", &recs)
	if len(recs) != 1 || recs[0].Tick != 100 {
		t.Fatalf("records = %+v", recs)
	}
	if code := getJSON(t, ts.URL+"/api/v1/runs/zzz/records", nil); code != http.StatusNotFound {
		t.Fatalf("missing run code = %d", code)
	}

	store.err = errors.New("db down")
	if code := getJSON(t, ts.URL+"/api/v1/runs", nil); code != http.StatusInternalServerError {
		t.Fatalf("db error code = %d", code)
	}
}

func TestRunsWithoutDatabase(t *testing.T) {
	_, ts := newTestServer(t, nil)
	if code := getJSON(t, ts.URL+"/api/v1/runs", nil); code != http.StatusNotFound {
		t.Fatalf("code = %d", code)
	}
}

func TestMetricsExposed(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ugworld_births_total 3") {
		t.Fatalf("metrics missing births counter:\n%s", body)
	}
}

func TestStreamDeliversRecords(t *testing.T) {
	s, ts := newTestServer(t, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.WriteRecord(experiment.Record{RunID: "r1", Tick: 500, Groups: 9}); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var rec experiment.Record
	if err := json.Unmarshal(msg, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Tick != 500 || rec.Groups != 9 {
		t.Fatalf("streamed record = %+v", rec)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests denied")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other client denied")
	}
	if got := rl.RetryAfter("1.2.3.4"); got != 61 {
		t.Fatalf("retry after = %d, want 61", got)
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("request denied after window reset")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Fatalf("clientIP = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	if got := clientIP(r); got != "9.9.9.9" {
		t.Fatalf("clientIP with XFF = %q", got)
	}
}
