package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func randomOrgServer(t *testing.T, handler func(w http.ResponseWriter, params map[string]any)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req struct {
			Method string         `json:"method"`
			Params map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "generateIntegers" {
			t.Errorf("method = %q", req.Method)
		}
		handler(w, req.Params)
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func testClient(url string) *Client {
	c := NewClient("key")
	c.endpoint = url
	return c
}

func TestClientSeedCombinesDraws(t *testing.T) {
	ts, calls := randomOrgServer(t, func(w http.ResponseWriter, params map[string]any) {
		if params["apiKey"] != "key" {
			t.Errorf("apiKey = %v", params["apiKey"])
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[2,5,7,11]}},"id":1}`))
	})
	c := testClient(ts.URL)

	if got, want := c.Seed(), int64(2*1_000_000_000+5); got != want {
		t.Fatalf("first seed = %d, want %d", got, want)
	}
	if got, want := c.Seed(), int64(7*1_000_000_000+11); got != want {
		t.Fatalf("second seed = %d, want %d", got, want)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Fatalf("requests = %d, want 1 (pooled)", n)
	}
}

func TestClientSeedFallsBackOnAPIError(t *testing.T) {
	ts, _ := randomOrgServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"message":"quota exceeded"},"id":1}`))
	})
	if seed := testClient(ts.URL).Seed(); seed == 0 {
		t.Fatal("fallback seed is zero")
	}
}

func TestClientSeedFallsBackOnBadStatus(t *testing.T) {
	ts, _ := randomOrgServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if seed := testClient(ts.URL).Seed(); seed == 0 {
		t.Fatal("fallback seed is zero")
	}
}

func TestSeedFromSourceWithoutKey(t *testing.T) {
	c := NewClient("")
	if c != nil || c.Enabled() {
		t.Fatal("client without key should be nil and disabled")
	}
	if SeedFromSource(c) == 0 {
		t.Fatal("seed is zero")
	}
}

func TestSeedFromSourceUsesClient(t *testing.T) {
	ts, _ := randomOrgServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.Write([]byte(`{"result":{"random":{"data":[0,42]}}}`))
	})
	if got := SeedFromSource(testClient(ts.URL)); got != 42 {
		t.Fatalf("seed = %d, want 42", got)
	}
}
