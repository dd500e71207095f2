package archive

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeS3 records PUT requests against path-style URLs.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, _ := io.ReadAll(req.Body)
	if dec, ok := decodeChunked(body); ok {
		body = dec
	}
	f.mu.Lock()
	f.objects[req.URL.Path] = body
	f.types[req.URL.Path] = req.Header.Get("Content-Type")
	f.mu.Unlock()
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
}

// decodeChunked unwraps a single-chunk aws-chunked payload.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	size, err := strconv.ParseInt(strings.SplitN(parts[0], ";", 2)[0], 16, 64)
	if err != nil || int64(len(parts[1])) != size || !strings.HasPrefix(parts[2], "0") {
		return nil, false
	}
	return []byte(parts[1]), true
}

func TestUploadPutsFileBody(t *testing.T) {
	rt := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	u, err := New(context.Background(), Config{
		Bucket:          "ug-runs",
		Prefix:          "runs",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	local := filepath.Join(t.TempDir(), "r1.jsonl.zst")
	payload := []byte("compressed-records")
	if err := os.WriteFile(local, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	key, err := u.Upload(context.Background(), "r1.jsonl.zst", local)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if key != "runs/r1.jsonl.zst" {
		t.Fatalf("key = %q", key)
	}
	got, ok := rt.objects["/ug-runs/runs/r1.jsonl.zst"]
	if !ok {
		t.Fatalf("objects = %v", rt.objects)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("body = %q, want %q", got, payload)
	}
	if ct := rt.types["/ug-runs/runs/r1.jsonl.zst"]; ct != "application/zstd" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestUploadMissingFile(t *testing.T) {
	u, err := New(context.Background(), Config{
		Bucket:          "b",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := u.Upload(context.Background(), "x", filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("upload of missing file succeeded")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("New without bucket succeeded")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("UGSIM_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("OpenFromEnv without bucket succeeded")
	}
}
