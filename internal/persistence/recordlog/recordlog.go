// Package recordlog writes sampling records as zstd-compressed JSON lines,
// one file per run.
package recordlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/ugworld/internal/experiment"
)

// Writer appends records to <dir>/<runID>.jsonl.zst.
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	n   int
}

// Create opens a new record log for runID under dir.
func Create(dir, runID string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl.zst", runID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Path returns the file being written.
func (w *Writer) Path() string { return w.path }

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// WriteRecord appends one record as a JSON line.
func (w *Writer) WriteRecord(rec experiment.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return errors.New("recordlog: write after close")
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.n++
	return w.w.Flush()
}

// Close flushes the compressor and closes the file. Repeat calls are no-ops.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		err = errors.Join(err, w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		err = errors.Join(err, w.f.Close())
		w.f = nil
	}
	return err
}

// ReadAll decodes every record in a record log.
func ReadAll(path string) ([]experiment.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []experiment.Record
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var rec experiment.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}
