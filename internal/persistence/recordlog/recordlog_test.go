package recordlog

import (
	"testing"

	"github.com/talgya/ugworld/internal/experiment"
)

func TestWriteReadAll(t *testing.T) {
	w, err := Create(t.TempDir(), "run-a")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for tick := uint64(10); tick <= 50; tick += 10 {
		rec := experiment.Record{RunID: "run-a", Tick: tick, Groups: int(tick / 10), ClusterFreq: []float64{1, 0}}
		if err := w.WriteRecord(rec); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}
	if w.Count() != 5 {
		t.Fatalf("count = %d", w.Count())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.WriteRecord(experiment.Record{}); err == nil {
		t.Fatal("write after close succeeded")
	}

	recs, err := ReadAll(w.Path())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("records = %d, want 5", len(recs))
	}
	if recs[4].Tick != 50 || recs[4].Groups != 5 || recs[4].ClusterFreq[0] != 1 {
		t.Fatalf("last record = %+v", recs[4])
	}
}
