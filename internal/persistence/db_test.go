package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/talgya/ugworld/internal/config"
	"github.com/talgya/ugworld/internal/experiment"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ug.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	p := config.Default()
	p.Seed = 77

	run, err := db.CreateRun(p)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.ID == "" {
		t.Fatal("empty run id")
	}
	if err := db.FinishRun(run.ID, 1234); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Seed != 77 || got.FinalTick != 1234 {
		t.Fatalf("run = %+v", got)
	}
	var stored config.Params
	if err := yaml.Unmarshal([]byte(got.Params), &stored); err != nil {
		t.Fatalf("params snapshot: %v", err)
	}
	if stored.Seed != 77 || stored.GridWidth != p.GridWidth {
		t.Fatalf("params snapshot = %+v", stored)
	}

	runs, err := db.ListRuns()
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	for _, tick := range []uint64{200, 100, 300} {
		rec := experiment.Record{
			RunID:      "r1",
			Tick:       tick,
			Population: int(tick),
			Groups:     3,
			OfferNow:   0.45,
			OfferFreq:  []float64{0.25, 0.75},
		}
		if err := db.WriteRecord(rec); err != nil {
			t.Fatalf("WriteRecord(%d): %v", tick, err)
		}
	}
	// Rewriting a tick replaces it.
	if err := db.WriteRecord(experiment.Record{RunID: "r1", Tick: 100, Population: 99}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if err := db.WriteRecord(experiment.Record{RunID: "other", Tick: 100}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	recs, err := db.LoadRecords("r1")
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	for i, want := range []uint64{100, 200, 300} {
		if recs[i].Tick != want {
			t.Fatalf("record %d tick = %d, want %d", i, recs[i].Tick, want)
		}
	}
	if recs[0].Population != 99 {
		t.Fatalf("replaced record population = %d", recs[0].Population)
	}
	if recs[1].OfferNow != 0.45 || len(recs[1].OfferFreq) != 2 {
		t.Fatalf("record body = %+v", recs[1])
	}
}

func TestMetaUpsert(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("last_run", "a"); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	if err := db.SaveMeta("last_run", "b"); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	v, err := db.GetMeta("last_run")
	if err != nil || v != "b" {
		t.Fatalf("GetMeta = %q, %v", v, err)
	}
	if _, err := db.GetMeta("missing"); err == nil {
		t.Fatal("GetMeta(missing) succeeded")
	}
}

func TestSQLiteSourceKeepsQuery(t *testing.T) {
	const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	cases := []struct{ dsn, want string }{
		{"data/ug.db", "data/ug.db?" + pragmas},
		{"data/ug.db?_pragma=foreign_keys(1)", "data/ug.db?_pragma=foreign_keys(1)&" + pragmas},
	}
	for _, c := range cases {
		if got := sqliteSource(c.dsn); got != c.want {
			t.Fatalf("sqliteSource(%q) = %q, want %q", c.dsn, got, c.want)
		}
	}
}

func TestOpenPathWithQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ug.db")
	db, err := Open(path + "?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if _, err := db.CreateRun(config.Default()); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not at %s: %v", path, err)
	}
}
