// Command ugexport writes the sampling records of a run as CSV.
//
// Records come from the run database (-db, -run) or from a compressed
// record log (-log). With -list it prints the stored runs instead.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/talgya/ugworld/internal/experiment"
	"github.com/talgya/ugworld/internal/persistence"
	"github.com/talgya/ugworld/internal/persistence/recordlog"
)

func main() {
	dbPath := flag.String("db", envOrDefault("UGSIM_DB", "data/ugworld.db"), "run database (path or postgres:// DSN)")
	runID := flag.String("run", "", "run id; defaults to the last run")
	logPath := flag.String("log", "", "read records from a .jsonl.zst record log instead of the database")
	list := flag.Bool("list", false, "list stored runs")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(*dbPath, *runID, *logPath, *list, os.Stdout); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(dbPath, runID, logPath string, list bool, out io.Writer) error {
	if logPath != "" {
		recs, err := recordlog.ReadAll(logPath)
		if err != nil {
			return fmt.Errorf("read record log: %w", err)
		}
		return writeCSV(out, recs)
	}

	db, err := persistence.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if list {
		runs, err := db.ListRuns()
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s\tseed=%d\tstarted=%s\tticks=%s\n",
				r.ID, r.Seed, r.StartedAt, humanize.Comma(r.FinalTick))
		}
		return nil
	}

	if runID == "" {
		if runID, err = db.GetMeta("last_run"); err != nil {
			return fmt.Errorf("no -run given and no last run recorded: %w", err)
		}
	}
	recs, err := db.LoadRecords(runID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("run %s has no records", runID)
	}
	slog.Info("exporting", "run", runID, "records", len(recs))
	return writeCSV(out, recs)
}

// writeCSV writes one header row and one row per record.
func writeCSV(out io.Writer, recs []experiment.Record) error {
	w := csv.NewWriter(out)
	if len(recs) > 0 {
		header := append([]string{"run_id", "tick", "population"}, recs[0].Columns()...)
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, rec := range recs {
		row := []string{rec.RunID, strconv.FormatUint(rec.Tick, 10), strconv.Itoa(rec.Population)}
		for _, v := range rec.Values() {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
