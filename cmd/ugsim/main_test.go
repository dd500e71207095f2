package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDBDirCreatesParent(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "nested", "runs", "ugworld.db")
	if err := ensureDBDir(dsn); err != nil {
		t.Fatalf("ensureDBDir: %v", err)
	}
	if fi, err := os.Stat(filepath.Join(dir, "nested", "runs")); err != nil || !fi.IsDir() {
		t.Fatalf("parent dir not created: %v", err)
	}
}

func TestEnsureDBDirReportsError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ensureDBDir(filepath.Join(blocker, "ugworld.db")); err == nil {
		t.Fatal("expected error when parent is a file")
	}
}

func TestEnsureDBDirSkipsServerDSN(t *testing.T) {
	if err := ensureDBDir("postgres://user@localhost/ugworld"); err != nil {
		t.Fatalf("ensureDBDir: %v", err)
	}
	if _, err := os.Stat("postgres:"); err == nil {
		t.Fatal("created a directory for a server DSN")
	}
}

func TestEnvIntOrDefault(t *testing.T) {
	t.Setenv("UGSIM_TEST_INT", "17")
	if got := envIntOrDefault("UGSIM_TEST_INT", 3); got != 17 {
		t.Fatalf("got %d", got)
	}
	t.Setenv("UGSIM_TEST_INT", "x")
	if got := envIntOrDefault("UGSIM_TEST_INT", 3); got != 3 {
		t.Fatalf("bad value: got %d", got)
	}
}
