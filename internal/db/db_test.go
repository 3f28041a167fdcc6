package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNewAppliesMigrations(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer database.Close()

	conn := database.Conn()
	for _, table := range []string{"media_items", "processing_jobs", "config"} {
		var name string
		err := conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := New(path, nil)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	second.Close()
}

func TestMarkInterruptedJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().Format(time.RFC3339)
	_, err = database.Conn().ExecContext(context.Background(), `
		INSERT INTO processing_jobs (id, media_id, operation, status, progress, created_at, updated_at)
		VALUES ('j1', 'm1', 'trim', 'running', 40, ?, ?),
		       ('j2', 'm1', 'volume', 'pending', 0, ?, ?),
		       ('j3', 'm1', 'trim', 'completed', 100, ?, ?)
	`, now, now, now, now, now, now)
	if err != nil {
		t.Fatal(err)
	}
	database.Close()

	// Restart: pending and running jobs are failed, finished ones untouched.
	database, err = New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	rows, err := database.Conn().Query("SELECT id, status FROM processing_jobs ORDER BY id")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	want := map[string]string{"j1": "failed", "j2": "failed", "j3": "completed"}
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			t.Fatal(err)
		}
		if status != want[id] {
			t.Errorf("job %s status = %q, want %q", id, status, want[id])
		}
	}
}
