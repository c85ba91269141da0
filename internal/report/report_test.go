package report

import (
	"testing"

	"media-organizer/internal/db"
)

func testStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertExecution(t *testing.T, store *db.DB, session, label, status, ts string) {
	t.Helper()
	_, err := store.Conn().Exec(
		`INSERT INTO pipeline_executions (session_id, label, status, executed_at_utc)
		 VALUES (?, ?, ?, ?)`,
		session, label, status, ts,
	)
	if err != nil {
		t.Fatalf("insert execution: %v", err)
	}
}

func TestStepDurations(t *testing.T) {
	store := testStore(t)

	// One session: bootstrap at 10:00, export done at 10:10, upload at 10:40.
	insertExecution(t, store, "s1", "0.1 storage status", "success", "2024-03-01 10:00:00")
	insertExecution(t, store, "s1", "200 exported", "success", "2024-03-01 10:10:00")
	insertExecution(t, store, "s1", "400 uploaded", "success", "2024-03-01 10:40:00")
	// A second session's export, 20 minutes after its predecessor.
	insertExecution(t, store, "s2", "0.1 storage status", "success", "2024-04-01 09:00:00")
	insertExecution(t, store, "s2", "200 exported", "success", "2024-04-01 09:20:00")
	// Failed records never contribute durations.
	insertExecution(t, store, "s2", "400 uploaded", "failed", "2024-04-01 09:50:00")

	stats, err := StepDurations(store, "")
	if err != nil {
		t.Fatalf("step durations: %v", err)
	}

	byLabel := make(map[string]StepDuration)
	for _, s := range stats {
		byLabel[s.Label] = s
	}

	export, ok := byLabel["200 exported"]
	if !ok {
		t.Fatal("missing export stats")
	}
	if export.Count != 2 {
		t.Errorf("export count = %d, want 2", export.Count)
	}
	if export.Avg != 15.0 {
		t.Errorf("export avg = %v, want 15.0", export.Avg)
	}

	upload, ok := byLabel["400 uploaded"]
	if !ok {
		t.Fatal("missing upload stats")
	}
	if upload.Count != 1 || upload.Avg != 30.0 {
		t.Errorf("upload stats = %+v, want count 1 avg 30.0", upload)
	}

	// The first record of a session has no predecessor and is skipped.
	if first, ok := byLabel["0.1 storage status"]; ok {
		t.Errorf("session-opening step should have no durations, got %+v", first)
	}
}

func TestStepDurationsSince(t *testing.T) {
	store := testStore(t)

	insertExecution(t, store, "s1", "0.1 storage status", "success", "2024-03-01 10:00:00")
	insertExecution(t, store, "s1", "200 exported", "success", "2024-03-01 10:10:00")
	insertExecution(t, store, "s2", "0.1 storage status", "success", "2024-04-01 09:00:00")
	insertExecution(t, store, "s2", "200 exported", "success", "2024-04-01 09:20:00")

	stats, err := StepDurations(store, "2024-04-01 00:00:00")
	if err != nil {
		t.Fatalf("step durations: %v", err)
	}
	for _, s := range stats {
		if s.Label == "200 exported" {
			if s.Count != 1 || s.Avg != 20.0 {
				t.Errorf("windowed stats = %+v, want count 1 avg 20.0", s)
			}
			return
		}
	}
	t.Fatal("missing export stats")
}

func TestBatchesByStatus(t *testing.T) {
	store := testStore(t)

	for _, m := range []string{"2024-01", "2024-02"} {
		if err := store.UpsertBatch(m, "000"); err != nil {
			t.Fatalf("seed %s: %v", m, err)
		}
	}
	if err := store.UpsertBatch("2024-03", "000"); err != nil {
		t.Fatalf("seed 2024-03: %v", err)
	}
	if err := store.SetBatchStatus("2024-03", "400"); err != nil {
		t.Fatalf("advance: %v", err)
	}

	counts, err := BatchesByStatus(store)
	if err != nil {
		t.Fatalf("batches by status: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(counts), counts)
	}
	if counts[0].Code != "000" || counts[0].Count != 2 || counts[0].Label != "added" {
		t.Errorf("counts[0] = %+v, want 000/added x2", counts[0])
	}
	if counts[1].Code != "400" || counts[1].Count != 1 {
		t.Errorf("counts[1] = %+v, want 400 x1", counts[1])
	}
}

func TestOutcomes(t *testing.T) {
	store := testStore(t)

	insertExecution(t, store, "s1", "a", "success", "2024-03-01 10:00:00")
	insertExecution(t, store, "s1", "b", "success", "2024-03-01 10:05:00")
	insertExecution(t, store, "s1", "c", "failed", "2024-03-01 10:10:00")
	insertExecution(t, store, "s2", "a", "dry-run", "2024-04-01 10:00:00")

	counts, err := Outcomes(store, "")
	if err != nil {
		t.Fatalf("outcomes: %v", err)
	}
	want := map[string]int{"dry-run": 1, "failed": 1, "success": 2}
	if len(counts) != len(want) {
		t.Fatalf("got %d rows, want %d", len(counts), len(want))
	}
	for _, c := range counts {
		if want[c.Status] != c.Count {
			t.Errorf("%s = %d, want %d", c.Status, c.Count, want[c.Status])
		}
	}

	counts, err = Outcomes(store, "2024-04-01 00:00:00")
	if err != nil {
		t.Fatalf("windowed outcomes: %v", err)
	}
	if len(counts) != 1 || counts[0].Status != "dry-run" {
		t.Errorf("windowed = %+v, want one dry-run row", counts)
	}
}
