package db

import (
	"strings"
	"testing"
)

func TestUpsertBatchIdempotent(t *testing.T) {
	d := testDB(t)

	if err := d.UpsertBatch("2024-03", "000"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := d.SetBatchStatus("2024-03", "200"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	// A second upsert for the same month must not duplicate the row or
	// reset its status.
	if err := d.UpsertBatch("2024-03", "000"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	batches, err := d.ListBatches()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if batches[0].StatusCode != "200" {
		t.Errorf("status = %s, want 200 (upsert must not reset it)", batches[0].StatusCode)
	}
}

func TestUpsertBatchUnknownStatus(t *testing.T) {
	d := testDB(t)

	err := d.UpsertBatch("2024-03", "777")
	if err == nil {
		t.Fatal("expected error for unknown status code")
	}
	if !strings.Contains(err.Error(), "777") {
		t.Errorf("error should name the bad code, got: %v", err)
	}
}

func TestSetBatchStatus(t *testing.T) {
	d := testDB(t)

	if err := d.UpsertBatch("2024-03", "000"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := d.SetBatchStatus("2024-03", "100"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	b, err := d.GetBatch("2024-03")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.StatusCode != "100" {
		t.Errorf("status = %s, want 100", b.StatusCode)
	}

	if err := d.SetBatchStatus("2024-03", "999"); err == nil {
		t.Error("expected error for unknown target code")
	}
	if err := d.SetBatchStatus("2019-01", "100"); err == nil {
		t.Error("expected error for missing batch")
	}
}

func TestGetBatchMissing(t *testing.T) {
	d := testDB(t)

	b, err := d.GetBatch("2024-03")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b != nil {
		t.Errorf("expected nil batch, got %+v", b)
	}
}

func TestListBatchesOrder(t *testing.T) {
	d := testDB(t)

	for _, m := range []string{"2024-01", "2024-03", "2023-12"} {
		if err := d.UpsertBatch(m, "000"); err != nil {
			t.Fatalf("upsert %s: %v", m, err)
		}
	}

	batches, err := d.ListBatches()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2024-03", "2024-01", "2023-12"}
	if len(batches) != len(want) {
		t.Fatalf("got %d batches, want %d", len(batches), len(want))
	}
	for i, m := range want {
		if batches[i].Month != m {
			t.Errorf("batches[%d].Month = %s, want %s", i, batches[i].Month, m)
		}
	}
}

func TestBatchesInErrorState(t *testing.T) {
	d := testDB(t)

	months := map[string]string{
		"2024-01": "100E",
		"2024-02": "200",
		"2024-03": "200E",
	}
	for m := range months {
		if err := d.UpsertBatch(m, "000"); err != nil {
			t.Fatalf("upsert %s: %v", m, err)
		}
	}
	for m, code := range months {
		if err := d.SetBatchStatus(m, code); err != nil {
			t.Fatalf("set status %s: %v", m, err)
		}
	}

	errored, err := d.BatchesInErrorState()
	if err != nil {
		t.Fatalf("errors: %v", err)
	}
	if len(errored) != 2 {
		t.Fatalf("got %d errored batches, want 2", len(errored))
	}
	// Newest month first.
	if errored[0].Month != "2024-03" || errored[1].Month != "2024-01" {
		t.Errorf("got months %s, %s; want 2024-03, 2024-01", errored[0].Month, errored[1].Month)
	}
}

func TestBatchCounters(t *testing.T) {
	d := testDB(t)

	if err := d.UpsertBatch("2024-03", "000"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := d.SetAssetsCount("2024-03", 42); err != nil {
		t.Fatalf("set assets count: %v", err)
	}
	if err := d.SetLatestImport("2024-03", "import-7"); err != nil {
		t.Fatalf("set latest import: %v", err)
	}

	b, err := d.GetBatch("2024-03")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.AssetsCount != 42 {
		t.Errorf("assets count = %d, want 42", b.AssetsCount)
	}
	if b.LatestImportID != "import-7" {
		t.Errorf("latest import = %s, want import-7", b.LatestImportID)
	}
}
