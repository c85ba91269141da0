package db

import "testing"

func TestPlannedMonthEmpty(t *testing.T) {
	d := testDB(t)

	month, err := d.PlannedMonth()
	if err != nil {
		t.Fatalf("planned month: %v", err)
	}
	if month != "" {
		t.Errorf("expected no active plan, got %q", month)
	}
}

func TestSetPlannedMonthReplacesActive(t *testing.T) {
	d := testDB(t)

	if err := d.SetPlannedMonth("2024-01"); err != nil {
		t.Fatalf("set planned month: %v", err)
	}
	if err := d.SetPlannedMonth("2024-03"); err != nil {
		t.Fatalf("replace planned month: %v", err)
	}

	month, err := d.PlannedMonth()
	if err != nil {
		t.Fatalf("planned month: %v", err)
	}
	if month != "2024-03" {
		t.Errorf("planned month = %q, want 2024-03", month)
	}

	// At most one active plan row may exist at any time.
	var n int
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM planned_execution WHERE active = 1`).Scan(&n); err != nil {
		t.Fatalf("count active plans: %v", err)
	}
	if n != 1 {
		t.Errorf("active plan rows = %d, want 1", n)
	}
}

func TestConsumePlan(t *testing.T) {
	d := testDB(t)

	if err := d.SetPlannedMonth("2024-03"); err != nil {
		t.Fatalf("set planned month: %v", err)
	}
	if err := d.ConsumePlan(); err != nil {
		t.Fatalf("consume plan: %v", err)
	}

	month, err := d.PlannedMonth()
	if err != nil {
		t.Fatalf("planned month: %v", err)
	}
	if month != "" {
		t.Errorf("expected plan to be consumed, got %q", month)
	}

	// Consuming with no active plan is a no-op.
	if err := d.ConsumePlan(); err != nil {
		t.Fatalf("second consume: %v", err)
	}
}
