package logic

import (
	"math"
	"testing"
	"time"

	"github.com/qx/ledger_robot/api/internal/types"
)

func TestStatisticsLedger_AggregateEmpty(t *testing.T) {
	env := newTestEnv(t)

	agg, err := env.ledger().Aggregate(-100, env.clock.Now())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.FullSum != 0 || agg.ToPaySum != 0 || agg.PaidSum != 0 {
		t.Errorf("expected zero sums, got %+v", agg)
	}
	if agg.LineItems == nil || len(agg.LineItems) != 0 {
		t.Errorf("expected empty line items, got %#v", agg.LineItems)
	}
	if !agg.Date.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want start of day", agg.Date)
	}
}

func TestStatisticsLedger_AddEntry(t *testing.T) {
	env := newTestEnv(t)
	ledger := env.ledger()

	entry, err := ledger.AddEntry(-100, 1, 100, 10)
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if entry.CalcSum != 90 {
		t.Errorf("CalcSum = %v, want 90", entry.CalcSum)
	}
	if entry.EntryId == "" {
		t.Error("Expected EntryId to be generated")
	}
	if entry.Course.Valid || entry.IsPaid {
		t.Error("new entry should be unpriced and unpaid")
	}

	agg, err := ledger.Aggregate(-100, env.clock.Now())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.FullSum != 100 {
		t.Errorf("FullSum = %v, want 100", agg.FullSum)
	}
}

func TestStatisticsLedger_AggregateTwoEntries(t *testing.T) {
	env := newTestEnv(t)
	ledger := env.ledger()

	for _, e := range []struct{ amount, percentage float64 }{{100, 10}, {50, 20}} {
		env.clock.Advance(time.Minute)
		if _, err := ledger.AddEntry(-100, int64(e.amount), e.amount, e.percentage); err != nil {
			t.Fatalf("AddEntry failed: %v", err)
		}
	}
	// another group and another day stay out of the aggregate
	if _, err := ledger.AddEntry(-200, 1, 70, 0); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	env.clock.Advance(24 * time.Hour)
	if _, err := ledger.AddEntry(-100, 2, 70, 0); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	agg, err := ledger.Aggregate(-100, env.clock.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.FullSum != 150 {
		t.Errorf("FullSum = %v, want 150", agg.FullSum)
	}

	want := []string{"100-10 = 90", "50-20 = 40"}
	if len(agg.LineItems) != len(want) {
		t.Fatalf("got %d line items, want %d", len(agg.LineItems), len(want))
	}
	for i, item := range agg.LineItems {
		if item.String() != want[i] {
			t.Errorf("line %d = %q, want %q", i, item.String(), want[i])
		}
	}
}

// Partial sums are rounded after every entry: three 0.005 entries total
// 0.03, not round2(0.015) = 0.02.
func TestStatisticsLedger_AggregateCascadingRounding(t *testing.T) {
	env := newTestEnv(t)
	ledger := env.ledger()

	for i := int64(1); i <= 3; i++ {
		if _, err := ledger.AddEntry(-100, i, 0.005, 0); err != nil {
			t.Fatalf("AddEntry failed: %v", err)
		}
	}

	agg, err := ledger.Aggregate(-100, env.clock.Now())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.FullSum != 0.03 {
		t.Errorf("FullSum = %v, want 0.03", agg.FullSum)
	}
}

func TestStatisticsLedger_RemoveEntry(t *testing.T) {
	env := newTestEnv(t)
	ledger := env.ledger()

	if _, err := ledger.AddEntry(-100, 1, 100, 10); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	t.Run("unknown reference fails and leaves the ledger", func(t *testing.T) {
		_, err := ledger.RemoveEntry(-100, 999)
		assertErrorIs(t, err, types.ErrNotFound)

		agg, err := ledger.Aggregate(-100, env.clock.Now())
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		if len(agg.LineItems) != 1 || agg.FullSum != 100 {
			t.Errorf("ledger changed: %+v", agg)
		}
	})

	t.Run("reference of another group is not found", func(t *testing.T) {
		_, err := ledger.RemoveEntry(-200, 1)
		assertErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("removes the replied entry", func(t *testing.T) {
		removed, err := ledger.RemoveEntry(-100, 1)
		if err != nil {
			t.Fatalf("RemoveEntry failed: %v", err)
		}
		if removed.Sum != 100 {
			t.Errorf("removed %+v", removed)
		}

		agg, err := ledger.Aggregate(-100, env.clock.Now())
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		if len(agg.LineItems) != 0 || agg.FullSum != 0 {
			t.Errorf("entry still aggregated: %+v", agg)
		}
	})
}

func TestStatisticsLedger_CourseAndSettlement(t *testing.T) {
	env := newTestEnv(t)
	ledger := env.ledger()

	if _, err := ledger.AddEntry(-100, 1, 100, 10); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if _, err := ledger.AddEntry(-100, 2, 50, 20); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if _, err := ledger.AddEntry(-200, 1, 30, 0); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	if _, err := ledger.SetCourse(-100, 3, 90); err == nil {
		t.Fatal("expected error for unknown entry")
	}

	updated, err := ledger.SetCourse(-100, 1, 90)
	if err != nil {
		t.Fatalf("SetCourse failed: %v", err)
	}
	if len(updated) != 1 || updated[0].IsPaid {
		t.Fatalf("SetCourse must not settle: %+v", updated)
	}
	if _, err := ledger.SetCourse(-200, 1, 3); err != nil {
		t.Fatalf("SetCourse failed: %v", err)
	}

	agg, err := ledger.Aggregate(-100, env.clock.Now())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.ToPaySum != 1 || agg.PaidSum != 0 {
		t.Fatalf("before settlement: to pay %v, paid %v", agg.ToPaySum, agg.PaidSum)
	}

	settled, err := ledger.SettleAllPriced()
	if err != nil {
		t.Fatalf("SettleAllPriced failed: %v", err)
	}
	if len(settled) != 2 {
		t.Fatalf("settled %d entries, want 2 across both groups", len(settled))
	}

	agg, err = ledger.Aggregate(-100, env.clock.Now())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.ToPaySum != 0 || agg.PaidSum != 1 || agg.FullSum != 150 {
		t.Fatalf("after settlement: %+v", agg)
	}

	entries, err := env.svcCtx.StatisticsModel.FindByGroup(env.ctx, -100)
	if err != nil {
		t.Fatalf("FindByGroup failed: %v", err)
	}
	for _, e := range entries {
		if e.IsPaid && !e.Course.Valid {
			t.Errorf("entry paid without course: %+v", e)
		}
	}
	if entries[0].Sum != 100 || entries[0].Percentage != 10 || entries[0].CalcSum != 90 {
		t.Errorf("settlement changed amounts: %+v", entries[0])
	}
	if entries[1].IsPaid {
		t.Errorf("unpriced entry settled: %+v", entries[1])
	}
}

func TestStatisticsLedger_Totals(t *testing.T) {
	env := newTestEnv(t)
	ledger := env.ledger()

	if _, err := ledger.AddEntry(-100, 1, 100, 10); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	env.clock.Advance(48 * time.Hour)
	if _, err := ledger.AddEntry(-100, 2, 50, 20); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	agg, err := ledger.Totals(-100)
	if err != nil {
		t.Fatalf("Totals failed: %v", err)
	}
	if agg.FullSum != 150 || len(agg.LineItems) != 2 {
		t.Errorf("Totals = %+v", agg)
	}
}

func TestStatisticsLedger_OverflowDoesNotBreakAggregate(t *testing.T) {
	env := newTestEnv(t)
	ledger := env.ledger()

	for i := int64(1); i <= 2; i++ {
		if _, err := ledger.AddEntry(-100, i, 1e308, 0); err != nil {
			t.Fatalf("AddEntry failed: %v", err)
		}
	}
	if _, err := ledger.AddEntry(-100, 3, 1000, 10); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if _, err := env.svcCtx.StatisticsModel.UpdateCourseByMessage(env.ctx, -100, 3, 1e-306); err != nil {
		t.Fatalf("UpdateCourseByMessage failed: %v", err)
	}

	agg, err := ledger.Aggregate(-100, env.clock.Now())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !math.IsInf(agg.FullSum, 1) || !math.IsInf(agg.ToPaySum, 1) {
		t.Errorf("expected overflowing sums, got %+v", agg)
	}
	if len(agg.LineItems) != 3 {
		t.Errorf("expected 3 line items, got %d", len(agg.LineItems))
	}

	if _, err := ledger.Totals(-100); err != nil {
		t.Fatalf("Totals failed: %v", err)
	}
}
