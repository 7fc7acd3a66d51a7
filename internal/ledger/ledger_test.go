// internal/ledger/ledger_test.go
package ledger

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"mcp-calorie-ledger/internal/models"
	"mcp-calorie-ledger/internal/storage"
)

// fixedComputer returns a canned delta for any text, standing in for the
// parser + lookup pipeline.
type fixedComputer struct {
	delta   models.MacroRecord
	skipped []string
}

func (f *fixedComputer) Compute(ctx context.Context, text string) (models.MacroRecord, []string) {
	return f.delta, f.skipped
}

func newTestLedger(t *testing.T, calc MacroComputer) *Ledger {
	t.Helper()
	l := New(storage.NewMemoryStore(), calc, time.UTC)
	l.now = func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return l
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func TestAddFromZero(t *testing.T) {
	l := newTestLedger(t, nil)
	delta := models.MacroRecord{Kcal: 250, Protein: 10, Fat: 5, Carbs: 30}

	res, err := l.Add(context.Background(), delta, "200 g chicken")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if res.Status != StatusOK {
		t.Fatalf("status = %q, want ok", res.Status)
	}
	if res.Date != "user:nutrition:2024-03-15" {
		t.Fatalf("date = %q", res.Date)
	}
	if *res.Totals != delta {
		t.Fatalf("totals = %+v, want %+v", *res.Totals, delta)
	}
	if len(res.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(res.History))
	}
	entry := res.History[0]
	if entry.Text != "200 g chicken" || entry.Kcal != 250 || entry.Protein != 10 ||
		entry.Fat != 5 || entry.Carbs != 30 {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
	if entry.ID == "" {
		t.Fatal("history entry has empty id")
	}
}

func TestAddAccumulatesAndRounds(t *testing.T) {
	l := newTestLedger(t, nil)
	ctx := context.Background()

	if _, err := l.Add(ctx, models.MacroRecord{Kcal: 100.123, Protein: 1.111, Fat: 0.555, Carbs: 2.004}, "a"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	res, err := l.Add(ctx, models.MacroRecord{Kcal: 50.001, Protein: 1, Fat: 0.5, Carbs: 1}, "b")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if !almostEqual(res.Totals.Kcal, 150.12) || !almostEqual(res.Totals.Protein, 2.11) ||
		!almostEqual(res.Totals.Fat, 1.06) || !almostEqual(res.Totals.Carbs, 3.0) {
		t.Fatalf("totals = %+v", *res.Totals)
	}
}

func TestAddClampsAtZero(t *testing.T) {
	l := newTestLedger(t, nil)
	ctx := context.Background()

	if _, err := l.Add(ctx, models.MacroRecord{Kcal: 100, Protein: 5, Fat: 2, Carbs: 10}, "small meal"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Over-removal is absorbed, not propagated as negative totals.
	res, err := l.Add(ctx, models.MacroRecord{Kcal: -500, Protein: -50, Fat: -20, Carbs: -100}, "huge removal")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !res.Totals.IsZero() {
		t.Fatalf("totals = %+v, want all zero", *res.Totals)
	}
}

func TestAddSkipsHistoryForNonPositiveKcal(t *testing.T) {
	l := newTestLedger(t, nil)
	ctx := context.Background()

	if _, err := l.Add(ctx, models.MacroRecord{Kcal: -10, Protein: 1, Fat: 1, Carbs: 1}, "negative"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	res, err := l.Add(ctx, models.MacroRecord{Protein: 1}, "zero kcal")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(res.History) != 0 {
		t.Fatalf("history = %+v, want empty", res.History)
	}
}

func TestAddSkipsHistoryForEmptyText(t *testing.T) {
	l := newTestLedger(t, nil)

	res, err := l.Add(context.Background(), models.MacroRecord{Kcal: 100}, "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(res.History) != 0 {
		t.Fatalf("history = %+v, want empty", res.History)
	}
}

func TestRemoveNeverAppendsHistory(t *testing.T) {
	calc := &fixedComputer{delta: models.MacroRecord{Kcal: 77, Protein: 2, Fat: 0.1, Carbs: 17}}
	l := newTestLedger(t, calc)
	ctx := context.Background()

	if _, err := l.Add(ctx, models.MacroRecord{Kcal: 500, Protein: 20, Fat: 10, Carbs: 50}, "lunch"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := l.Remove(ctx, "100 g potatoes")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(res.History) != 1 {
		t.Fatalf("history length = %d, want 1 (unchanged by remove)", len(res.History))
	}
	if !almostEqual(res.Totals.Kcal, 423) {
		t.Fatalf("kcal = %v, want 423", res.Totals.Kcal)
	}
}

func TestAddThenRemoveRoundTrips(t *testing.T) {
	delta := models.MacroRecord{Kcal: 250.37, Protein: 10.12, Fat: 5.55, Carbs: 30.09}
	calc := &fixedComputer{delta: delta}
	l := newTestLedger(t, calc)
	ctx := context.Background()

	base := models.MacroRecord{Kcal: 1000, Protein: 40, Fat: 30, Carbs: 120}
	if _, err := l.Add(ctx, base, "breakfast"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := l.Add(ctx, delta, "snack"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := l.Remove(ctx, "snack")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if !almostEqual(res.Totals.Kcal, base.Kcal) || !almostEqual(res.Totals.Protein, base.Protein) ||
		!almostEqual(res.Totals.Fat, base.Fat) || !almostEqual(res.Totals.Carbs, base.Carbs) {
		t.Fatalf("totals after round trip = %+v, want ~%+v", *res.Totals, base)
	}
}

func TestRemovePropagatesSkipped(t *testing.T) {
	calc := &fixedComputer{skipped: []string{"unobtainium"}}
	l := newTestLedger(t, calc)

	res, err := l.Remove(context.Background(), "100 g unobtainium")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "unobtainium" {
		t.Fatalf("skipped = %v", res.Skipped)
	}
	if !res.Totals.IsZero() {
		t.Fatalf("totals = %+v, want zero", *res.Totals)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	l := newTestLedger(t, nil)
	ctx := context.Background()

	if _, err := l.Add(ctx, models.MacroRecord{Kcal: 300, Protein: 12, Fat: 8, Carbs: 40}, "meal"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	for i := 0; i < 2; i++ {
		res, err := l.Reset(ctx)
		if err != nil {
			t.Fatalf("Reset: %v", err)
		}
		if res.Status != StatusReset || !res.Totals.IsZero() || len(res.History) != 0 {
			t.Fatalf("reset result = %+v", res)
		}
	}

	q, err := l.Query(ctx, "today")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if q.Status != StatusOK || !q.Totals.IsZero() || len(q.History) != 0 {
		t.Fatalf("query after reset = %+v", q)
	}
}

func TestQueryUnknownDayNotFound(t *testing.T) {
	l := newTestLedger(t, nil)

	res, err := l.Query(context.Background(), "2020-01-01")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Status != StatusNotFound {
		t.Fatalf("status = %q, want not_found", res.Status)
	}
	if res.Totals != nil {
		t.Fatalf("totals should be absent, got %+v", res.Totals)
	}
}

func TestQueryDoesNotCreateEntry(t *testing.T) {
	l := newTestLedger(t, nil)
	ctx := context.Background()

	if _, err := l.Query(ctx, "today"); err != nil {
		t.Fatalf("Query: %v", err)
	}
	res, err := l.Query(ctx, "today")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Status != StatusNotFound {
		t.Fatalf("status = %q, querying must not create an entry", res.Status)
	}
}

func TestQueryExplicitDate(t *testing.T) {
	l := newTestLedger(t, nil)
	ctx := context.Background()

	if _, err := l.Add(ctx, models.MacroRecord{Kcal: 90}, "toast"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := l.Query(ctx, "2024-03-15")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Status != StatusOK || res.Totals.Kcal != 90 {
		t.Fatalf("query by explicit date = %+v", res)
	}
}

func TestQueryRejectsMalformedDate(t *testing.T) {
	l := newTestLedger(t, nil)

	if _, err := l.Query(context.Background(), "march 15"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestTotalsNeverNegative(t *testing.T) {
	l := newTestLedger(t, nil)
	ctx := context.Background()

	deltas := []models.MacroRecord{
		{Kcal: 100, Protein: 5, Fat: 2, Carbs: 10},
		{Kcal: -300, Protein: -1, Fat: -10, Carbs: -5},
		{Kcal: 50, Protein: 2, Fat: 1, Carbs: 4},
		{Kcal: -20, Protein: -20, Fat: -20, Carbs: -20},
		{Kcal: 10.55, Protein: 0.4, Fat: 0.1, Carbs: 1.2},
	}

	for _, d := range deltas {
		res, err := l.Add(ctx, d, "step")
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		tot := *res.Totals
		if tot.Kcal < 0 || tot.Protein < 0 || tot.Fat < 0 || tot.Carbs < 0 {
			t.Fatalf("negative totals after delta %+v: %+v", d, tot)
		}
	}
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	l := newTestLedger(t, nil)
	ctx := context.Background()

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := l.Add(ctx, models.MacroRecord{Kcal: 1}, "1 g unit"); err != nil {
				t.Errorf("Add: %v", err)
			}
		}()
	}
	wg.Wait()

	res, err := l.Query(ctx, "today")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Totals.Kcal != workers {
		t.Fatalf("kcal = %v, want %d (lost update under concurrency)", res.Totals.Kcal, workers)
	}
	if len(res.History) != workers {
		t.Fatalf("history length = %d, want %d", len(res.History), workers)
	}
}

func TestDayKeyUsesConfiguredTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	l := New(storage.NewMemoryStore(), nil, loc)
	// 22:30 UTC on March 15 is already March 16 in Moscow.
	l.now = func() time.Time {
		return time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)
	}

	if got := l.TodayKey(); got != "user:nutrition:2024-03-16" {
		t.Fatalf("TodayKey() = %q", got)
	}
}
