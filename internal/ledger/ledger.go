// internal/ledger/ledger.go
package ledger

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"mcp-calorie-ledger/internal/models"
	"mcp-calorie-ledger/internal/storage"
)

const keyPrefix = "user:nutrition:"

// Statuses reported by ledger operations.
const (
	StatusOK       = "ok"
	StatusReset    = "reset"
	StatusNotFound = "not_found"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MacroComputer resolves free text about food into a macro delta plus the
// names of segments that could not be resolved.
type MacroComputer interface {
	Compute(ctx context.Context, text string) (models.MacroRecord, []string)
}

// Result is the outcome of a ledger operation, returned to the
// orchestrating agent layer.
type Result struct {
	Status  string              `json:"status"`
	Date    string              `json:"date"`
	Totals  *models.MacroRecord `json:"totals,omitempty"`
	History []models.FoodEntry  `json:"history,omitempty"`
	Skipped []string            `json:"skipped,omitempty"`
}

// Ledger owns the per-day running totals and their append-only history.
// All mutations for one day key are serialized through a per-key mutex so
// the read-modify-write of Add stays atomic under concurrent requests.
type Ledger struct {
	store storage.Store
	calc  MacroComputer
	loc   *time.Location
	now   func() time.Time

	keyMu map[string]*sync.Mutex
	mapMu sync.Mutex
}

func New(store storage.Store, calc MacroComputer, loc *time.Location) *Ledger {
	return &Ledger{
		store: store,
		calc:  calc,
		loc:   loc,
		now:   time.Now,
		keyMu: make(map[string]*sync.Mutex),
	}
}

// TodayKey returns the day key for the current wall-clock date in the
// ledger's fixed timezone.
func (l *Ledger) TodayKey() string {
	return keyPrefix + l.now().In(l.loc).Format("2006-01-02")
}

// resolveKey maps "today" (or empty) to the current day key and an explicit
// YYYY-MM-DD date verbatim into a key, with no timezone adjustment.
func (l *Ledger) resolveKey(date string) (string, error) {
	if date == "" || date == "today" {
		return l.TodayKey(), nil
	}
	if !dateRe.MatchString(date) {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD or \"today\"", date)
	}
	return keyPrefix + date, nil
}

func (l *Ledger) lockKey(key string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	mu, ok := l.keyMu[key]
	if !ok {
		mu = &sync.Mutex{}
		l.keyMu[key] = mu
	}
	return mu
}

// Add applies delta to today's totals and returns the updated day state.
// Totals are clamped at zero field by field, so a removal larger than the
// running total is absorbed silently, then rounded to 2 decimal places.
// A history entry is appended only for a positive-kcal delta with a
// non-empty source text; removals never touch history.
func (l *Ledger) Add(ctx context.Context, delta models.MacroRecord, sourceText string) (*Result, error) {
	key := l.TodayKey()

	mu := l.lockKey(key)
	mu.Lock()
	defer mu.Unlock()

	rec, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entry %s: %w", key, err)
	}
	if rec == nil {
		rec = &models.DayRecord{}
	}

	rec.Totals = rec.Totals.Add(delta).Clamped().Rounded()

	if sourceText != "" && delta.Kcal > 0 {
		rounded := delta.Rounded()
		rec.History = append(rec.History, models.FoodEntry{
			ID:      uuid.NewString(),
			Text:    sourceText,
			Kcal:    rounded.Kcal,
			Protein: rounded.Protein,
			Fat:     rounded.Fat,
			Carbs:   rounded.Carbs,
		})
	}

	if err := l.store.Put(ctx, key, rec); err != nil {
		return nil, fmt.Errorf("failed to save ledger entry %s: %w", key, err)
	}

	return &Result{
		Status:  StatusOK,
		Date:    key,
		Totals:  &rec.Totals,
		History: historyOrEmpty(rec.History),
	}, nil
}

// Remove computes the macro delta for text, negates it and applies it via
// Add with the original text as source. The negated delta never has a
// positive kcal value, so history is unchanged by construction.
func (l *Ledger) Remove(ctx context.Context, text string) (*Result, error) {
	delta, skipped := l.calc.Compute(ctx, text)
	res, err := l.Add(ctx, delta.Neg(), text)
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped
	return res, nil
}

// Reset replaces today's totals with zeros and clears history. Idempotent.
func (l *Ledger) Reset(ctx context.Context) (*Result, error) {
	key := l.TodayKey()

	mu := l.lockKey(key)
	mu.Lock()
	defer mu.Unlock()

	rec := &models.DayRecord{History: []models.FoodEntry{}}
	if err := l.store.Put(ctx, key, rec); err != nil {
		return nil, fmt.Errorf("failed to reset ledger entry %s: %w", key, err)
	}

	return &Result{
		Status:  StatusReset,
		Date:    key,
		Totals:  &rec.Totals,
		History: []models.FoodEntry{},
	}, nil
}

// Query returns the day state for "today" or an explicit YYYY-MM-DD date.
// Days with no recorded data report status "not_found"; querying never
// creates an entry.
func (l *Ledger) Query(ctx context.Context, date string) (*Result, error) {
	key, err := l.resolveKey(date)
	if err != nil {
		return nil, err
	}

	rec, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entry %s: %w", key, err)
	}
	if rec == nil {
		return &Result{Status: StatusNotFound, Date: key}, nil
	}

	return &Result{
		Status:  StatusOK,
		Date:    key,
		Totals:  &rec.Totals,
		History: historyOrEmpty(rec.History),
	}, nil
}

func historyOrEmpty(history []models.FoodEntry) []models.FoodEntry {
	if history == nil {
		return []models.FoodEntry{}
	}
	return history
}
