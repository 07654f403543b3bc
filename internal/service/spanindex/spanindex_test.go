package spanindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
)

type fakeLocationRepo struct {
	mu        sync.Mutex
	seq       int
	locations map[string]models.DocumentLocation
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: make(map[string]models.DocumentLocation)}
}

func (f *fakeLocationRepo) Create(ctx context.Context, loc *models.DocumentLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	loc.ID = fmt.Sprintf("loc-%d", f.seq)
	f.locations[loc.ID] = *loc
	return nil
}

func (f *fakeLocationRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.locations[id]; !ok {
		return &domain.NotFoundError{Message: "location " + id + " not found"}
	}
	delete(f.locations, id)
	return nil
}

func (f *fakeLocationRepo) ListOverlapping(ctx context.Context, documentID string, start, end int) ([]models.DocumentLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DocumentLocation
	for _, loc := range f.locations {
		if loc.DocumentID == documentID && loc.Overlaps(start, end) {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartPosition < out[j].StartPosition })
	return out, nil
}

func (f *fakeLocationRepo) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentLocation, error) {
	return f.ListOverlapping(ctx, documentID, 0, 1<<30)
}

func (f *fakeLocationRepo) ListBySelectedText(ctx context.Context, selectedTextID string) ([]models.DocumentLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DocumentLocation
	for _, loc := range f.locations {
		if loc.SelectedTextID == selectedTextID {
			out = append(out, loc)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticBind(id string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return id, nil }
}

func TestReserveRejectsOverlap(t *testing.T) {
	idx := New(newFakeLocationRepo(), testLogger())
	ctx := context.Background()

	if _, err := idx.Reserve(ctx, "doc-1", 10, 20, nil, staticBind("st-1")); err != nil {
		t.Fatalf("initial reserve failed: %v", err)
	}

	tests := []struct {
		name       string
		start, end int
	}{
		{"identical", 10, 20},
		{"straddles start", 5, 15},
		{"straddles end", 15, 25},
		{"contained", 12, 18},
		{"containing", 0, 100},
		{"touches last unit", 19, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bindCalled := false
			_, err := idx.Reserve(ctx, "doc-1", tt.start, tt.end, nil, func(context.Context) (string, error) {
				bindCalled = true
				return "st-2", nil
			})
			if !errors.Is(err, domain.ErrOverlap) {
				t.Fatalf("expected overlap error, got %v", err)
			}
			var overlapErr *domain.OverlapError
			if !errors.As(err, &overlapErr) || overlapErr.LocationID == "" {
				t.Errorf("overlap error missing conflicting location id: %v", err)
			}
			if bindCalled {
				t.Error("bind must not run for a rejected span")
			}
		})
	}
}

func TestReserveAdjacentAndOtherDocument(t *testing.T) {
	idx := New(newFakeLocationRepo(), testLogger())
	ctx := context.Background()

	if _, err := idx.Reserve(ctx, "doc-1", 10, 20, nil, staticBind("st-1")); err != nil {
		t.Fatalf("reserve [10,20): %v", err)
	}
	// Half-open intervals: [20,30) and [0,10) touch but do not overlap.
	if _, err := idx.Reserve(ctx, "doc-1", 20, 30, nil, staticBind("st-1")); err != nil {
		t.Errorf("adjacent span after should be accepted: %v", err)
	}
	if _, err := idx.Reserve(ctx, "doc-1", 0, 10, nil, staticBind("st-1")); err != nil {
		t.Errorf("adjacent span before should be accepted: %v", err)
	}
	// Same interval in a different document is independent.
	if _, err := idx.Reserve(ctx, "doc-2", 10, 20, nil, staticBind("st-1")); err != nil {
		t.Errorf("same span in another document should be accepted: %v", err)
	}
}

func TestReserveInvalidSpan(t *testing.T) {
	idx := New(newFakeLocationRepo(), testLogger())
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 5},
		{"empty", 5, 5},
		{"inverted", 10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idx.Reserve(ctx, "doc-1", tt.start, tt.end, nil, staticBind("st-1"))
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestReleaseFreesSpan(t *testing.T) {
	idx := New(newFakeLocationRepo(), testLogger())
	ctx := context.Background()

	loc, err := idx.Reserve(ctx, "doc-1", 10, 20, nil, staticBind("st-1"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := idx.Release(ctx, loc.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := idx.Reserve(ctx, "doc-1", 10, 20, nil, staticBind("st-1")); err != nil {
		t.Errorf("released span should be reservable again: %v", err)
	}
}

func TestReleaseUnknownLocation(t *testing.T) {
	idx := New(newFakeLocationRepo(), testLogger())

	err := idx.Release(context.Background(), "loc-missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQueryOrdersByStart(t *testing.T) {
	idx := New(newFakeLocationRepo(), testLogger())
	ctx := context.Background()

	for _, span := range [][2]int{{30, 40}, {0, 5}, {10, 20}} {
		if _, err := idx.Reserve(ctx, "doc-1", span[0], span[1], nil, staticBind("st-1")); err != nil {
			t.Fatalf("reserve %v: %v", span, err)
		}
	}

	locs, err := idx.Query(ctx, "doc-1", 0, 100)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(locs) != 3 {
		t.Fatalf("expected 3 locations, got %d", len(locs))
	}
	for i := 1; i < len(locs); i++ {
		if locs[i-1].StartPosition > locs[i].StartPosition {
			t.Errorf("locations out of order: %d before %d", locs[i-1].StartPosition, locs[i].StartPosition)
		}
	}
}

func TestConcurrentReserveSameSpan(t *testing.T) {
	idx := New(newFakeLocationRepo(), testLogger())
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := idx.Reserve(ctx, "doc-1", 0, 10, nil, staticBind("st-1")); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("expected exactly one accepted reservation, got %d", accepted)
	}
}

// TestRandomizedSequenceConsistency replays a random reserve sequence and
// checks every outcome against a brute-force model of the interval set.
func TestRandomizedSequenceConsistency(t *testing.T) {
	idx := New(newFakeLocationRepo(), testLogger())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	type span struct{ start, end int }
	var committed []span

	overlapsAny := func(s span) bool {
		for _, c := range committed {
			if s.start < c.end && c.start < s.end {
				return true
			}
		}
		return false
	}

	for i := 0; i < 500; i++ {
		start := rng.Intn(200)
		s := span{start: start, end: start + 1 + rng.Intn(20)}

		_, err := idx.Reserve(ctx, "doc-1", s.start, s.end, nil, staticBind("st-1"))
		switch {
		case err == nil:
			if overlapsAny(s) {
				t.Fatalf("step %d: accepted [%d,%d) overlapping a committed span", i, s.start, s.end)
			}
			committed = append(committed, s)
		case errors.Is(err, domain.ErrOverlap):
			if !overlapsAny(s) {
				t.Fatalf("step %d: rejected [%d,%d) with no committed overlap", i, s.start, s.end)
			}
		default:
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}
}
