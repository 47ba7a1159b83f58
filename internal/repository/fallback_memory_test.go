package repository

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"blum/internal/domain"
)

func TestMemoryFallbackRepository_PendingAndProcessed(t *testing.T) {
	repo := NewMemoryFallbackRepository()
	ctx := context.Background()

	for _, id := range []string{"f1", "f2", "f3"} {
		if err := repo.Create(ctx, domain.FallbackEntry{ID: id, Status: domain.FallbackPending}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := repo.MarkProcessed(ctx, "f2", time.Now().UTC()); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	pending, err := repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "f1" || pending[1].ID != "f3" {
		t.Fatalf("unexpected pending entries: %+v", pending)
	}

	limited, _ := repo.ListPending(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	entries := repo.Entries()
	if entries[1].ProcessedAt == nil || entries[1].Status != domain.FallbackProcessed {
		t.Fatalf("expected f2 processed, got %+v", entries[1])
	}
}

func TestMemoryFallbackRepository_MarkUnknown(t *testing.T) {
	repo := NewMemoryFallbackRepository()
	if err := repo.MarkProcessed(context.Background(), "missing", time.Now()); !errors.Is(err, ErrFallbackNotFound) {
		t.Fatalf("expected ErrFallbackNotFound, got %v", err)
	}
}

func TestMemoryFallbackRepository_CopiesRow(t *testing.T) {
	repo := NewMemoryFallbackRepository()
	row := []string{"a", "b"}
	_ = repo.Create(context.Background(), domain.FallbackEntry{ID: "f1", Row: row, Status: domain.FallbackPending})
	row[0] = "mutated"
	if got := repo.Entries()[0].Row[0]; got != "a" {
		t.Fatalf("expected stored row to be isolated, got %q", got)
	}
}

func TestMemoryFallbackRepository_Bounded(t *testing.T) {
	repo := NewBoundedMemoryFallbackRepository(3)
	ctx := context.Background()
	add := func(id string, kind domain.SubmissionKind) {
		t.Helper()
		if err := repo.Create(ctx, domain.FallbackEntry{ID: id, Kind: kind, Status: domain.FallbackPending}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	add("final-1", domain.SubmissionFinal)
	add("auto-1", domain.SubmissionAutosave)
	add("auto-2", domain.SubmissionAutosave)
	if err := repo.MarkProcessed(ctx, "auto-2", time.Now().UTC()); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	// primero se descarta la procesada
	add("auto-3", domain.SubmissionAutosave)
	// después el autosave pendiente más viejo
	add("auto-4", domain.SubmissionAutosave)
	if got := ids(repo.Entries()); !slices.Equal(got, []string{"final-1", "auto-3", "auto-4"}) {
		t.Fatalf("unexpected entries after eviction: %v", got)
	}

	for i := 0; i < 500; i++ {
		add("auto-x", domain.SubmissionAutosave)
	}
	entries := repo.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected size to stay at the cap, got %d", len(entries))
	}
	if entries[0].ID != "final-1" {
		t.Fatalf("final entry must outlive autosaves, got %v", ids(entries))
	}
	if repo.Evicted() != 502 {
		t.Fatalf("expected 502 evictions, got %d", repo.Evicted())
	}

	add("final-2", domain.SubmissionFinal)
	add("final-3", domain.SubmissionFinal)
	add("final-4", domain.SubmissionFinal)
	if got := ids(repo.Entries()); !slices.Equal(got, []string{"final-2", "final-3", "final-4"}) {
		t.Fatalf("expected oldest finals dropped last, got %v", got)
	}
}

func TestMemoryFallbackRepository_DefaultLimit(t *testing.T) {
	repo := NewMemoryFallbackRepository()
	ctx := context.Background()
	for i := 0; i < DefaultMemoryFallbackLimit+10; i++ {
		_ = repo.Create(ctx, domain.FallbackEntry{ID: "a", Kind: domain.SubmissionAutosave, Status: domain.FallbackPending})
	}
	if n := len(repo.Entries()); n != DefaultMemoryFallbackLimit {
		t.Fatalf("expected %d entries, got %d", DefaultMemoryFallbackLimit, n)
	}
	if repo.Evicted() != 10 {
		t.Fatalf("expected 10 evictions, got %d", repo.Evicted())
	}
}

func ids(entries []domain.FallbackEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
