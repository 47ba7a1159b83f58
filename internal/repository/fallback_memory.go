package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"blum/internal/domain"
)

// DefaultMemoryFallbackLimit es el tope de entradas del repositorio en memoria.
const DefaultMemoryFallbackLimit = 1000

// MemoryFallbackRepository guarda las entradas en memoria cuando no hay base de datos.
// Con el tope alcanzado descarta primero las procesadas, después los autosaves
// más viejos y por último los envíos finales más viejos.
type MemoryFallbackRepository struct {
	mu         sync.Mutex
	maxEntries int
	evicted    uint64
	entries    []domain.FallbackEntry
}

func NewMemoryFallbackRepository() *MemoryFallbackRepository {
	return NewBoundedMemoryFallbackRepository(DefaultMemoryFallbackLimit)
}

// NewBoundedMemoryFallbackRepository fija el tope; maxEntries <= 0 usa el default.
func NewBoundedMemoryFallbackRepository(maxEntries int) *MemoryFallbackRepository {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryFallbackLimit
	}
	return &MemoryFallbackRepository{maxEntries: maxEntries}
}

func (r *MemoryFallbackRepository) Create(_ context.Context, entry domain.FallbackEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.entries) >= r.maxEntries {
		i := r.victim()
		r.entries = slices.Delete(r.entries, i, i+1)
		r.evicted++
	}
	entry.Row = slices.Clone(entry.Row)
	r.entries = append(r.entries, entry)
	return nil
}

// victim requiere r.mu tomado y al menos una entrada.
func (r *MemoryFallbackRepository) victim() int {
	if i := slices.IndexFunc(r.entries, func(e domain.FallbackEntry) bool {
		return e.Status == domain.FallbackProcessed
	}); i >= 0 {
		return i
	}
	if i := slices.IndexFunc(r.entries, func(e domain.FallbackEntry) bool {
		return e.Kind == domain.SubmissionAutosave
	}); i >= 0 {
		return i
	}
	return 0
}

// Evicted cuenta las entradas descartadas por el tope.
func (r *MemoryFallbackRepository) Evicted() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evicted
}

func (r *MemoryFallbackRepository) ListPending(_ context.Context, limit int) ([]domain.FallbackEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]domain.FallbackEntry, 0, limit)
	for _, e := range r.entries {
		if e.Status != domain.FallbackPending {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryFallbackRepository) MarkProcessed(_ context.Context, id string, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			ts := processedAt
			r.entries[i].Status = domain.FallbackProcessed
			r.entries[i].ProcessedAt = &ts
			return nil
		}
	}
	return ErrFallbackNotFound
}

// Entries devuelve una copia de todas las entradas, en orden de llegada.
func (r *MemoryFallbackRepository) Entries() []domain.FallbackEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}
