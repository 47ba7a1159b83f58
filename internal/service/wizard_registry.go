package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blum/internal/metrics"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry mantiene los controllers vivos del proceso, uno por sesión.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Controller

	progress ProgressStore
	cfg      ControllerConfig
	ttl      time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewRegistry crea un registro; ttl es la inactividad máxima antes del barrido.
func NewRegistry(progress ProgressStore, cfg ControllerConfig, ttl time.Duration) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Registry{
		sessions: make(map[string]*Controller),
		progress: progress,
		cfg:      cfg,
		ttl:      ttl,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Create abre una sesión nueva y guarda su estado inicial.
func (r *Registry) Create(ctx context.Context) (*Controller, error) {
	id := uuid.NewString()
	ctrl := NewController(id, r.cfg)

	if r.progress != nil {
		if err := r.progress.Put(ctx, ctrl.Snapshot()); err != nil {
			r.logger.Warn("initial progress not stored", zap.String("session_id", id), zap.Error(err))
		}
	}

	r.mu.Lock()
	r.sessions[id] = ctrl
	r.mu.Unlock()
	r.metrics.SessionOpened()
	return ctrl, nil
}

// Get devuelve el controller de la sesión; si el proceso no lo tiene en
// memoria lo reconstruye desde el progress store.
func (r *Registry) Get(ctx context.Context, id string) (*Controller, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrSessionNotFound
	}
	r.mu.Lock()
	ctrl, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		return ctrl, nil
	}

	if r.progress == nil {
		return nil, ErrSessionNotFound
	}
	rec, err := r.progress.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrProgressNotFound) {
			r.logger.Warn("progress lookup failed", zap.String("session_id", id), zap.Error(err))
		}
		return nil, ErrSessionNotFound
	}
	rec.SessionID = id
	restored := RestoreController(rec, r.cfg)

	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		restored.Close()
		return existing, nil
	}
	r.sessions[id] = restored
	r.mu.Unlock()
	r.metrics.SessionOpened()
	r.logger.Info("session restored from progress store", zap.String("session_id", id), zap.Int("step", rec.CurrentStep))
	return restored, nil
}

// Close cierra la sesión y borra su progreso guardado.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	ctrl, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	ctrl.Close()
	r.metrics.SessionClosed()
	if r.progress != nil {
		if err := r.progress.Delete(ctx, id); err != nil {
			r.logger.Warn("progress not deleted", zap.String("session_id", id), zap.Error(err))
		}
	}
	return nil
}

// Sweep cierra las sesiones inactivas desde antes de now-ttl. El progreso
// queda en el store para poder retomarlas.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.ttl)
	var idle []*Controller

	r.mu.Lock()
	for id, ctrl := range r.sessions {
		if ctrl.LastActive().Before(cutoff) {
			idle = append(idle, ctrl)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, ctrl := range idle {
		ctrl.Close()
		r.metrics.SessionClosed()
	}
	if len(idle) > 0 {
		r.logger.Info("idle sessions swept", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run barre sesiones inactivas hasta que ctx se cancela.
func (r *Registry) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(r.cfg.Now())
		}
	}
}

// Shutdown cierra todas las sesiones en memoria.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	all := make([]*Controller, 0, len(r.sessions))
	for id, ctrl := range r.sessions {
		all = append(all, ctrl)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, ctrl := range all {
		ctrl := ctrl
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Close()
		}()
	}
	wg.Wait()
	for range all {
		r.metrics.SessionClosed()
	}
}

// Len devuelve la cantidad de sesiones en memoria.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
