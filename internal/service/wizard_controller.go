package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"blum/internal/domain"
	"blum/internal/metrics"
	"blum/internal/sheets"
)

var (
	ErrCompleted     = errors.New("questionnaire already completed")
	ErrAtFirstStep   = errors.New("already at first step")
	ErrNotCompleted  = errors.New("questionnaire not completed")
	ErrSessionClosed = errors.New("session closed")
)

// DefaultAutosaveInterval es la frecuencia del autosave periódico.
const DefaultAutosaveInterval = 30 * time.Second

// AutosaveSink recibe snapshots del progreso. Los fallos se resuelven dentro
// del sink; el controller nunca los ve.
type AutosaveSink interface {
	Autosave(ctx context.Context, snapshot domain.AnswerRecord)
}

// Finalizer persiste el registro completado junto al protocolo elegido.
type Finalizer interface {
	Submit(ctx context.Context, rec domain.AnswerRecord, sel domain.ProtocolSelection) sheets.AppendResult
}

// ControllerConfig agrupa los colaboradores de un Controller.
// Un AutosaveInterval negativo desactiva el timer.
type ControllerConfig struct {
	AutosaveInterval time.Duration
	Autosave         AutosaveSink
	Finalizer        Finalizer
	Logger           *zap.Logger
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

// Controller es la máquina de estados de una sesión del cuestionario.
type Controller struct {
	mu         sync.Mutex
	record     domain.AnswerRecord
	lastActive time.Time
	closed     bool

	autosave  AutosaveSink
	finalizer Finalizer
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController crea una sesión nueva en el primer paso y arranca el autosave.
func NewController(sessionID string, cfg ControllerConfig) *Controller {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return RestoreController(domain.NewAnswerRecord(sessionID, now()), cfg)
}

// RestoreController retoma una sesión a partir de un snapshot guardado.
func RestoreController(rec domain.AnswerRecord, cfg ControllerConfig) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AutosaveInterval == 0 {
		cfg.AutosaveInterval = DefaultAutosaveInterval
	}
	if rec.CurrentStep < 0 || rec.CurrentStep >= domain.TotalSteps {
		rec.CurrentStep = 0
	}
	if rec.Status == "" {
		rec.Status = domain.StatusDraft
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		record:     rec.Clone(),
		lastActive: cfg.Now(),
		autosave:   cfg.Autosave,
		finalizer:  cfg.Finalizer,
		logger:     cfg.Logger.With(zap.String("session_id", rec.SessionID)),
		metrics:    cfg.Metrics,
		now:        cfg.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
	if cfg.AutosaveInterval > 0 && c.autosave != nil {
		c.wg.Add(1)
		go c.autosaveLoop(cfg.AutosaveInterval)
	}
	return c
}

func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.SessionID
}

// Snapshot devuelve una copia profunda del registro.
func (c *Controller) Snapshot() domain.AnswerRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// CurrentStep devuelve el paso activo.
func (c *Controller) CurrentStep() domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Step(c.record.CurrentStep)
}

func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Advance valida las respuestas del paso activo y avanza. En el último paso
// congela el registro, resuelve el protocolo y lo envía al Finalizer.
func (c *Controller) Advance(ctx context.Context, answers domain.StepAnswers) (domain.AnswerRecord, error) {
	c.mu.Lock()
	if err := c.checkOpen(); err != nil {
		c.mu.Unlock()
		c.metrics.Transition("advance", "rejected")
		return domain.AnswerRecord{}, err
	}
	c.lastActive = c.now()

	current := domain.Step(c.record.CurrentStep)
	if answers != nil && answers.Step() != current {
		c.mu.Unlock()
		c.metrics.Transition("advance", "invalid")
		return domain.AnswerRecord{}, &ValidationError{Step: current, Fields: map[string]string{"step": msgStepMismatch}}
	}
	normalized, err := ValidateStep(answers)
	if err != nil {
		c.mu.Unlock()
		c.metrics.Transition("advance", "invalid")
		return domain.AnswerRecord{}, err
	}

	domain.ApplyStep(&c.record, normalized)
	c.record.UpdatedAt = c.now().UTC()

	if int(current) < domain.TotalSteps-1 {
		c.record.CurrentStep++
		snap := c.record.Clone()
		c.spawnAutosave(snap)
		c.mu.Unlock()
		c.metrics.Transition("advance", "ok")
		return snap, nil
	}

	completedAt := c.now().UTC()
	c.record.Status = domain.StatusCompleted
	c.record.CompletedAt = &completedAt
	snap := c.record.Clone()
	c.mu.Unlock()

	c.metrics.Transition("advance", "completed")
	c.finalize(ctx, snap)
	return snap, nil
}

// Retreat vuelve un paso atrás sin tocar los datos cargados.
func (c *Controller) Retreat() (domain.AnswerRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		c.metrics.Transition("retreat", "rejected")
		return domain.AnswerRecord{}, err
	}
	c.lastActive = c.now()
	if c.record.CurrentStep == 0 {
		c.metrics.Transition("retreat", "rejected")
		return domain.AnswerRecord{}, ErrAtFirstStep
	}
	c.record.CurrentStep--
	c.record.UpdatedAt = c.now().UTC()
	c.metrics.Transition("retreat", "ok")
	return c.record.Clone(), nil
}

// Save envía un snapshot al sink de forma síncrona. Tras completar el
// cuestionario no hace nada.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.lastActive = c.now()
	if c.record.Status != domain.StatusDraft || c.autosave == nil {
		c.mu.Unlock()
		return nil
	}
	snap := c.record.Clone()
	c.mu.Unlock()

	c.autosave.Autosave(ctx, snap)
	return nil
}

// Selection resuelve el protocolo una vez alcanzado el paso de resultados.
func (c *Controller) Selection() (domain.ProtocolSelection, error) {
	snap := c.Snapshot()
	if snap.Status == domain.StatusDraft && snap.CurrentStep != int(domain.StepResults) {
		return domain.ProtocolSelection{}, ErrNotCompleted
	}
	return Resolve(&snap), nil
}

// Close detiene el autosave y espera los envíos en curso.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) checkOpen() error {
	if c.closed {
		return ErrSessionClosed
	}
	if c.record.Status != domain.StatusDraft {
		return ErrCompleted
	}
	return nil
}

// spawnAutosave requiere c.mu tomado; Close no puede esperar antes del Add.
func (c *Controller) spawnAutosave(snap domain.AnswerRecord) {
	if c.autosave == nil || c.closed {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.autosave.Autosave(c.ctx, snap)
	}()
}

func (c *Controller) autosaveLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.closed || c.record.Status != domain.StatusDraft {
				c.mu.Unlock()
				continue
			}
			snap := c.record.Clone()
			c.mu.Unlock()
			c.autosave.Autosave(c.ctx, snap)
		}
	}
}

func (c *Controller) finalize(ctx context.Context, snap domain.AnswerRecord) {
	sel := Resolve(&snap)
	c.metrics.Selection(string(sel.ProtocolID))
	if sel.Fallback {
		c.logger.Warn("protocol resolver fell back to default", zap.String("protocol", string(sel.ProtocolID)))
	}
	if c.finalizer == nil {
		return
	}
	res := c.finalizer.Submit(ctx, snap, sel)
	if !res.Success {
		c.logger.Warn("final submission not persisted remotely", zap.String("reason", res.Error))
		return
	}
	c.logger.Info("questionnaire submitted",
		zap.String("protocol", string(sel.ProtocolID)),
		zap.Int("row", res.Row),
	)
}
