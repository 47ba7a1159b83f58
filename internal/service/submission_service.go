package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blum/internal/domain"
	"blum/internal/metrics"
	"blum/internal/repository"
	"blum/internal/sheets"
)

const replayConcurrency = 4

// SubmissionService envía filas a la planilla y, si falla, las guarda en el
// caché local de fallback. Nunca bloquea al wizard.
type SubmissionService struct {
	logger    *zap.Logger
	sheet     sheets.Appender
	fallbacks repository.FallbackRepository
	progress  ProgressStore
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewSubmissionService(logger *zap.Logger, sheet sheets.Appender, fallbacks repository.FallbackRepository, progress ProgressStore, m *metrics.Metrics) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallbacks == nil {
		fallbacks = repository.NewMemoryFallbackRepository()
	}
	return &SubmissionService{
		logger:    logger,
		sheet:     sheet,
		fallbacks: fallbacks,
		progress:  progress,
		metrics:   m,
		now:       time.Now,
	}
}

// Autosave guarda el snapshot en el progress store y lo agrega a la planilla.
func (s *SubmissionService) Autosave(ctx context.Context, snapshot domain.AnswerRecord) {
	if s.progress != nil {
		if err := s.progress.Put(ctx, snapshot); err != nil {
			s.logger.Warn("progress snapshot not stored",
				zap.String("session_id", snapshot.SessionID),
				zap.Error(err),
			)
		}
	}
	s.send(ctx, domain.SubmissionAutosave, snapshot, "")
}

// Submit hace un único intento remoto con el registro final.
func (s *SubmissionService) Submit(ctx context.Context, rec domain.AnswerRecord, sel domain.ProtocolSelection) sheets.AppendResult {
	if s.progress != nil {
		if err := s.progress.Put(ctx, rec); err != nil {
			s.logger.Warn("final snapshot not stored",
				zap.String("session_id", rec.SessionID),
				zap.Error(err),
			)
		}
	}
	return s.send(ctx, domain.SubmissionFinal, rec, sel.ProtocolID)
}

func (s *SubmissionService) send(ctx context.Context, kind domain.SubmissionKind, rec domain.AnswerRecord, protocolID domain.ProtocolID) sheets.AppendResult {
	ts := s.now().UTC()
	row := sheets.Flatten(rec, protocolID, ts)

	var res sheets.AppendResult
	if s.sheet == nil {
		res = sheets.Failure("sheet appender not configured")
	} else {
		res = s.sheet.AppendRecord(ctx, row)
	}
	s.metrics.Append(string(kind), res.Success)
	if res.Success {
		return res
	}

	entry := domain.FallbackEntry{
		ID:         uuid.NewString(),
		Kind:       kind,
		SessionID:  rec.SessionID,
		Timestamp:  ts,
		Email:      rec.Email(),
		ProtocolID: protocolID,
		Row:        row,
		Reason:     res.Error,
		Status:     domain.FallbackPending,
		CreatedAt:  ts,
	}
	// el contexto de la request puede estar cancelado; el fallback se escribe igual
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.fallbacks.Create(writeCtx, entry); err != nil {
		s.logger.Error("fallback entry not written",
			zap.String("session_id", rec.SessionID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return res
	}
	s.metrics.Fallback(string(kind))
	s.logger.Warn("sheet append failed, row kept in fallback cache",
		zap.String("session_id", rec.SessionID),
		zap.String("kind", string(kind)),
		zap.String("fallback_id", entry.ID),
		zap.String("reason", res.Error),
	)
	return res
}

// ReplayReport resume una corrida de Replay.
type ReplayReport struct {
	Attempted int `json:"attempted"`
	Replayed  int `json:"replayed"`
	Failed    int `json:"failed"`
}

// Replay reenvía las entradas pendientes y marca como procesadas las aceptadas.
func (s *SubmissionService) Replay(ctx context.Context, limit int) (ReplayReport, error) {
	if s.sheet == nil {
		return ReplayReport{}, fmt.Errorf("replay: sheet appender not configured")
	}
	pending, err := s.fallbacks.ListPending(ctx, limit)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("list pending fallbacks: %w", err)
	}

	var (
		mu     sync.Mutex
		report = ReplayReport{Attempted: len(pending)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(replayConcurrency)
	for _, entry := range pending {
		entry := entry
		g.Go(func() error {
			res := s.sheet.AppendRecord(gctx, entry.Row)
			if !res.Success {
				s.logger.Warn("fallback replay rejected",
					zap.String("fallback_id", entry.ID),
					zap.String("reason", res.Error),
				)
				mu.Lock()
				report.Failed++
				mu.Unlock()
				return nil
			}
			if err := s.fallbacks.MarkProcessed(gctx, entry.ID, s.now().UTC()); err != nil {
				return fmt.Errorf("mark fallback %s processed: %w", entry.ID, err)
			}
			mu.Lock()
			report.Replayed++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}
