package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"blum/internal/domain"
	"blum/internal/repository"
	"blum/internal/sheets"
)

type failingFallbackRepo struct {
	repository.FallbackRepository
}

func (failingFallbackRepo) Create(context.Context, domain.FallbackEntry) error {
	return errors.New("disk full")
}

func completedRecord() domain.AnswerRecord {
	rec := sampleProgress()
	rec.SkinProfile = &domain.SkinProfile{SkinType: "secca", Concerns: []string{"acne"}}
	rec.Status = domain.StatusCompleted
	return rec
}

func TestSubmissionServiceSubmitSuccess(t *testing.T) {
	appender := &sheets.MockAppender{Result: sheets.AppendResult{Success: true, Row: 12}}
	fallbacks := repository.NewMemoryFallbackRepository()
	svc := NewSubmissionService(zap.NewNop(), appender, fallbacks, nil, nil)

	rec := completedRecord()
	res := svc.Submit(context.Background(), rec, Resolve(&rec))
	if !res.Success || res.Row != 12 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(fallbacks.Entries()) != 0 {
		t.Fatalf("no fallback expected on success")
	}
	row := appender.Rows[0]
	if len(row) != len(sheets.Columns) {
		t.Fatalf("row has %d cells", len(row))
	}
	if row[len(row)-1] != string(domain.ProtocolCorrectivePostAcne) {
		t.Fatalf("expected protocol in last column, got %q", row[len(row)-1])
	}
}

func TestSubmissionServiceSubmitFailureWritesFallback(t *testing.T) {
	appender := &sheets.MockAppender{Result: sheets.Failure("quota exceeded")}
	fallbacks := repository.NewMemoryFallbackRepository()
	svc := NewSubmissionService(zap.NewNop(), appender, fallbacks, nil, nil)

	rec := completedRecord()
	res := svc.Submit(context.Background(), rec, Resolve(&rec))
	if res.Success || res.Error != "quota exceeded" {
		t.Fatalf("unexpected result: %+v", res)
	}
	entries := fallbacks.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one fallback entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Kind != domain.SubmissionFinal || e.Email != "giulia@example.com" || e.ProtocolID != domain.ProtocolCorrectivePostAcne {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if len(e.Row) != len(sheets.Columns) || e.ID == "" {
		t.Fatalf("entry must carry the flattened row and an id: %+v", e)
	}
}

func TestSubmissionServiceAutosave(t *testing.T) {
	appender := &sheets.MockAppender{Result: sheets.Failure("timeout")}
	fallbacks := repository.NewMemoryFallbackRepository()
	progress := NewMemoryProgressStore(time.Hour)
	svc := NewSubmissionService(zap.NewNop(), appender, fallbacks, progress, nil)

	rec := sampleProgress()
	svc.Autosave(context.Background(), rec)

	if _, err := progress.Get(context.Background(), rec.SessionID); err != nil {
		t.Fatalf("expected snapshot in progress store: %v", err)
	}
	entries := fallbacks.Entries()
	if len(entries) != 1 || entries[0].Kind != domain.SubmissionAutosave || entries[0].ProtocolID != "" {
		t.Fatalf("unexpected fallback entries: %+v", entries)
	}
}

func TestSubmissionServiceNeverPanicsWithoutCollaborators(t *testing.T) {
	svc := NewSubmissionService(nil, nil, failingFallbackRepo{}, nil, nil)
	rec := completedRecord()
	res := svc.Submit(context.Background(), rec, Resolve(&rec))
	if res.Success {
		t.Fatalf("expected failure without appender")
	}
	svc.Autosave(context.Background(), rec)
}

func TestSubmissionServiceReplay(t *testing.T) {
	appender := &sheets.MockAppender{Result: sheets.Failure("down")}
	fallbacks := repository.NewMemoryFallbackRepository()
	svc := NewSubmissionService(zap.NewNop(), appender, fallbacks, nil, nil)

	rec := completedRecord()
	svc.Submit(context.Background(), rec, Resolve(&rec))
	svc.Autosave(context.Background(), rec)

	report, err := svc.Replay(context.Background(), 10)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if report.Attempted != 2 || report.Failed != 2 || report.Replayed != 0 {
		t.Fatalf("unexpected report while sheet is down: %+v", report)
	}

	healthy := &sheets.MockAppender{Result: sheets.AppendResult{Success: true}}
	svc.sheet = healthy
	report, err = svc.Replay(context.Background(), 10)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if report.Replayed != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	for _, e := range fallbacks.Entries() {
		if e.Status != domain.FallbackProcessed || e.ProcessedAt == nil {
			t.Fatalf("expected processed entry, got %+v", e)
		}
	}

	report, _ = svc.Replay(context.Background(), 10)
	if report.Attempted != 0 {
		t.Fatalf("expected nothing left to replay, got %+v", report)
	}
}
