package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"blum/internal/domain"
	"blum/internal/email"
	"blum/internal/report"
)

var ErrNoRecipient = errors.New("record has no email")

// ReportRenderer convierte la vista del reporte en un documento.
type ReportRenderer interface {
	Render(v report.View) ([]byte, error)
}

// ReportService genera el PDF de una sesión completada y lo envía por correo.
type ReportService struct {
	logger   *zap.Logger
	renderer ReportRenderer
	sender   email.Sender
	now      func() time.Time
}

func NewReportService(logger *zap.Logger, renderer ReportRenderer, sender email.Sender) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = report.NewPDFRenderer()
	}
	if sender == nil {
		sender = email.NewDisabledSender("")
	}
	return &ReportService{
		logger:   logger,
		renderer: renderer,
		sender:   sender,
		now:      time.Now,
	}
}

// Document es un reporte renderizado.
type Document struct {
	Filename string
	Content  []byte
	View     report.View
}

// Build renderiza el reporte; la sesión debe estar completada.
func (s *ReportService) Build(ctrl *Controller) (Document, error) {
	snap := ctrl.Snapshot()
	if snap.Status == domain.StatusDraft {
		return Document{}, ErrNotCompleted
	}
	sel := Resolve(&snap)
	view := report.NewView(snap, sel, s.now())
	content, err := s.renderer.Render(view)
	if err != nil {
		return Document{}, fmt.Errorf("render report for %s: %w", snap.SessionID, err)
	}
	return Document{Filename: view.Filename(), Content: content, View: view}, nil
}

// Email envía el reporte a la dirección declarada en los datos personales.
func (s *ReportService) Email(ctx context.Context, ctrl *Controller) (string, error) {
	doc, err := s.Build(ctrl)
	if err != nil {
		return "", err
	}
	to := strings.TrimSpace(doc.View.Email)
	if to == "" {
		return "", ErrNoRecipient
	}
	if err := s.sender.SendReport(ctx, to, doc.View.FullName(), doc.Filename, doc.Content); err != nil {
		s.logger.Warn("report email failed", zap.String("session_id", doc.View.SessionID), zap.Error(err))
		return "", fmt.Errorf("send report: %w", err)
	}
	s.logger.Info("report emailed", zap.String("session_id", doc.View.SessionID), zap.String("filename", doc.Filename))
	return to, nil
}
