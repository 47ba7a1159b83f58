package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blum/internal/domain"
	"blum/internal/email"
	"blum/internal/service"
)

// QuestionnaireHandler expone el wizard de una sesión.
type QuestionnaireHandler struct {
	logger   *zap.Logger
	registry *service.Registry
	tokens   *service.SessionTokenService
	limiter  service.SessionRateLimiter
	reports  *service.ReportService
}

func NewQuestionnaireHandler(
	logger *zap.Logger,
	registry *service.Registry,
	tokens *service.SessionTokenService,
	limiter service.SessionRateLimiter,
	reports *service.ReportService,
) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		logger:   logger,
		registry: registry,
		tokens:   tokens,
		limiter:  limiter,
		reports:  reports,
	}
}

type sessionState struct {
	SessionID  string              `json:"session_id"`
	Step       string              `json:"step"`
	StepIndex  int                 `json:"step_index"`
	TotalSteps int                 `json:"total_steps"`
	Status     domain.RecordStatus `json:"status"`
	Record     domain.AnswerRecord `json:"record"`
}

func newSessionState(rec domain.AnswerRecord) sessionState {
	return sessionState{
		SessionID:  rec.SessionID,
		Step:       domain.Step(rec.CurrentStep).String(),
		StepIndex:  rec.CurrentStep,
		TotalSteps: domain.TotalSteps,
		Status:     rec.Status,
		Record:     rec,
	}
}

// CreateSession maneja POST /questionnaire/sessions.
func (h *QuestionnaireHandler) CreateSession(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": service.ErrRateLimited.Error()})
		return
	}

	ctrl, err := h.registry.Create(c.Request.Context())
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	token, expiresIn, err := h.tokens.Issue(ctrl.ID())
	if err != nil {
		h.logger.Error("issue session token failed", zap.Error(err))
		_ = h.registry.Close(c.Request.Context(), ctrl.ID())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_token": token,
		"expires_in":    expiresIn,
		"session":       newSessionState(ctrl.Snapshot()),
	})
}

// GetSession maneja GET /questionnaire/session.
func (h *QuestionnaireHandler) GetSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": newSessionState(ctrl.Snapshot())})
}

// Advance maneja POST /questionnaire/session/advance.
func (h *QuestionnaireHandler) Advance(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req struct {
		Step    string          `json:"step" binding:"required"`
		Answers json.RawMessage `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid advance request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	step, err := domain.ParseStep(req.Step)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown step"})
		return
	}
	answers, err := domain.DecodeStepAnswers(step, req.Answers)
	if err != nil {
		h.logger.Warn("invalid step answers", zap.String("step", req.Step), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answers"})
		return
	}

	rec, err := ctrl.Advance(c.Request.Context(), answers)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
			return
		}
		h.writeTransitionError(c, err)
		return
	}

	resp := gin.H{"session": newSessionState(rec)}
	if rec.Status == domain.StatusCompleted {
		resp["selection"] = service.Resolve(&rec)
	}
	c.JSON(http.StatusOK, resp)
}

// Retreat maneja POST /questionnaire/session/retreat.
func (h *QuestionnaireHandler) Retreat(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	rec, err := ctrl.Retreat()
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": newSessionState(rec)})
}

// Save maneja POST /questionnaire/session/save.
func (h *QuestionnaireHandler) Save(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Save(c.Request.Context()); err != nil {
		h.writeTransitionError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"saved": true})
}

// Result maneja GET /questionnaire/session/result.
func (h *QuestionnaireHandler) Result(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	sel, err := ctrl.Selection()
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}

// ReportPDF maneja GET /questionnaire/session/report.pdf.
func (h *QuestionnaireHandler) ReportPDF(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	doc, err := h.reports.Build(ctrl)
	if err != nil {
		if errors.Is(err, service.ErrNotCompleted) {
			h.writeTransitionError(c, err)
			return
		}
		h.logger.Error("render report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render report"})
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

// EmailReport maneja POST /questionnaire/session/report/email.
func (h *QuestionnaireHandler) EmailReport(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	to, err := h.reports.Email(c.Request.Context(), ctrl)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"sent_to": to})
	case errors.Is(err, service.ErrNotCompleted):
		h.writeTransitionError(c, err)
	case errors.Is(err, service.ErrNoRecipient):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "missing email"})
	case errors.Is(err, email.ErrSenderDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery not configured"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not send report"})
	}
}

// DeleteSession maneja DELETE /questionnaire/session.
func (h *QuestionnaireHandler) DeleteSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := h.registry.Close(c.Request.Context(), ctrl.ID()); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
		h.logger.Error("close session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not close session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuestionnaireHandler) controller(c *gin.Context) (*service.Controller, bool) {
	ctrl, ok := GetSessionController(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return nil, false
	}
	return ctrl, true
}

func (h *QuestionnaireHandler) writeTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "questionnaire already completed"})
	case errors.Is(err, service.ErrAtFirstStep):
		c.JSON(http.StatusConflict, gin.H{"error": "already at first step"})
	case errors.Is(err, service.ErrNotCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "questionnaire not completed"})
	case errors.Is(err, service.ErrSessionClosed):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	default:
		h.logger.Error("wizard transition failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
