package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blum/internal/repository"
	"blum/internal/service"
	"blum/internal/sheets"
)

type testServer struct {
	router    *gin.Engine
	registry  *service.Registry
	appender  *sheets.MockAppender
	fallbacks *repository.MemoryFallbackRepository
}

func setupServer(t *testing.T, limiter service.SessionRateLimiter) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	appender := &sheets.MockAppender{Result: sheets.Failure("sheet offline")}
	fallbacks := repository.NewMemoryFallbackRepository()
	progress := service.NewMemoryProgressStore(time.Hour)
	submissions := service.NewSubmissionService(logger, appender, fallbacks, progress, nil)
	registry := service.NewRegistry(progress, service.ControllerConfig{
		AutosaveInterval: -1,
		Autosave:         submissions,
		Finalizer:        submissions,
		Logger:           logger,
	}, time.Hour)
	t.Cleanup(registry.Shutdown)

	tokens := service.NewSessionTokenService("test-secret", time.Hour)
	reports := service.NewReportService(logger, nil, nil)
	qh := NewQuestionnaireHandler(logger, registry, tokens, limiter, reports)
	ph := NewProtocolHandler(logger)

	return testServer{
		router:    NewRouter(logger, qh, ph, tokens, registry, nil),
		registry:  registry,
		appender:  appender,
		fallbacks: fallbacks,
	}
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	return performAuthRequest(r, method, path, "", body)
}

func performAuthRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/questionnaire/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionToken string `json:"session_token"`
		Session      struct {
			Step string `json:"step"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if resp.SessionToken == "" || resp.Session.Step != "personal-data" {
		t.Fatalf("unexpected create response: %s", rec.Body.String())
	}
	return resp.SessionToken
}

var flowSteps = []struct {
	step    string
	answers map[string]any
}{
	{"personal-data", map[string]any{
		"name": "Giulia", "surname": "Rossi", "email": "giulia@example.com",
		"phone": "+39 333 1234567", "age": "31",
		"consents": map[string]bool{"data_processing": true},
	}},
	{"lifestyle", map[string]any{"diet": []string{"balanced"}, "exercise": 1, "sleep": 5, "stress": 8, "smoking": true}},
	{"skin-profile", map[string]any{"skin_type": "grassa", "concerns": []string{"acne", "pores"}}},
	{"goals", map[string]any{"goals": []string{"pelle uniforme"}, "timeline": "medium"}},
	{"medical-history", map[string]any{"conditions": []string{"epilepsy"}}},
	{"results", nil},
}

func TestQuestionnaireFlow(t *testing.T) {
	srv := setupServer(t, nil)
	token := createSession(t, srv.router)

	rec := performAuthRequest(srv.router, http.MethodPost, "/questionnaire/session/retreat", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 retreating from first step, got %d", rec.Code)
	}

	rec = performAuthRequest(srv.router, http.MethodGet, "/questionnaire/session/result", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for result before completion, got %d", rec.Code)
	}

	for _, s := range flowSteps {
		rec := performAuthRequest(srv.router, http.MethodPost, "/questionnaire/session/advance", token, map[string]any{
			"step":    s.step,
			"answers": s.answers,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("advance %s: expected 200, got %d: %s", s.step, rec.Code, rec.Body.String())
		}
	}

	rec = performAuthRequest(srv.router, http.MethodGet, "/questionnaire/session/result", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 result, got %d", rec.Code)
	}
	var result struct {
		Selection struct {
			ProtocolID      string   `json:"protocol_id"`
			RiskFactors     []string `json:"risk_factors"`
			MedicalWarnings []string `json:"medical_warnings"`
		} `json:"selection"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Selection.ProtocolID != "corrective-post-acne" {
		t.Fatalf("expected corrective-post-acne, got %q", result.Selection.ProtocolID)
	}
	if len(result.Selection.MedicalWarnings) != 1 || len(result.Selection.RiskFactors) != 4 {
		t.Fatalf("unexpected advisories: %+v", result.Selection)
	}

	rec = performAuthRequest(srv.router, http.MethodPost, "/questionnaire/session/advance", token, map[string]any{"step": "results"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 after completion, got %d", rec.Code)
	}

	rec = performAuthRequest(srv.router, http.MethodGet, "/questionnaire/session/report.pdf", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 pdf, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "BLUM_Report_Giulia_") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected pdf body")
	}

	rec = performAuthRequest(srv.router, http.MethodPost, "/questionnaire/session/report/email", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without smtp, got %d", rec.Code)
	}

	finals := 0
	for _, e := range srv.fallbacks.Entries() {
		if e.Kind == "final" {
			finals++
		}
	}
	if finals != 1 {
		t.Fatalf("expected one final fallback entry, got %d", finals)
	}

	rec = performAuthRequest(srv.router, http.MethodDelete, "/questionnaire/session", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = performAuthRequest(srv.router, http.MethodGet, "/questionnaire/session", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestAdvanceValidationError(t *testing.T) {
	srv := setupServer(t, nil)
	token := createSession(t, srv.router)

	rec := performAuthRequest(srv.router, http.MethodPost, "/questionnaire/session/advance", token, map[string]any{
		"step": "personal-data",
		"answers": map[string]any{
			"name": "Giulia", "surname": "Rossi", "email": "not-an-email",
			"phone": "+39 333 1234567", "consents": map[string]bool{"data_processing": true},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Fields["email"] == "" {
		t.Fatalf("expected email field error, got %s", rec.Body.String())
	}

	rec = performAuthRequest(srv.router, http.MethodGet, "/questionnaire/session", token, nil)
	var state struct {
		Session struct {
			StepIndex int `json:"step_index"`
		} `json:"session"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &state)
	if state.Session.StepIndex != 0 {
		t.Fatalf("step must not change, got %d", state.Session.StepIndex)
	}
}

func TestAdvanceBadRequests(t *testing.T) {
	srv := setupServer(t, nil)
	token := createSession(t, srv.router)

	cases := []map[string]any{
		{},
		{"step": "unknown"},
		{"step": "lifestyle", "answers": map[string]any{"exercise": "often"}},
	}
	for _, body := range cases {
		rec := performAuthRequest(srv.router, http.MethodPost, "/questionnaire/session/advance", token, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, rec.Code)
		}
	}

	rec := performAuthRequest(srv.router, http.MethodPost, "/questionnaire/session/advance", token, map[string]any{
		"step":    "lifestyle",
		"answers": map[string]any{"diet": []string{"balanced"}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for wrong step, got %d", rec.Code)
	}
}

func TestSessionRoutesRequireToken(t *testing.T) {
	srv := setupServer(t, nil)

	rec := performRequest(srv.router, http.MethodGet, "/questionnaire/session", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	rec = performAuthRequest(srv.router, http.MethodGet, "/questionnaire/session", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid token, got %d", rec.Code)
	}

	other := service.NewSessionTokenService("test-secret", time.Hour)
	token, _, _ := other.Issue("unknown-session")
	rec = performAuthRequest(srv.router, http.MethodGet, "/questionnaire/session", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestCreateSessionRateLimited(t *testing.T) {
	srv := setupServer(t, service.NewSessionRateLimiter(time.Minute, 1))

	createSession(t, srv.router)
	rec := performRequest(srv.router, http.MethodPost, "/questionnaire/sessions", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestSaveProgress(t *testing.T) {
	srv := setupServer(t, nil)
	token := createSession(t, srv.router)

	rec := performAuthRequest(srv.router, http.MethodPost, "/questionnaire/session/save", token, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if srv.appender.Calls() != 1 {
		t.Fatalf("expected one append attempt, got %d", srv.appender.Calls())
	}
}
