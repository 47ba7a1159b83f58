package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AppendResult es la respuesta del colaborador de persistencia.
type AppendResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Row     int    `json:"row,omitempty"`
}

// Failure construye un resultado fallido con el motivo indicado.
func Failure(reason string) AppendResult {
	return AppendResult{Success: false, Error: reason}
}

// Appender agrega filas a la planilla. Nunca devuelve error: los fallos
// viajan en AppendResult para que el llamador decida el fallback.
type Appender interface {
	AppendRecord(ctx context.Context, row []string) AppendResult
}

// HTTPClient implementa Appender contra el webhook de Apps Script.
type HTTPClient struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewHTTPClient construye un cliente apuntando al webhook de la planilla.
func NewHTTPClient(webhookURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		webhookURL: strings.TrimSpace(webhookURL),
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type appendRequest struct {
	Columns []string `json:"columns"`
	Row     []string `json:"row"`
}

func (c *HTTPClient) AppendRecord(ctx context.Context, row []string) AppendResult {
	if c == nil || c.webhookURL == "" {
		return Failure("sheet webhook not configured")
	}
	if len(row) != len(Columns) {
		return Failure(fmt.Sprintf("row has %d cells, schema has %d", len(row), len(Columns)))
	}

	bodyBytes, err := json.Marshal(appendRequest{Columns: Columns, Row: row})
	if err != nil {
		return Failure(fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return Failure(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Failure(fmt.Sprintf("do request: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Failure(fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("sheet append http error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return Failure(fmt.Sprintf("sheet http error: status=%d", resp.StatusCode))
	}

	var out AppendResult
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Failure(fmt.Sprintf("unmarshal response: %v", err))
	}
	if !out.Success && out.Error == "" {
		out.Error = "sheet rejected row"
	}
	return out
}
