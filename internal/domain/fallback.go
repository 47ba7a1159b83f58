package domain

import "time"

// SubmissionKind distingue autosaves de envíos finales.
type SubmissionKind string

const (
	SubmissionAutosave SubmissionKind = "autosave"
	SubmissionFinal    SubmissionKind = "final"
)

type FallbackStatus string

const (
	FallbackPending   FallbackStatus = "pending"
	FallbackProcessed FallbackStatus = "processed"
)

// FallbackEntry es la copia local de una fila que la planilla no aceptó.
type FallbackEntry struct {
	ID          string         `json:"id"`
	Kind        SubmissionKind `json:"kind"`
	SessionID   string         `json:"session_id,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Email       string         `json:"email,omitempty"`
	ProtocolID  ProtocolID     `json:"protocol_id,omitempty"`
	Row         []string       `json:"row"`
	Reason      string         `json:"reason,omitempty"`
	Status      FallbackStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}
