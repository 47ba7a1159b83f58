package sheets

import (
	"context"
	"sync"
)

// MockAppender permite tests sin llamar a la planilla real.
type MockAppender struct {
	mu     sync.Mutex
	Result AppendResult
	Rows   [][]string
}

func (m *MockAppender) AppendRecord(_ context.Context, row []string) AppendResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(row))
	copy(cp, row)
	m.Rows = append(m.Rows, cp)
	return m.Result
}

// Calls devuelve cuántas filas recibió el mock.
func (m *MockAppender) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Rows)
}
