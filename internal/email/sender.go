package email

import (
	"context"
	"errors"
)

var ErrSenderDisabled = errors.New("email sender disabled")

// Sender envía el reporte PDF al cliente.
type Sender interface {
	SendReport(ctx context.Context, toEmail, clientName, filename string, pdf []byte) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendReport(_ context.Context, _, _, _ string, _ []byte) error {
	if s.reason == "" {
		return ErrSenderDisabled
	}
	return errors.Join(ErrSenderDisabled, errors.New(s.reason))
}
