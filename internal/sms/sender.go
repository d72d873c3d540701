package sms

import "bcsync/internal/logger"

// Sender delivers a verification code out of band. The delivery provider is
// an external collaborator; LogSender stands in for it outside production.
type Sender interface {
	Send(phone, code string) error
}

type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(phone, code string) error {
	s.logger.Info("Verification code for %s: %s", phone, code)
	return nil
}
