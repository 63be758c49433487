package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
)

// LogSender records messages instead of delivering them.  Used in dev.
type LogSender struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
	fail error
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// FailWith makes every later Send return err.  Test-only helper.
func (s *LogSender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *LogSender) Send(ctx context.Context, m Message) (Receipt, error) {
	if err := m.Validate(); err != nil {
		return Receipt{}, err
	}

	s.mu.Lock()
	fail := s.fail
	if fail == nil {
		s.sent = append(s.sent, m)
	}
	s.mu.Unlock()
	if fail != nil {
		return Receipt{}, fail
	}

	attrs := []any{
		slog.String("to", credential.MaskPhone(m.To)),
		slog.String("type", m.Type()),
		slog.Int("text_len", len(m.Text)),
	}
	if m.Attachment != nil {
		attrs = append(attrs,
			slog.String("attachment", m.Attachment.Name),
			slog.Int("attachment_bytes", len(m.Attachment.Data)))
	}
	s.logger.InfoContext(ctx, "message not sent (log sender)", attrs...)

	return Receipt{MessageID: uuid.NewString(), Status: "LOGGED"}, nil
}

// Sent returns a copy of every accepted message.  Test-only helper.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
