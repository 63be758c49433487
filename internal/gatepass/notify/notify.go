// Package notify delivers text and multimedia messages to phones.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// MaxAttachmentBytes is the largest attachment an MMS may carry.
const MaxAttachmentBytes = 2 << 20

var (
	ErrNoRecipient        = errors.New("notify: recipient is required")
	ErrEmptyMessage       = errors.New("notify: message text is required")
	ErrAttachmentTooLarge = errors.New("notify: attachment exceeds 2 MiB")
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	To         string
	Text       string
	Attachment *Attachment
}

// Type is "MMS" when the message carries an attachment, else "SMS".
func (m Message) Type() string {
	if m.Attachment != nil {
		return "MMS"
	}
	return "SMS"
}

func (m Message) Validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	if m.Text == "" {
		return ErrEmptyMessage
	}
	if m.Attachment != nil && len(m.Attachment.Data) > MaxAttachmentBytes {
		return ErrAttachmentTooLarge
	}
	return nil
}

type Receipt struct {
	MessageID string
	Status    string
}

// Sender delivers one message.  Implementations must validate the message
// before doing any I/O.
type Sender interface {
	Send(ctx context.Context, m Message) (Receipt, error)
}

// GatewayError carries a non-2xx gateway reply.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("notify: gateway returned %d: %s", e.StatusCode, e.Body)
}
