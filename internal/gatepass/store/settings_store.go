package store

import (
	"context"
	"time"
)

const (
	SettingMessageTemplate = "message_template"
	SettingAttachQRImage   = "attach_qr_image"
)

type SettingsStore interface {
	// GetSetting returns ok=false when the key was never written.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
	SetSetting(ctx context.Context, key, value string, at time.Time) error
	// SetSettings writes every pair or none of them.
	SetSettings(ctx context.Context, values map[string]string, at time.Time) error
}
