package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

const (
	NamePlaceholder   = "{name}"
	SampleName        = "Hong Gildong"
	MaxTemplateLength = 2000
)

const DefaultTemplate = `Hello {name}!

Your access QR code has been issued.

How to use it:
1. Show the QR code at the entrance.
2. Hold it to the scanner; your entry and exit are recorded automatically.
3. The QR code is valid for 24 hours.

Please do not share it. If you lose it, ask the administrator to reissue it.

QR Access Control`

type Settings struct {
	MessageTemplate string
	AttachQRImage   bool
}

type SettingsService struct {
	store store.SettingsStore
	now   func() time.Time
}

func NewSettingsService(s store.SettingsStore) *SettingsService {
	return &SettingsService{store: s, now: time.Now}
}

// Get returns the stored settings, falling back to defaults for missing or
// unreadable values.
func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	out := Settings{MessageTemplate: DefaultTemplate, AttachQRImage: true}

	tpl, ok, err := s.store.GetSetting(ctx, store.SettingMessageTemplate)
	if err != nil {
		return Settings{}, err
	}
	if ok && strings.TrimSpace(tpl) != "" {
		out.MessageTemplate = tpl
	}

	attach, ok, err := s.store.GetSetting(ctx, store.SettingAttachQRImage)
	if err != nil {
		return Settings{}, err
	}
	if ok {
		if b, err := strconv.ParseBool(attach); err == nil {
			out.AttachQRImage = b
		}
	}
	return out, nil
}

func (s *SettingsService) UpdateTemplate(ctx context.Context, tpl string) error {
	if err := validTemplate(tpl); err != nil {
		return err
	}
	return s.store.SetSetting(ctx, store.SettingMessageTemplate, tpl, s.now().UTC())
}

// SettingsUpdate is a partial update; nil fields are left unchanged.
type SettingsUpdate struct {
	MessageTemplate *string
	AttachQRImage   *bool
}

// Update validates every field, then writes them together.
func (s *SettingsService) Update(ctx context.Context, u SettingsUpdate) error {
	values := make(map[string]string, 2)
	if u.MessageTemplate != nil {
		if err := validTemplate(*u.MessageTemplate); err != nil {
			return err
		}
		values[store.SettingMessageTemplate] = *u.MessageTemplate
	}
	if u.AttachQRImage != nil {
		values[store.SettingAttachQRImage] = strconv.FormatBool(*u.AttachQRImage)
	}
	if len(values) == 0 {
		return nil
	}
	return s.store.SetSettings(ctx, values, s.now().UTC())
}

func validTemplate(tpl string) error {
	if strings.TrimSpace(tpl) == "" || utf8.RuneCountInString(tpl) > MaxTemplateLength {
		return ErrInvalidTemplate
	}
	return nil
}

func (s *SettingsService) SetAttachImage(ctx context.Context, attach bool) error {
	return s.store.SetSetting(ctx, store.SettingAttachQRImage, strconv.FormatBool(attach), s.now().UTC())
}

func (s *SettingsService) ResetTemplate(ctx context.Context) error {
	return s.store.SetSetting(ctx, store.SettingMessageTemplate, DefaultTemplate, s.now().UTC())
}

// Render substitutes name into the current template.
func (s *SettingsService) Render(ctx context.Context, name string) (string, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return renderTemplate(st.MessageTemplate, name), nil
}

func (s *SettingsService) Preview(ctx context.Context) (string, error) {
	return s.Render(ctx, SampleName)
}
