package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/notify"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/phone"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/qrimage"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/report"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

type NotificationDeps struct {
	Sender   notify.Sender
	Persons  store.PersonStore
	Logs     store.NotificationLogStore
	Settings *SettingsService
	Logger   *slog.Logger
	Observer Observer
	QRSize   int
	Now      func() time.Time
}

// NotificationService sends credentials and reports and records every
// attempt.  A failed send is returned to the caller after it has been
// logged; it never undoes the caller's own writes.
type NotificationService struct {
	sender   notify.Sender
	persons  store.PersonStore
	logs     store.NotificationLogStore
	settings *SettingsService
	logger   *slog.Logger
	obs      Observer
	qrSize   int
	now      func() time.Time
}

func NewNotificationService(d NotificationDeps) *NotificationService {
	return &NotificationService{
		sender:   d.Sender,
		persons:  d.Persons,
		logs:     d.Logs,
		settings: d.Settings,
		logger:   d.Logger,
		obs:      observerOrNoop(d.Observer),
		qrSize:   qrimage.ClampSize(d.QRSize),
		now:      nowOr(d.Now),
	}
}

// DeliverCredential sends p's current credential as MMS (with the QR image)
// or SMS, depending on the attach_qr_image setting.  The person's
// notification_status is updated either way.
func (s *NotificationService) DeliverCredential(ctx context.Context, p store.PersonRecord) (store.NotificationStatus, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return s.finishCredential(ctx, p, fmt.Errorf("load settings: %w", err))
	}

	msg := notify.Message{
		To:   p.Phone,
		Text: renderTemplate(st.MessageTemplate, p.Name),
	}
	if st.AttachQRImage {
		img, err := qrimage.PNG(p.QRPayload, s.qrSize)
		if err != nil {
			return s.finishCredential(ctx, p, fmt.Errorf("render qr: %w", err))
		}
		msg.Attachment = &notify.Attachment{
			Name:        "qr_" + p.ID + ".png",
			ContentType: "image/png",
			Data:        img,
		}
	}

	_, err = s.sender.Send(ctx, msg)
	return s.finishCredential(ctx, p, err)
}

func (s *NotificationService) finishCredential(ctx context.Context, p store.PersonRecord, sendErr error) (store.NotificationStatus, error) {
	status := store.StatusSuccess
	if sendErr != nil {
		status = store.StatusFailed
	}
	now := s.now().UTC()

	s.record(ctx, store.NotificationRecord{
		PersonID: p.ID,
		Kind:     store.KindCredential,
		Phone:    p.Phone,
		Status:   status,
		SentAt:   now,
		Error:    errText(sendErr),
	})

	if err := s.persons.UpdateNotificationStatus(ctx, p.ID, status, now); err != nil {
		s.logger.ErrorContext(ctx, "update notification status failed",
			slog.String("person_id", p.ID), slog.Any("err", err))
	}

	if sendErr != nil {
		s.logger.WarnContext(ctx, "credential delivery failed",
			slog.String("person_id", p.ID),
			slog.String("to", credential.MaskPhone(p.Phone)),
			slog.Any("err", sendErr))
		return status, sendErr
	}
	return status, nil
}

// DeliverReport sends a stored report as an MMS attachment.
func (s *NotificationService) DeliverReport(ctx context.Context, to, name string, data []byte) error {
	to = phone.Clean(to)
	if !phone.Valid(to) {
		return ErrInvalidPhone
	}
	if len(data) > notify.MaxAttachmentBytes {
		return ErrAttachmentTooLarge
	}

	_, err := s.sender.Send(ctx, notify.Message{
		To:   to,
		Text: "Access report: " + name,
		Attachment: &notify.Attachment{
			Name:        name,
			ContentType: report.ContentType,
			Data:        data,
		},
	})

	status := store.StatusSuccess
	if err != nil {
		status = store.StatusFailed
	}
	s.record(ctx, store.NotificationRecord{
		Kind:   store.KindReport,
		Phone:  to,
		Status: status,
		SentAt: s.now().UTC(),
		Error:  errText(err),
	})
	return err
}

func (s *NotificationService) History(ctx context.Context, personID string) ([]store.NotificationRecord, error) {
	if _, err := s.persons.GetPerson(ctx, personID); err != nil {
		return nil, mapPersonErr(err)
	}
	return s.logs.NotificationsByPerson(ctx, personID)
}

func (s *NotificationService) ByStatus(ctx context.Context, status store.NotificationStatus, limit int) ([]store.NotificationRecord, error) {
	return s.logs.NotificationsByStatus(ctx, status, limit)
}

func (s *NotificationService) Counts(ctx context.Context, from, to time.Time) (map[store.NotificationStatus]int, error) {
	return s.logs.CountNotifications(ctx, from, to)
}

// record writes the attempt to the notification log.  Errors are logged,
// not returned: a lost log row must not mask the delivery outcome.
func (s *NotificationService) record(ctx context.Context, rec store.NotificationRecord) {
	s.obs.Notification(string(rec.Kind), string(rec.Status))
	if err := s.logs.RecordNotification(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "record notification failed",
			slog.String("kind", string(rec.Kind)),
			slog.String("person_id", rec.PersonID),
			slog.Any("err", err))
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
