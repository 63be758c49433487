package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/phone"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/qrimage"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

const minNameRunes = 2

type RegistrationDeps struct {
	Signer   *credential.Signer
	Persons  store.PersonStore
	Notifier *NotificationService
	Logger   *slog.Logger
	Now      func() time.Time
}

type RegistrationService struct {
	signer   *credential.Signer
	persons  store.PersonStore
	notifier *NotificationService
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegistrationService(d RegistrationDeps) *RegistrationService {
	return &RegistrationService{
		signer:   d.Signer,
		persons:  d.Persons,
		notifier: d.Notifier,
		logger:   d.Logger,
		now:      nowOr(d.Now),
	}
}

// RegisterResult reports the stored person and how delivery went.  A
// delivery failure still returns a registered person and a nil error.
type RegisterResult struct {
	Person    store.PersonRecord
	Delivered bool
	Message   string
}

func (s *RegistrationService) Register(ctx context.Context, name, rawPhone string) (RegisterResult, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return RegisterResult{}, err
	}
	ph := phone.Clean(rawPhone)
	if !phone.Valid(ph) {
		return RegisterResult{}, ErrInvalidPhone
	}

	if _, err := s.persons.FindActiveByPhone(ctx, ph); err == nil {
		return RegisterResult{}, ErrPhoneTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return RegisterResult{}, err
	}

	id := credential.NewPersonID()
	payload := s.signer.Issue(id, name, ph)
	now := s.now().UTC()

	rec := store.PersonRecord{
		ID:                 id,
		Name:               name,
		Phone:              ph,
		QRPayload:          payload.String(),
		NotificationStatus: store.StatusPending,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.persons.InsertPerson(ctx, rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return RegisterResult{}, ErrPhoneTaken
		}
		return RegisterResult{}, err
	}

	s.logger.InfoContext(ctx, "person registered",
		slog.String("person_id", id),
		slog.String("name", credential.MaskName(name)),
		slog.String("phone", credential.MaskPhone(ph)))

	return s.deliver(ctx, rec, "registered"), nil
}

// Resend issues a fresh credential, which revokes the previous one, and
// delivers it.
func (s *RegistrationService) Resend(ctx context.Context, id string) (RegisterResult, error) {
	p, err := s.persons.GetPerson(ctx, id)
	if err != nil {
		return RegisterResult{}, mapPersonErr(err)
	}
	if !p.Active {
		return RegisterResult{}, ErrPersonInactive
	}

	payload := s.signer.Issue(p.ID, p.Name, p.Phone)
	now := s.now().UTC()
	if err := s.persons.UpdatePayload(ctx, p.ID, payload.String(), now); err != nil {
		return RegisterResult{}, mapPersonErr(err)
	}
	p.QRPayload = payload.String()
	p.UpdatedAt = now

	return s.deliver(ctx, p, "credential reissued"), nil
}

func (s *RegistrationService) deliver(ctx context.Context, p store.PersonRecord, what string) RegisterResult {
	status, err := s.notifier.DeliverCredential(ctx, p)
	p.NotificationStatus = status
	if err != nil {
		return RegisterResult{
			Person:  p,
			Message: fmt.Sprintf("%s, but the QR code could not be sent: %v", what, err),
		}
	}
	return RegisterResult{
		Person:    p,
		Delivered: true,
		Message:   what + " and QR code sent",
	}
}

func (s *RegistrationService) Deactivate(ctx context.Context, id string) error {
	return mapPersonErr(s.persons.SetActive(ctx, id, false, s.now().UTC()))
}

// Activate fails with ErrPhoneTaken when another active person registered
// the same phone in the meantime.
func (s *RegistrationService) Activate(ctx context.Context, id string) error {
	err := s.persons.SetActive(ctx, id, true, s.now().UTC())
	if errors.Is(err, store.ErrConflict) {
		return ErrPhoneTaken
	}
	return mapPersonErr(err)
}

func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	if err := s.persons.DeletePerson(ctx, id); err != nil {
		return mapPersonErr(err)
	}
	s.logger.InfoContext(ctx, "person deleted", slog.String("person_id", id))
	return nil
}

func (s *RegistrationService) Get(ctx context.Context, id string) (store.PersonRecord, error) {
	p, err := s.persons.GetPerson(ctx, id)
	return p, mapPersonErr(err)
}

func (s *RegistrationService) List(ctx context.Context, activeOnly bool) ([]store.PersonRecord, error) {
	return s.persons.ListPersons(ctx, activeOnly)
}

// CredentialPNG renders the person's current credential.
func (s *RegistrationService) CredentialPNG(ctx context.Context, id string, size int) ([]byte, error) {
	p, err := s.persons.GetPerson(ctx, id)
	if err != nil {
		return nil, mapPersonErr(err)
	}
	return qrimage.PNG(p.QRPayload, size)
}

// ExpiresAt reports when p's current credential stops being accepted.
// ok is false if the stored payload cannot be parsed.
func (s *RegistrationService) ExpiresAt(p store.PersonRecord) (time.Time, bool) {
	pl, err := credential.Parse(p.QRPayload)
	if err != nil {
		return time.Time{}, false
	}
	return s.signer.ExpiresAt(pl), true
}

func validateName(name string) error {
	if err := credential.ValidateInput(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if utf8.RuneCountInString(name) < minNameRunes {
		return fmt.Errorf("%w: at least %d characters", ErrInvalidName, minNameRunes)
	}
	if strings.Contains(name, "|") {
		return fmt.Errorf("%w: must not contain '|'", ErrInvalidName)
	}
	return nil
}

func mapPersonErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnknownPerson
	}
	return err
}

func renderTemplate(tpl, name string) string {
	return strings.ReplaceAll(tpl, NamePlaceholder, name)
}
