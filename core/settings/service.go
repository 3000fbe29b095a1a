package settings

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
)

const DefaultPIN = "1234"

var (
	// errors
	ErrNotFound   = errors.New("settings not found")
	ErrInvalidPIN = errors.New("invalid PIN")
)

type (
	Repository interface {
		// GetSettings returns ErrNotFound when nothing was saved yet.
		GetSettings(ctx context.Context) (Settings, error)
		SaveSettings(ctx context.Context, s Settings) error
	}

	// CredentialsListener is notified when the backend credentials are replaced.
	CredentialsListener func(oldURL, oldKey string)

	Service interface {
		VerifyPIN(ctx context.Context, pin string) error
		ChangePIN(ctx context.Context, oldPIN, newPIN string) error
		// ResetPIN replaces the PIN without checking the current one.
		ResetPIN(ctx context.Context, pin string) error
		Backend(ctx context.Context) (Backend, error)
		BackendCredentials(ctx context.Context) (url, key string, err error)
		SetBackend(ctx context.Context, url, key string) (Backend, error)
	}

	service struct {
		repo       Repository
		defaultPIN string
		onReplace  CredentialsListener
	}
)

var _ Service = (*service)(nil)

// NewService returns the settings service. defaultPIN is used until the parent changes it.
func NewService(repo Repository, defaultPIN string, onReplace CredentialsListener) Service {
	if !core.IsValidPIN(defaultPIN) {
		defaultPIN = DefaultPIN
	}
	return &service{repo: repo, defaultPIN: defaultPIN, onReplace: onReplace}
}

// load returns the saved settings, initialising them with the default PIN on first use.
func (svc *service) load(ctx context.Context) (Settings, error) {
	s, err := svc.repo.GetSettings(ctx)
	if err == nil {
		return s, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Settings{}, errors.Wrap(err, "getting settings")
	}
	if err = s.SetPIN(svc.defaultPIN); err != nil {
		return Settings{}, errors.Wrap(err, "hashing default PIN")
	}
	if err = svc.repo.SaveSettings(ctx, s); err != nil {
		return Settings{}, errors.Wrap(err, "saving settings")
	}
	return s, nil
}

func (svc *service) VerifyPIN(ctx context.Context, pin string) error {
	s, err := svc.load(ctx)
	if err != nil {
		return err
	}
	if err = s.CheckPIN(pin); err != nil {
		return ErrInvalidPIN
	}
	return nil
}

func (svc *service) ChangePIN(ctx context.Context, oldPIN, newPIN string) error {
	if !core.IsValidPIN(newPIN) {
		return core.NewValidationError(ErrInvalidPIN, core.FieldError{Field: "new_pin", Error: "PIN must be exactly 4 digits"})
	}
	s, err := svc.load(ctx)
	if err != nil {
		return err
	}
	if err = s.CheckPIN(oldPIN); err != nil {
		return core.NewValidationError(ErrInvalidPIN, core.FieldError{Field: "old_pin", Error: ErrInvalidPIN.Error()})
	}
	if err = s.SetPIN(newPIN); err != nil {
		return errors.Wrap(err, "hashing PIN")
	}
	return errors.Wrap(svc.repo.SaveSettings(ctx, s), "saving settings")
}

func (svc *service) ResetPIN(ctx context.Context, pin string) error {
	if !core.IsValidPIN(pin) {
		return core.NewValidationError(ErrInvalidPIN, core.FieldError{Field: "pin", Error: "PIN must be exactly 4 digits"})
	}
	s, err := svc.load(ctx)
	if err != nil {
		return err
	}
	if err = s.SetPIN(pin); err != nil {
		return errors.Wrap(err, "hashing PIN")
	}
	return errors.Wrap(svc.repo.SaveSettings(ctx, s), "saving settings")
}

func (svc *service) Backend(ctx context.Context) (Backend, error) {
	s, err := svc.load(ctx)
	if err != nil {
		return Backend{}, err
	}
	return Backend{URL: s.BackendURL, HasKey: s.BackendKey != ""}, nil
}

func (svc *service) BackendCredentials(ctx context.Context) (string, string, error) {
	s, err := svc.load(ctx)
	if err != nil {
		return "", "", err
	}
	if s.BackendURL == "" || s.BackendKey == "" {
		return "", "", core.ErrMissingBackendKey
	}
	return s.BackendURL, s.BackendKey, nil
}

func (svc *service) SetBackend(ctx context.Context, url, key string) (Backend, error) {
	s, err := svc.load(ctx)
	if err != nil {
		return Backend{}, err
	}
	oldURL, oldKey := s.BackendURL, s.BackendKey
	s.BackendURL, s.BackendKey = url, key
	if err = svc.repo.SaveSettings(ctx, s); err != nil {
		return Backend{}, errors.Wrap(err, "saving settings")
	}
	if svc.onReplace != nil && oldKey != "" && (oldURL != url || oldKey != key) {
		svc.onReplace(oldURL, oldKey)
	}
	return Backend{URL: url, HasKey: key != ""}, nil
}
