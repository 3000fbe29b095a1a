package settings

import (
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/mwalimu/core"
)

// Settings holds the local secrets: the parent PIN and the hosted backend credentials.
type Settings struct {
	PINHash    []byte `json:"pin_hash"`
	BackendURL string `json:"backend_url"`
	BackendKey string `json:"backend_key"`
}

func (s *Settings) SetPIN(pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PINHash = hash
	return nil
}

func (s *Settings) CheckPIN(pin string) error {
	return bcrypt.CompareHashAndPassword(s.PINHash, []byte(pin))
}

// Backend is the public view of the hosted backend credentials.
type Backend struct {
	URL    string `json:"url"`
	HasKey bool   `json:"has_key"`
}

type VerifyPIN struct {
	PIN string `json:"pin" validate:"required,pin"`
}

func (vp *VerifyPIN) Validate(validate *validator.Validate) error {
	vp.PIN = core.CleanString(vp.PIN)
	return validate.Struct(vp)
}

type ChangePIN struct {
	OldPIN     string `json:"old_pin" validate:"required"`
	NewPIN     string `json:"new_pin" validate:"required,pin"`
	NewConfirm string `json:"new_pin_confirm" validate:"required,eqfield=NewPIN"`
}

func (cp *ChangePIN) Validate(validate *validator.Validate) error {
	cp.OldPIN = core.CleanString(cp.OldPIN)
	cp.NewPIN = core.CleanString(cp.NewPIN)
	cp.NewConfirm = core.CleanString(cp.NewConfirm)
	return validate.Struct(cp)
}

type SetBackend struct {
	URL string `json:"url" validate:"required,url"`
	Key string `json:"key" validate:"required"`
}

func (sb *SetBackend) Validate(validate *validator.Validate) error {
	sb.URL = core.CleanString(sb.URL)
	sb.Key = core.CleanString(sb.Key)
	return validate.Struct(sb)
}
