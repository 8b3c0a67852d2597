package client

import (
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

const errPastExpiry = "Expiry date must be in the future"

var (
	formValidate   *validator.Validate
	formTranslator ut.Translator
	formsOnce      sync.Once
)

func validate() (*validator.Validate, ut.Translator) {
	formsOnce.Do(func() {
		formTranslator = core.NewTranslator()
		formValidate = validator.New()
		core.InitValidators(formValidate, formTranslator)
		user.InitValidators(formValidate, formTranslator)
	})
	return formValidate, formTranslator
}

type form interface {
	Validate(validate *validator.Validate) error
}

// checkForm runs the validation the API would run on f.
func checkForm(f form) error {
	v, _ := validate()
	return formError(f.Validate(v))
}

func checkRegistration(nu user.NewUser) error {
	v, _ := validate()
	return formError(v.Struct(nu))
}

// checkPoll also requires a future expiry, evaluated at now.
func checkPoll(f form, expiresAt *time.Time, now time.Time) error {
	if err := checkForm(f); err != nil {
		return err
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return &FormError{Fields: map[string]string{"expiresAt": errPastExpiry}}
	}
	return nil
}

func formError(err error) error {
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		_, translator := validate()
		fields := make(map[string]string, len(vErrs))
		for _, vErr := range vErrs {
			fields[vErr.Field()] = vErr.Translate(translator)
		}
		return &FormError{Fields: fields}
	}

	var valErr *core.ValidationError
	if errors.As(err, &valErr) {
		fields := make(map[string]string, len(valErr.Fields))
		for _, fErr := range valErr.Fields {
			fields[fErr.Field] = fErr.Error
		}
		if len(fields) == 0 {
			fields["error"] = valErr.Error()
		}
		return &FormError{Fields: fields}
	}
	return err
}
