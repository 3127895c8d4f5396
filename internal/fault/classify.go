package fault

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Classify turns err into an Event, most specific kind first. Wrapped errors
// are inspected with errors.As / errors.Is. A nil err yields nil; any error
// that matches nothing more specific is a generic failure.
func Classify(err error) *Event {
	if err == nil {
		return nil
	}

	var cve *ConstraintViolationError
	if errors.As(err, &cve) {
		return NewConstraintViolation(err, cve.Violations)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewConstraintViolation(err, FromValidator(verrs))
	}

	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewValidation(err)
	}

	var we *WebRequestError
	if errors.As(err, &we) {
		return NewWebRequest(we.Status, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewWebRequest(http.StatusNotFound, err)
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return NewWebRequest(http.StatusRequestEntityTooLarge, err)
	}

	return NewGeneric(err)
}
