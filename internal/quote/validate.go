package quote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrEmpty marks a submission with a blank name or quote.
var ErrEmpty = errors.New("quote: name and quote are required")

var validate = validator.New(validator.WithRequiredStructEnabled())

type submission struct {
	Name string `validate:"required"`
	Text string `validate:"required"`
}

// Limits bounds the accepted field lengths, in runes.
type Limits struct {
	MaxName int
	MaxText int
}

// DefaultLimits returns the caps used by the kiosk form.
func DefaultLimits() Limits {
	return Limits{MaxName: DefaultMaxNameLength, MaxText: DefaultMaxTextLength}
}

// Prepare trims and truncates a raw submission. It returns ErrEmpty when
// either field is blank once trimmed.
func Prepare(name, text string, limits Limits) (string, string, error) {
	name, text = Normalize(name, text)
	if err := validate.Struct(submission{Name: name, Text: text}); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
			return "", "", fmt.Errorf("%w: missing %s", ErrEmpty, strings.Join(fields, ", "))
		}
		return "", "", err
	}
	return Truncate(name, limits.MaxName), Truncate(text, limits.MaxText), nil
}
