package enrollment

import (
	"console/internal/configuration"
	apierrors "console/internal/errors"

	"github.com/go-playground/validator/v10"
)

var codeValidator = validator.New()

// SanitizeCode is the input-layer rule for the verification code field:
// digits only, clipped to the exact code length. Applied on every keystroke
// so the field can never hold an unsubmittable value longer than the code.
func SanitizeCode(raw string) string {
	out := make([]rune, 0, configuration.VerificationCodeLength)
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		out = append(out, r)
		if len(out) == configuration.VerificationCodeLength {
			break
		}
	}
	return string(out)
}

// CodeComplete gates submission: exactly six digits, nothing else.
func CodeComplete(code string) bool {
	return ValidateCode(code) == nil
}

// ValidateCode checks a candidate verification code locally. A failure here
// never results in a network call.
func ValidateCode(code string) error {
	if err := codeValidator.Var(code, "required,len=6,numeric"); err != nil {
		return apierrors.NewValidationError(apierrors.CodeMalformedCode)
	}
	return nil
}
