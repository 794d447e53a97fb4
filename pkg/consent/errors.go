package consent

import "github.com/xtergo/dnaresearch/pkg/apperr"

func errFormNotFound(formID string) error {
	return apperr.Newf(apperr.NotFound, "consent form %q not found", formID)
}

func errMissingFields(fields []string) error {
	return apperr.New(apperr.Validation, "required field(s) missing from submitted data").WithDetail(fields...)
}

func errInvalidSignature() error {
	return apperr.New(apperr.Unauthorized, "digital signature does not match consent text and submitted data")
}
