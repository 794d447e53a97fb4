package theory

import "github.com/xtergo/dnaresearch/pkg/apperr"

func errValidationFailed(errs []string) error {
	return apperr.New(apperr.Validation, "theory validation failed").WithDetail(errs...)
}

func errTheoryNotFound(id, version string) error {
	return apperr.Newf(apperr.NotFound, "theory %q version %q not found", id, version)
}

func errDuplicateTheory(id, version string) error {
	return apperr.Newf(apperr.Conflict, "theory %q version %q already exists", id, version)
}
