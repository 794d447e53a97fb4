package evidence

import "github.com/xtergo/dnaresearch/pkg/apperr"

var errInvalidEvidence = apperr.New(apperr.Validation, "bayes_factor must be strictly positive")
