package ledger

import "github.com/xtergo/dnaresearch/pkg/apperr"

func errEntryNotFound(id string) error {
	return apperr.Newf(apperr.NotFound, "ledger entry %q not found", id)
}

// ErrCompromised is returned by VerifyIntegrity callers when the chain
// fails verification; the ledger does not attempt self-repair.
var ErrCompromised = apperr.New(apperr.Integrity, "ledger integrity verification failed")
