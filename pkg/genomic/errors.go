package genomic

import "github.com/xtergo/dnaresearch/pkg/apperr"

func errAnchorNotFound(anchorID string) error {
	return apperr.Newf(apperr.NotFound, "anchor %q not found", anchorID)
}
