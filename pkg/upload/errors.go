package upload

import "github.com/xtergo/dnaresearch/pkg/apperr"

func errUnsupportedType(fileType string) error {
	return apperr.Newf(apperr.Validation, "unsupported file type %q", fileType)
}

func errBadExtension(filename string, fileType FileType) error {
	return apperr.Newf(apperr.Validation, "filename %q has an extension not allowed for %s", filename, fileType)
}

func errSizeExceeded(fileType FileType, size, max int64) error {
	return apperr.Newf(apperr.Validation, "size %d exceeds the %d byte limit for %s", size, max, fileType)
}

func errUploadNotFound(uploadID string) error {
	return apperr.Newf(apperr.NotFound, "upload %q not found", uploadID)
}
