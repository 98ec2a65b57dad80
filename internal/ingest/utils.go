package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipt-ledger/constants"
)

// AllowedExt checks if a file extension maps to an image type the vision providers accept.
func AllowedExt(ext string) bool {
	return constants.IsSupportedImageMimeType(constants.MimeTypeForExt(ext))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
