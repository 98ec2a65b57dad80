package constants

import "strings"

// SupportedImageMimeTypes holds the MIME types the vision providers accept for receipts.
var SupportedImageMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/heic": {},
	"image/heif": {},
}

// mimeByExt maps lowercase file extensions (without '.') to their image MIME type.
var mimeByExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeMimeType lowercases a declared content type and drops any parameters
// ("image/JPEG; charset=binary" -> "image/jpeg").
func NormalizeMimeType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}

// IsSupportedImageMimeType reports whether mt can be sent to the vision provider.
func IsSupportedImageMimeType(mt string) bool {
	_, ok := SupportedImageMimeTypes[NormalizeMimeType(mt)]
	return ok
}

// MimeTypeForExt returns the image MIME type for a file extension, or "" if unknown.
func MimeTypeForExt(ext string) string {
	return mimeByExt[NormalizeExt(ext)]
}
