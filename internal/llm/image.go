package llm

import "encoding/base64"

// EncodeBase64 returns the standard base64 encoding providers expect for inline images.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DataURL packs image bytes into a data: URL.
func DataURL(mimeType string, b []byte) string {
	return "data:" + mimeType + ";base64," + EncodeBase64(b)
}
