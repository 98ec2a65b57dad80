package llm

import "context"

// VisionRequest is one image-plus-instructions call to a vision-language model.
type VisionRequest struct {
	Image            []byte
	MimeType         string
	Instructions     string
	Temperature      float32
	ResponseMIMEType string // "application/json" asks the provider for a bare JSON body
}

// VisionProvider is the interface extraction depends on. Generate returns the
// model's raw text output; it does not interpret it.
type VisionProvider interface {
	Generate(ctx context.Context, req VisionRequest) (string, error)
	Name() string
}
