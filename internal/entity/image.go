package entity

import (
	"time"

	"github.com/google/uuid"
)

// Image represents a stored receipt photo for data transfer between layers.
type Image struct {
	ID             uuid.UUID `json:"id"`
	UploaderID     uuid.UUID `json:"uploader_id"`
	StorageLocator string    `json:"storage_locator"`
	MimeType       string    `json:"mime_type"`
	DisplayURL     string    `json:"display_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
