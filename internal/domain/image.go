package domain

import (
	"time"
)

// Image is an uploaded source photo. The binary lives in storage under
// StorageKey; this record only carries metadata.
type Image struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	Width            int       `json:"width,omitempty"`
	Height           int       `json:"height,omitempty"`
	StorageKey       string    `json:"storage_key"`
	CreatedAt        time.Time `json:"created_at"`
}

func (i *Image) OwnedBy(userID string) bool {
	return i.UserID == userID
}
