package storage

import "time"

// FileRecord describes one submitted attachment. It is the lightweight
// descriptor kept in the recent-files index, separate from the blob payload
// so the list can still render when the payload is gone.
//
// Records are immutable once created. The ID is the join key between the
// index and the blob store.
type FileRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}
