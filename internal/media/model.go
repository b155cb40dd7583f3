package media

import (
	"time"

	"media-backend/internal/shared/storage/object"
)

// Asset is the persisted record of one confirmed upload.
type Asset struct {
	ID           string       `json:"id"`
	URL          string       `json:"url"`
	StorageKey   string       `json:"publicId"`
	ResourceKind ResourceKind `json:"resourceType"`
	Format       string       `json:"format,omitempty"`
	ByteSize     int64        `json:"bytes"`
	OwnerID      string       `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// IngestResult pairs the stored Asset with the provider's raw result.
type IngestResult struct {
	Asset  Asset
	Upload object.Result
}
