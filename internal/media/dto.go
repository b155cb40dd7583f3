package media

import "media-backend/internal/shared/storage/object"

// CreateResponse is the 201 body of a successful ingestion.
type CreateResponse struct {
	Item   Asset         `json:"item"`
	Upload object.Result `json:"upload"`
}

// ListResponse wraps a page of assets.
type ListResponse struct {
	Items []Asset `json:"items"`
}

// ItemResponse wraps one asset.
type ItemResponse struct {
	Item Asset `json:"item"`
}

// SignatureRequest optionally overrides the default upload preset.
type SignatureRequest struct {
	UploadPreset string `json:"upload_preset" form:"upload_preset"`
}
