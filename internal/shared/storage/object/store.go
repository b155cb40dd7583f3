package object

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrSigningUnsupported is returned by providers that cannot sign client-side uploads.
var ErrSigningUnsupported = errors.New("provider does not support signed uploads")

// UploadOptions carries the per-upload metadata sent to a provider.
type UploadOptions struct {
	Folder       string
	UploadPreset string
	ResourceKind string
	FileName     string
	// MaxBytes bounds server-side downloads of remote URLs.
	MaxBytes int64
}

// Result is what a provider reports after a confirmed upload.
type Result struct {
	SecureURL    string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	Bytes        int64  `json:"bytes"`
}

// Outcome is the single resolution of a streaming upload.
type Outcome struct {
	Result Result
	Err    error
}

// StreamUpload is one open upload conversation. The caller writes the payload,
// then calls Close (or CloseWithError to abort) and waits on Done, which
// delivers exactly one Outcome and is then closed. A StreamUpload is never reused.
type StreamUpload interface {
	io.WriteCloser
	CloseWithError(err error) error
	Done() <-chan Outcome
}

// Provider is the external object storage contract.
type Provider interface {
	UploadStream(ctx context.Context, opts UploadOptions) (StreamUpload, error)
	UploadFromURL(ctx context.Context, rawURL string, opts UploadOptions) (Result, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
}

// UploadSignature is the parameter set a browser needs for a signed direct upload.
type UploadSignature struct {
	Timestamp    int64  `json:"timestamp"`
	UploadPreset string `json:"upload_preset,omitempty"`
	APIKey       string `json:"api_key"`
	CloudName    string `json:"cloud_name"`
	Signature    string `json:"signature"`
}

// Signer is implemented by providers that support signed client-side uploads.
type Signer interface {
	SignUpload(timestamp int64, uploadPreset string) (UploadSignature, error)
}

// KindFromContentType maps a sniffed MIME type onto a resource kind.
func KindFromContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return "image"
	case strings.HasPrefix(ct, "video/"), strings.HasPrefix(ct, "audio/"):
		return "video"
	default:
		return "raw"
	}
}
