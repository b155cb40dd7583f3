package media

import "errors"

var (
	ErrNoUploadSource    = errors.New("send a multipart 'file', a 'url' or a 'dataUrl'")
	ErrMalformedForm     = errors.New("invalid form data")
	ErrUploadFailed      = errors.New("upload failed")
	ErrPersistenceFailed = errors.New("failed to save media record")
	ErrNotFound          = errors.New("media not found")
)

// UploadError reports a provider or transport failure. Message is the provider's text.
type UploadError struct {
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Message == "" {
		return ErrUploadFailed.Error()
	}
	return ErrUploadFailed.Error() + ": " + e.Message
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }

func newUploadError(err error) *UploadError {
	if err == nil {
		return &UploadError{}
	}
	return &UploadError{Message: err.Error(), Err: err}
}

// PersistenceError reports that an upload succeeded but its record could not be written.
// PublicID names the orphaned remote asset.
type PersistenceError struct {
	PublicID string
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return ErrPersistenceFailed.Error()
	}
	return ErrPersistenceFailed.Error() + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistenceFailed }
