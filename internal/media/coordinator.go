package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"media-backend/internal/shared/storage/object"
)

// Uploader sends a resolved source to object storage.
type Uploader interface {
	Upload(ctx context.Context, src Source, opts object.UploadOptions) (object.Result, error)
}

// Coordinator drives one provider conversation per call. Multipart and base64
// sources are streamed; remote URLs are handed to the provider directly.
// Failures are returned as *UploadError and never retried.
type Coordinator struct {
	Provider object.Provider
}

// Upload implements Uploader.
func (c *Coordinator) Upload(ctx context.Context, src Source, opts object.UploadOptions) (object.Result, error) {
	if c == nil || c.Provider == nil {
		return object.Result{}, newUploadError(errors.New("object storage not configured"))
	}

	switch s := src.(type) {
	case MultipartSource:
		if s.File == nil {
			return object.Result{}, ErrNoUploadSource
		}
		f, err := s.File.Open()
		if err != nil {
			return object.Result{}, fmt.Errorf("%w: %v", ErrMalformedForm, err)
		}
		defer f.Close()
		opts.FileName = s.File.Filename
		return c.stream(ctx, f, opts)
	case Base64Source:
		return c.stream(ctx, bytes.NewReader(s.Data), opts)
	case RemoteURLSource:
		res, err := c.Provider.UploadFromURL(ctx, s.URL, opts)
		if err != nil {
			return object.Result{}, newUploadError(err)
		}
		return res, nil
	default:
		return object.Result{}, ErrNoUploadSource
	}
}

func (c *Coordinator) stream(ctx context.Context, r io.Reader, opts object.UploadOptions) (object.Result, error) {
	up, err := c.Provider.UploadStream(ctx, opts)
	if err != nil {
		return object.Result{}, newUploadError(err)
	}

	if _, copyErr := io.Copy(up, r); copyErr != nil {
		_ = up.CloseWithError(copyErr)
		out, err := wait(ctx, up)
		if err == nil && out.Err != nil {
			err = out.Err
		}
		if err == nil {
			err = copyErr
		}
		return object.Result{}, newUploadError(err)
	}
	if err := up.Close(); err != nil {
		return object.Result{}, newUploadError(err)
	}

	out, err := wait(ctx, up)
	if err != nil {
		return object.Result{}, newUploadError(err)
	}
	if out.Err != nil {
		return object.Result{}, newUploadError(out.Err)
	}
	return out.Result, nil
}

func wait(ctx context.Context, up object.StreamUpload) (object.Outcome, error) {
	select {
	case out, ok := <-up.Done():
		if !ok {
			return object.Outcome{}, errors.New("upload stream closed without a result")
		}
		return out, nil
	case <-ctx.Done():
		return object.Outcome{}, ctx.Err()
	}
}
