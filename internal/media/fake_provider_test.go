package media

import (
	"context"
	"errors"
	"io"
	"sync"

	"media-backend/internal/queue"
	"media-backend/internal/shared/storage/object"
)

var errInvalidImage = errors.New("Invalid image file")

// fakeProvider records every provider conversation.
type fakeProvider struct {
	mu sync.Mutex

	streams    int
	urlUploads int
	destroys   []string

	received   []byte
	lastOpts   object.UploadOptions
	result     object.Result
	uploadErr  error
	destroyErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{result: object.Result{
		SecureURL:    "https://cdn.example.com/media/abc.png",
		PublicID:     "media/abc",
		ResourceType: "image",
		Format:       "png",
		Bytes:        4,
	}}
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams + f.urlUploads
}

func (f *fakeProvider) UploadStream(ctx context.Context, opts object.UploadOptions) (object.StreamUpload, error) {
	f.mu.Lock()
	f.streams++
	f.lastOpts = opts
	f.mu.Unlock()

	return object.NewPipeUpload(ctx, func(ctx context.Context, r io.Reader) (object.Result, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return object.Result{}, err
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.received = data
		if f.uploadErr != nil {
			return object.Result{}, f.uploadErr
		}
		res := f.result
		res.Bytes = int64(len(data))
		return res, nil
	}), nil
}

func (f *fakeProvider) UploadFromURL(ctx context.Context, rawURL string, opts object.UploadOptions) (object.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urlUploads++
	f.lastOpts = opts
	if f.uploadErr != nil {
		return object.Result{}, f.uploadErr
	}
	return f.result, nil
}

func (f *fakeProvider) Destroy(ctx context.Context, publicID, resourceType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys = append(f.destroys, publicID)
	return f.destroyErr
}

// signingProvider adds upload signing to fakeProvider.
type signingProvider struct {
	*fakeProvider
}

func (p *signingProvider) SignUpload(timestamp int64, uploadPreset string) (object.UploadSignature, error) {
	return object.UploadSignature{
		Timestamp:    timestamp,
		UploadPreset: uploadPreset,
		APIKey:       "key",
		CloudName:    "demo",
		Signature:    "sig",
	}, nil
}

// failingRepo rejects every write.
type failingRepo struct {
	*MemoryRepo
	creates int
}

func (r *failingRepo) Create(ctx context.Context, asset Asset) (Asset, error) {
	r.creates++
	return Asset{}, errors.New("write refused")
}

// countingRepo counts successful writes.
type countingRepo struct {
	*MemoryRepo
	creates int
}

func (r *countingRepo) Create(ctx context.Context, asset Asset) (Asset, error) {
	r.creates++
	return r.MemoryRepo.Create(ctx, asset)
}

type recordingEvents struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (e *recordingEvents) Send(ctx context.Context, msg queue.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, msg.Type)
	return e.err
}
