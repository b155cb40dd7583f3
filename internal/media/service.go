package media

import (
	"context"
	"errors"
	"strings"
	"time"

	"media-backend/internal/queue"
	"media-backend/internal/shared/metrics"
	"media-backend/internal/shared/storage/object"
	"media-backend/internal/shared/telemetry"
)

var errOwnerRequired = errors.New("owner id required")

// Service contains business logic for media assets.
type Service struct {
	Repo     Repo
	Uploader Uploader
	Provider object.Provider
	Resolver Resolver
	Events   queue.Client
}

// NewService wires a Service that uploads through provider.
func NewService(repo Repo, provider object.Provider, resolver Resolver, events queue.Client) *Service {
	return &Service{
		Repo:     repo,
		Uploader: &Coordinator{Provider: provider},
		Provider: provider,
		Resolver: resolver,
		Events:   events,
	}
}

// Ingest resolves the payload, uploads it and records exactly one Asset.
// No record is written unless the provider confirmed the upload.
func (s *Service) Ingest(ctx context.Context, ownerID string, p Payload) (IngestResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return IngestResult{}, errOwnerRequired
	}

	resolved, err := s.Resolver.Resolve(p)
	if err != nil {
		metrics.IncUpload("none", outcomeFor(err))
		return IngestResult{}, err
	}
	shape := resolved.Source.Shape()

	start := time.Now()
	res, err := s.Uploader.Upload(ctx, resolved.Source, resolved.Meta.Options())
	metrics.ObserveUploadDuration(shape, time.Since(start))
	if err != nil {
		metrics.IncUpload(shape, outcomeFor(err))
		telemetry.Error("media.upload.failed", map[string]any{
			"source":   shape,
			"owner_id": ownerID,
			"error":    err,
		})
		return IngestResult{}, err
	}

	kind := ParseResourceKind(res.ResourceType)
	if strings.TrimSpace(res.ResourceType) == "" {
		kind = resolved.Meta.Kind
	}

	asset, err := s.Repo.Create(ctx, Asset{
		URL:          res.SecureURL,
		StorageKey:   res.PublicID,
		ResourceKind: kind,
		Format:       res.Format,
		ByteSize:     res.Bytes,
		OwnerID:      ownerID,
	})
	if err != nil {
		metrics.IncUpload(shape, "persistence_failed")
		telemetry.Error("media.persist.failed", map[string]any{
			"public_id": res.PublicID,
			"url":       res.SecureURL,
			"owner_id":  ownerID,
			"error":     err,
		})
		return IngestResult{}, &PersistenceError{PublicID: res.PublicID, Err: err}
	}

	metrics.IncUpload(shape, "created")
	telemetry.Info("media.created", map[string]any{
		"media_id":  asset.ID,
		"public_id": asset.StorageKey,
		"source":    shape,
		"bytes":     asset.ByteSize,
	})
	s.publish(ctx, queue.EventMediaCreated, asset)

	return IngestResult{Asset: asset, Upload: res}, nil
}

// List returns assets newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Asset, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Get returns one asset.
func (s *Service) Get(ctx context.Context, id string) (Asset, error) {
	if strings.TrimSpace(id) == "" {
		return Asset{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// Delete destroys the remote asset (best effort) and removes the record.
func (s *Service) Delete(ctx context.Context, id string) error {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	remote := "ok"
	if s.Provider != nil {
		if err := s.Provider.Destroy(ctx, asset.StorageKey, string(asset.ResourceKind)); err != nil {
			remote = "failed"
			telemetry.Warn("media.destroy.failed", map[string]any{
				"media_id":  asset.ID,
				"public_id": asset.StorageKey,
				"error":     err,
			})
		}
	}
	metrics.IncDelete(remote)

	if err := s.Repo.Delete(ctx, asset.ID); err != nil {
		return err
	}
	s.publish(ctx, queue.EventMediaDeleted, asset)
	return nil
}

// SignUpload returns signed parameters for a browser-side upload. An empty
// preset falls back to the configured default.
func (s *Service) SignUpload(ctx context.Context, uploadPreset string) (object.UploadSignature, error) {
	if err := ctx.Err(); err != nil {
		return object.UploadSignature{}, err
	}
	signer, ok := s.Provider.(object.Signer)
	if !ok {
		return object.UploadSignature{}, object.ErrSigningUnsupported
	}
	if uploadPreset = strings.TrimSpace(uploadPreset); uploadPreset == "" {
		uploadPreset = s.Resolver.DefaultPreset
	}
	return signer.SignUpload(time.Now().Unix(), uploadPreset)
}

func (s *Service) publish(ctx context.Context, eventType string, asset Asset) {
	if s.Events == nil {
		return
	}
	msg := queue.Message{
		Type:       eventType,
		MediaID:    asset.ID,
		PublicID:   asset.StorageKey,
		OwnerID:    asset.OwnerID,
		RequestID:  requestIDFrom(ctx),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.Send(ctx, msg); err != nil {
		telemetry.Warn("media.event.failed", map[string]any{
			"type":     eventType,
			"media_id": asset.ID,
			"error":    err,
		})
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrNoUploadSource):
		return "no_source"
	case errors.Is(err, ErrMalformedForm):
		return "malformed"
	case errors.Is(err, ErrUploadFailed):
		return "upload_failed"
	default:
		return "error"
	}
}

type requestIDKey struct{}

// WithRequestID attaches a request ID used to correlate lifecycle events.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
