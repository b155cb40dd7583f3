package media

import (
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"strings"

	"media-backend/internal/shared/storage/object"
)

// fileFieldAliases lists the multipart fields that may carry the file, in precedence order.
var fileFieldAliases = []string{"file", "upload", "image", "media"}

const defaultFolder = "media"

// Payload is the parsed request body, independent of its wire encoding.
type Payload struct {
	Files  map[string][]*multipart.FileHeader
	Fields map[string]string
}

func (p Payload) field(name string) string {
	if p.Fields == nil {
		return ""
	}
	return strings.TrimSpace(p.Fields[name])
}

// Source is one of MultipartSource, RemoteURLSource or Base64Source.
type Source interface {
	Shape() string
	isSource()
}

// MultipartSource is a file part of a multipart body.
type MultipartSource struct {
	Field string
	File  *multipart.FileHeader
}

// RemoteURLSource is a URL the provider fetches itself.
type RemoteURLSource struct {
	URL string
}

// Base64Source is the decoded payload of a data URI.
type Base64Source struct {
	MediaType string
	Data      []byte
}

func (MultipartSource) Shape() string { return "multipart" }
func (RemoteURLSource) Shape() string { return "url" }
func (Base64Source) Shape() string    { return "base64" }

func (MultipartSource) isSource() {}
func (RemoteURLSource) isSource() {}
func (Base64Source) isSource()    {}

// Metadata is the upload metadata resolved alongside the source.
type Metadata struct {
	Folder       string
	Kind         ResourceKind
	UploadPreset string
	MaxBytes     int64
}

// Options converts the metadata into provider upload options.
func (m Metadata) Options() object.UploadOptions {
	return object.UploadOptions{
		Folder:       m.Folder,
		UploadPreset: m.UploadPreset,
		ResourceKind: string(m.Kind),
		MaxBytes:     m.MaxBytes,
	}
}

// Resolved is a classified upload request.
type Resolved struct {
	Source Source
	Meta   Metadata
}

// Resolver classifies payloads. It has no side effects.
type Resolver struct {
	Folder        string
	DefaultPreset string
	// MaxBytes bounds what a provider may download for a url source.
	MaxBytes int64
}

// Resolve picks exactly one source by fixed precedence: a file field, then url, then dataUrl.
func (r Resolver) Resolve(p Payload) (Resolved, error) {
	meta := Metadata{
		Folder:       r.Folder,
		Kind:         ParseResourceKind(p.field("resource_type")),
		UploadPreset: p.field("upload_preset"),
		MaxBytes:     r.MaxBytes,
	}
	if meta.Folder == "" {
		meta.Folder = defaultFolder
	}
	if meta.UploadPreset == "" {
		meta.UploadPreset = r.DefaultPreset
	}

	for _, name := range fileFieldAliases {
		if files := p.Files[name]; len(files) > 0 && files[0] != nil {
			return Resolved{Source: MultipartSource{Field: name, File: files[0]}, Meta: meta}, nil
		}
	}

	if raw := p.field("url"); raw != "" {
		if err := object.ValidateRemoteURL(raw); err != nil {
			return Resolved{}, fmt.Errorf("%w: %v", ErrMalformedForm, err)
		}
		return Resolved{Source: RemoteURLSource{URL: raw}, Meta: meta}, nil
	}

	if raw := p.field("dataUrl"); strings.HasPrefix(raw, "data:") {
		src, err := decodeDataURL(raw)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Source: src, Meta: meta}, nil
	}

	return Resolved{}, ErrNoUploadSource
}

// decodeDataURL decodes "data:[<mediatype>][;base64],<payload>".
func decodeDataURL(raw string) (Base64Source, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return Base64Source{}, fmt.Errorf("%w: data url has no payload", ErrMalformedForm)
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Base64Source{}, fmt.Errorf("%w: data url payload is empty", ErrMalformedForm)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil {
		return Base64Source{}, fmt.Errorf("%w: data url payload is not base64", ErrMalformedForm)
	}
	if len(data) == 0 {
		return Base64Source{}, fmt.Errorf("%w: data url payload is empty", ErrMalformedForm)
	}

	mediaType, _, _ := strings.Cut(header, ";")
	return Base64Source{MediaType: mediaType, Data: data}, nil
}
