package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"media-backend/internal/shared/storage/object"
	"media-backend/internal/shared/util"
)

// Store implements object.Provider using the local filesystem.
type Store struct {
	baseDir       string
	publicBaseURL string

	// Remote downloads URL uploads; nil means object.DefaultFetcher.
	Remote *object.Fetcher
}

// New creates a new local object store rooted at baseDir. Stored files are
// addressed as publicBaseURL + "/" + key.
func New(baseDir, publicBaseURL string) *Store {
	return &Store{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// Dir returns the root directory holding stored files.
func (s *Store) Dir() string {
	return s.baseDir
}

// UploadStream opens a streaming upload that lands on disk when closed.
func (s *Store) UploadStream(ctx context.Context, opts object.UploadOptions) (object.StreamUpload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return object.NewPipeUpload(ctx, func(ctx context.Context, r io.Reader) (object.Result, error) {
		return s.save(ctx, opts, r)
	}), nil
}

// UploadFromURL downloads rawURL and stores it.
func (s *Store) UploadFromURL(ctx context.Context, rawURL string, opts object.UploadOptions) (object.Result, error) {
	body, err := s.fetcher().Fetch(ctx, rawURL, opts.MaxBytes)
	if err != nil {
		return object.Result{}, err
	}
	defer body.Close()

	if opts.FileName == "" {
		if u, err := url.Parse(rawURL); err == nil {
			opts.FileName = path.Base(u.Path)
		}
	}
	return s.save(ctx, opts, body)
}

func (s *Store) fetcher() *object.Fetcher {
	if s.Remote != nil {
		return s.Remote
	}
	return object.DefaultFetcher
}

// Destroy removes a stored file. Missing files are not an error.
func (s *Store) Destroy(ctx context.Context, publicID, resourceType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(publicID)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, opts object.UploadOptions, r io.Reader) (object.Result, error) {
	folder, err := cleanFolder(opts.Folder)
	if err != nil {
		return object.Result{}, err
	}

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return object.Result{}, fmt.Errorf("read sniff: %w", readErr)
	}
	mimeType := http.DetectContentType(sniff[:n])

	if err := ctx.Err(); err != nil {
		return object.Result{}, err
	}

	ext := util.FileExtension(opts.FileName, mimeType)
	key := util.ObjectKey(folder, ext)

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return object.Result{}, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return object.Result{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	size := int64(0)
	if n > 0 {
		if _, err := f.Write(sniff[:n]); err != nil {
			return object.Result{}, fmt.Errorf("write sniff: %w", err)
		}
		size += int64(n)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(fullPath)
		return object.Result{}, fmt.Errorf("write body: %w", err)
	}
	size += written

	kind := opts.ResourceKind
	if kind == "" || kind == "auto" {
		kind = object.KindFromContentType(mimeType)
	}

	return object.Result{
		SecureURL:    s.publicBaseURL + "/" + key,
		PublicID:     key,
		ResourceType: kind,
		Format:       strings.TrimPrefix(ext, "."),
		Bytes:        size,
	}, nil
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, clean), nil
}

func cleanFolder(folder string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return "", nil
	}
	if strings.Contains(folder, "..") {
		return "", fmt.Errorf("invalid folder")
	}
	return path.Clean(folder), nil
}

var _ object.Provider = (*Store)(nil)
