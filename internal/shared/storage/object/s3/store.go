package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"media-backend/internal/shared/storage/object"
	"media-backend/internal/shared/util"
)

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type deleteAPI interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements object.Provider using Amazon S3.
type Store struct {
	uploader      uploadAPI
	client        deleteAPI
	bucket        string
	prefix        string
	kmsKeyID      string
	publicBaseURL string

	// Remote downloads URL uploads; nil means object.DefaultFetcher.
	Remote *object.Fetcher
}

// Options configures the S3 provider.
type Options struct {
	Region        string
	Bucket        string
	Prefix        string
	KMSKeyID      string
	PublicBaseURL string
}

// New creates a new S3-backed provider.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &Store{
		uploader:      manager.NewUploader(client),
		client:        client,
		bucket:        opts.Bucket,
		prefix:        normalizePrefix(opts.Prefix),
		kmsKeyID:      strings.TrimSpace(opts.KMSKeyID),
		publicBaseURL: publicBase(opts),
	}, nil
}

// UploadStream opens a multipart upload fed by the returned writer.
func (s *Store) UploadStream(ctx context.Context, opts object.UploadOptions) (object.StreamUpload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return object.NewPipeUpload(ctx, func(ctx context.Context, r io.Reader) (object.Result, error) {
		return s.put(ctx, opts, r)
	}), nil
}

// UploadFromURL fetches rawURL and streams it into the bucket.
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
	return s.put(ctx, opts, body)
}

func (s *Store) fetcher() *object.Fetcher {
	if s.Remote != nil {
		return s.Remote
	}
	return object.DefaultFetcher
}

// Destroy deletes the object stored under publicID.
func (s *Store) Destroy(ctx context.Context, publicID, resourceType string) error {
	objectKey := applyPrefix(s.prefix, publicID)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, opts object.UploadOptions, r io.Reader) (object.Result, error) {
	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return object.Result{}, fmt.Errorf("read sniff: %w", readErr)
	}
	mimeType := http.DetectContentType(sniff[:n])

	ext := util.FileExtension(opts.FileName, mimeType)
	storageKey := util.ObjectKey(opts.Folder, ext)
	objectKey := applyPrefix(s.prefix, storageKey)

	counter := &countingReader{r: io.MultiReader(bytes.NewReader(sniff[:n]), r)}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        counter,
		ContentType: aws.String(mimeType),
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	out, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return object.Result{}, fmt.Errorf("s3 upload bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}

	secureURL := out.Location
	if s.publicBaseURL != "" {
		secureURL = s.publicBaseURL + "/" + objectKey
	}
	kind := opts.ResourceKind
	if kind == "" || kind == "auto" {
		kind = object.KindFromContentType(mimeType)
	}

	return object.Result{
		SecureURL:    secureURL,
		PublicID:     storageKey,
		ResourceType: kind,
		Format:       strings.TrimPrefix(ext, "."),
		Bytes:        counter.n,
	}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func publicBase(opts Options) string {
	if base := strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/"); base != "" {
		return base
	}
	if opts.Region == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.Provider = (*Store)(nil)
