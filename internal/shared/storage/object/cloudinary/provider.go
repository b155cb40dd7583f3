package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"media-backend/internal/shared/storage/object"
)

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Provider implements object.Provider on top of the Cloudinary upload API.
type Provider struct {
	upload    uploadAPI
	cloudName string
	apiKey    string
	apiSecret string
}

// New builds a Provider from account credentials.
func New(cloudName, apiKey, apiSecret string) (*Provider, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	return &Provider{
		upload:    &cld.Upload,
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}, nil
}

// UploadStream opens an upload whose body is the bytes written to the returned stream.
func (p *Provider) UploadStream(ctx context.Context, opts object.UploadOptions) (object.StreamUpload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := uploadParams(opts)
	return object.NewPipeUpload(ctx, func(ctx context.Context, r io.Reader) (object.Result, error) {
		resp, err := p.upload.Upload(ctx, r, params)
		return toResult(resp, err)
	}), nil
}

// UploadFromURL asks Cloudinary to fetch rawURL itself.
func (p *Provider) UploadFromURL(ctx context.Context, rawURL string, opts object.UploadOptions) (object.Result, error) {
	// The SDK treats non-URL strings as local paths.
	if err := object.ValidateRemoteURL(rawURL); err != nil {
		return object.Result{}, err
	}
	resp, err := p.upload.Upload(ctx, rawURL, uploadParams(opts))
	return toResult(resp, err)
}

// Destroy removes a remote asset.
func (p *Provider) Destroy(ctx context.Context, publicID, resourceType string) error {
	params := uploader.DestroyParams{PublicID: publicID}
	if rt := strings.TrimSpace(resourceType); rt != "" && rt != "auto" {
		params.ResourceType = rt
	}
	resp, err := p.upload.Destroy(ctx, params)
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp != nil && resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	return nil
}

// SignUpload signs timestamp and upload_preset for a browser-side upload.
func (p *Provider) SignUpload(timestamp int64, uploadPreset string) (object.UploadSignature, error) {
	if p.apiSecret == "" {
		return object.UploadSignature{}, errors.New("cloudinary api secret not configured")
	}
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	if uploadPreset != "" {
		params.Set("upload_preset", uploadPreset)
	}
	sig, err := api.SignParameters(params, p.apiSecret)
	if err != nil {
		return object.UploadSignature{}, fmt.Errorf("sign parameters: %w", err)
	}
	return object.UploadSignature{
		Timestamp:    timestamp,
		UploadPreset: uploadPreset,
		APIKey:       p.apiKey,
		CloudName:    p.cloudName,
		Signature:    sig,
	}, nil
}

func uploadParams(opts object.UploadOptions) uploader.UploadParams {
	params := uploader.UploadParams{
		Folder:       opts.Folder,
		UploadPreset: opts.UploadPreset,
		ResourceType: opts.ResourceKind,
	}
	if params.ResourceType == "" {
		params.ResourceType = "auto"
	}
	return params
}

func toResult(resp *uploader.UploadResult, err error) (object.Result, error) {
	if err != nil {
		return object.Result{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp == nil {
		return object.Result{}, errors.New("cloudinary upload: empty response")
	}
	if resp.Error.Message != "" {
		return object.Result{}, errors.New(resp.Error.Message)
	}
	return object.Result{
		SecureURL:    resp.SecureURL,
		PublicID:     resp.PublicID,
		ResourceType: resp.ResourceType,
		Format:       resp.Format,
		Bytes:        int64(resp.Bytes),
	}, nil
}

var (
	_ object.Provider = (*Provider)(nil)
	_ object.Signer   = (*Provider)(nil)
)
