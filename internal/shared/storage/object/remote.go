package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// DefaultMaxRemoteBytes caps a remote download when the caller sets no limit.
const DefaultMaxRemoteBytes int64 = 50 << 20

var (
	// ErrInvalidRemoteURL is returned for URLs that are not absolute http or https URLs.
	ErrInvalidRemoteURL = errors.New("remote url must be an absolute http or https url")
	// ErrRemoteHostForbidden is returned when a remote URL resolves to a non-public address.
	ErrRemoteHostForbidden = errors.New("remote url resolves to a forbidden address")
	// ErrRemoteTooLarge is returned when a remote body exceeds the upload ceiling.
	ErrRemoteTooLarge = errors.New("remote file exceeds the upload size limit")
)

// AddressPolicy decides whether a resolved "ip:port" may be dialed.
type AddressPolicy func(address string) bool

// PublicAddress refuses loopback, private, link-local, shared (CGNAT),
// multicast and unspecified addresses.
func PublicAddress(address string) bool {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
		return false
	}
	return !sharedAddressSpace.Contains(ip)
}

var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// Fetcher downloads remote files for providers that cannot ingest URLs
// natively. The address policy runs on every dial, so redirects and DNS
// answers are checked too.
type Fetcher struct {
	client *http.Client
}

// NewFetcher builds a Fetcher. A nil policy permits every address.
func NewFetcher(policy AddressPolicy) *Fetcher {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	if policy != nil {
		dialer.Control = func(network, address string, _ syscall.RawConn) error {
			if !policy(address) {
				return fmt.Errorf("%w: %s", ErrRemoteHostForbidden, address)
			}
			return nil
		}
	}
	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Fetcher{client: &http.Client{
		Timeout:   2 * time.Minute,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("fetch remote: too many redirects")
			}
			return ValidateRemoteURL(req.URL.String())
		},
	}}
}

// DefaultFetcher only reaches public addresses.
var DefaultFetcher = NewFetcher(PublicAddress)

// ValidateRemoteURL checks that raw is an absolute http(s) URL.
func ValidateRemoteURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ErrInvalidRemoteURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidRemoteURL
	}
	return nil
}

// Fetch opens the body of raw. Reading more than maxBytes fails with
// ErrRemoteTooLarge; maxBytes <= 0 means DefaultMaxRemoteBytes.
func (f *Fetcher) Fetch(ctx context.Context, raw string, maxBytes int64) (io.ReadCloser, error) {
	if err := ValidateRemoteURL(raw); err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRemoteBytes
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("build remote request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch remote: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch remote: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxBytes {
		resp.Body.Close()
		return nil, ErrRemoteTooLarge
	}
	return &cappedBody{body: resp.Body, r: io.LimitReader(resp.Body, maxBytes+1), remaining: maxBytes}, nil
}

// FetchRemote fetches through DefaultFetcher.
func FetchRemote(ctx context.Context, raw string, maxBytes int64) (io.ReadCloser, error) {
	return DefaultFetcher.Fetch(ctx, raw, maxBytes)
}

type cappedBody struct {
	body      io.Closer
	r         io.Reader
	remaining int64
}

func (c *cappedBody) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return 0, ErrRemoteTooLarge
	}
	return n, err
}

func (c *cappedBody) Close() error { return c.body.Close() }
