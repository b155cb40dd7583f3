package local

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-backend/internal/shared/storage/object"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestUploadStreamStoresFile(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "http://localhost:8080/files/")

	up, err := store.UploadStream(context.Background(), object.UploadOptions{Folder: "media", ResourceKind: "auto", FileName: "pic.png"})
	if err != nil {
		t.Fatalf("upload stream: %v", err)
	}
	if _, err := up.Write(pngHeader); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := up.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := <-up.Done()
	if out.Err != nil {
		t.Fatalf("outcome error: %v", out.Err)
	}

	res := out.Result
	if !strings.HasPrefix(res.PublicID, "media/") || !strings.HasSuffix(res.PublicID, ".png") {
		t.Fatalf("unexpected public id %q", res.PublicID)
	}
	if res.ResourceType != "image" {
		t.Fatalf("expected image kind, got %q", res.ResourceType)
	}
	if res.Format != "png" || res.Bytes != int64(len(pngHeader)) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.SecureURL != "http://localhost:8080/files/"+res.PublicID {
		t.Fatalf("unexpected url %q", res.SecureURL)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(res.PublicID))); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	if err := store.Destroy(context.Background(), res.PublicID, res.ResourceType); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(res.PublicID))); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
	if err := store.Destroy(context.Background(), res.PublicID, res.ResourceType); err != nil {
		t.Fatalf("destroy of missing file should succeed: %v", err)
	}
}

func TestUploadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	store := New(t.TempDir(), "http://files")
	store.Remote = object.NewFetcher(nil)
	res, err := store.UploadFromURL(context.Background(), srv.URL+"/images/cat.png", object.UploadOptions{Folder: "media"})
	if err != nil {
		t.Fatalf("upload from url: %v", err)
	}
	if res.Format != "png" || res.ResourceType != "image" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestUploadFromURLRefusesLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("internal-only-credentials"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	store := New(dir, "http://files")
	_, err := store.UploadFromURL(context.Background(), srv.URL+"/secret", object.UploadOptions{Folder: "media"})
	if !errors.Is(err, object.ErrRemoteHostForbidden) {
		t.Fatalf("expected ErrRemoteHostForbidden, got %v", err)
	}
	if entries, _ := os.ReadDir(filepath.Join(dir, "media")); len(entries) != 0 {
		t.Fatalf("nothing may be stored for a forbidden host")
	}
}

func TestUploadFromURLEnforcesMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngHeader)
		w.(http.Flusher).Flush()
		_, _ = w.Write(make([]byte, 4096))
	}))
	defer srv.Close()

	dir := t.TempDir()
	store := New(dir, "http://files")
	store.Remote = object.NewFetcher(nil)
	_, err := store.UploadFromURL(context.Background(), srv.URL+"/big.png", object.UploadOptions{Folder: "media", MaxBytes: 1024})
	if !errors.Is(err, object.ErrRemoteTooLarge) {
		t.Fatalf("expected ErrRemoteTooLarge, got %v", err)
	}
	if entries, _ := os.ReadDir(filepath.Join(dir, "media")); len(entries) != 0 {
		t.Fatalf("oversized download must not leave a file, found %d", len(entries))
	}
}

func TestDestroyRejectsTraversal(t *testing.T) {
	store := New(t.TempDir(), "")
	if err := store.Destroy(context.Background(), "../outside.txt", "raw"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}
