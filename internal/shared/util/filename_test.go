package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"photo.PNG", "photo.PNG", false},
		{"  clip.mp4 ", "clip.mp4", false},
		{"nested/dir/clip.mp4", "clip.mp4", false},
		{`C:\Users\me\notes.txt`, "notes.txt", false},
		{"../etc/passwd", "", true},
		{"   ", "", true},
		{"/", "", true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("SanitizeFileName(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileExtension(t *testing.T) {
	if got := FileExtension("Photo.JPG", "image/png"); got != ".jpg" {
		t.Fatalf("name should win, got %q", got)
	}
	if got := FileExtension("", "image/png"); got != ".png" {
		t.Fatalf("expected .png from mime type, got %q", got)
	}
	if got := FileExtension("../x.png", "application/x-unknown-thing"); got != "" {
		t.Fatalf("expected no extension, got %q", got)
	}
}

func TestObjectKey(t *testing.T) {
	a := ObjectKey("/media/", ".png")
	b := ObjectKey("media", ".png")
	if !strings.HasPrefix(a, "media/") || !strings.HasSuffix(a, ".png") {
		t.Fatalf("unexpected key %q", a)
	}
	if a == b {
		t.Fatalf("keys must be unique")
	}
	if strings.Contains(strings.TrimPrefix(a, "media/"), "-") {
		t.Fatalf("stem must not contain dashes: %q", a)
	}
	if got := ObjectKey("", ""); strings.Contains(got, "/") || len(got) != 32 {
		t.Fatalf("unexpected bare key %q", got)
	}
}
