package util

import (
	"errors"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces a client-supplied name to a single safe path
// segment. Traversal attempts are rejected rather than rewritten.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if strings.Contains(s, "..") {
		return "", errInvalidFileName
	}
	s = path.Base(s)
	if s == "." || s == "/" || s == "" {
		return "", errInvalidFileName
	}
	return s, nil
}

// FileExtension picks the stored extension for an upload: the client file
// name wins, then the sniffed MIME type. The result is lower-case and
// includes the leading dot, or is empty.
func FileExtension(fileName, mimeType string) string {
	if fileName != "" {
		if sanitized, err := SanitizeFileName(fileName); err == nil {
			if ext := strings.ToLower(path.Ext(sanitized)); ext != "" && ext != "." {
				return ext
			}
		}
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// ObjectKey builds "<folder>/<random><ext>" with a collision-free stem.
func ObjectKey(folder, ext string) string {
	stem := strings.ReplaceAll(uuid.NewString(), "-", "")
	return path.Join(strings.Trim(folder, "/"), stem) + ext
}
