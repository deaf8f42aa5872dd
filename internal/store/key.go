package store

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "documents/"

// ObjectKey generates a unique bucket key for an uploaded file, for example
// "documents/c1f4e9e0-5e6a-4b8f-8e4e-1f2d9c8b7a0a.pdf". The original
// extension is kept so downloads resolve to a sensible type.
func ObjectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return keyPrefix + uuid.NewString() + ext
}

// ResolveContentType prefers the type declared by the uploader unless it is
// missing or the generic octet-stream default, in which case the filename
// extension decides.
func ResolveContentType(declared, filename string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if guessed := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); guessed != "" {
		return guessed
	}
	return "application/octet-stream"
}
