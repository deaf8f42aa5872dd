package store

import (
	"strings"
	"testing"
)

func TestObjectKey(t *testing.T) {
	t.Parallel()

	key := ObjectKey("Annual Report.PDF")
	if !strings.HasPrefix(key, "documents/") {
		t.Fatalf("key %q missing documents/ prefix", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("key %q should keep a lowercased extension", key)
	}

	if ObjectKey("a.txt") == ObjectKey("a.txt") {
		t.Fatal("keys for identical filenames must be unique")
	}

	if key := ObjectKey("README"); strings.Contains(strings.TrimPrefix(key, "documents/"), ".") {
		t.Fatalf("key %q should have no extension for extensionless filenames", key)
	}
}

func TestResolveContentType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		declared string
		filename string
		want     string
	}{
		{"declared wins", "application/pdf", "file.txt", "application/pdf"},
		{"octet-stream falls through", "application/octet-stream", "file.pdf", "application/pdf"},
		{"empty falls through", "", "file.pdf", "application/pdf"},
		{"unknown extension", "", "file.xyzunknown", "application/octet-stream"},
		{"no extension", "", "README", "application/octet-stream"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveContentType(tc.declared, tc.filename); got != tc.want {
				t.Fatalf("ResolveContentType(%q, %q) = %q, want %q", tc.declared, tc.filename, got, tc.want)
			}
		})
	}
}
