package httputil

import (
	"path/filepath"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid HTTPS", "https://example.com/path", false},
		{"valid HTTP", "http://example.com/path", false},
		{"javascript scheme rejected", "javascript:alert(1)", true},
		{"data scheme rejected", "data:text/html,<h1>Hi</h1>", true},
		{"FTP rejected", "ftp://example.com/file", true},
		{"file rejected", "file:///etc/passwd", true},
		{"local marker rejected", "__local__/var/media/clip.flv", true},
		{"empty string", "", true},
		{"no host", "https://", true},
		{"valid with port", "https://example.com:8080/path", false},
		{"valid with query", "http://example.com/path?q=test&a=b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestSafePath(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"file", "post.md", filepath.Join(dir, "post.md"), false},
		{"nested", "2009/05/post.md", filepath.Join(dir, "2009", "05", "post.md"), false},
		{"leading slash", "/post.md", filepath.Join(dir, "post.md"), false},
		{"root", "", dir, false},
		{"inner dots", "a/../post.md", filepath.Join(dir, "post.md"), false},
		{"path traversal", "../../etc/passwd", "", true},
		{"traversal via subdir", "a/../../secret", "", true},
		{"null byte", "post\x00.md", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafePath(dir, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SafePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
