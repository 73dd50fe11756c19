package util

import "testing"

func TestHasVideoExtension(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"uploads/lesson1.mp4", true},
		{"uploads/LESSON1.MP4", true},
		{"/var/media/intro.webm", true},
		{"uploads/notes.pdf", false},
		{"uploads/archive.mp4.bak", false},
		{"https://cdn.example.com/stream", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasVideoExtension(tt.path); got != tt.want {
			t.Errorf("HasVideoExtension(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestThumbnailPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"uploads/lesson1.mp4", "uploads/lesson1.jpg"},
		{"/var/media/intro.webm", "/var/media/intro.jpg"},
		{"noext", "noext.jpg"},
	}
	for _, tt := range tests {
		if got := ThumbnailPath(tt.path); got != tt.want {
			t.Errorf("ThumbnailPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
