package contenttype

import "testing"

func TestMap(t *testing.T) {
	m := New(map[string]string{".jxl": "image/jxl", "AVIF": "image/avif", ".png": "image/x-png", ".empty": ""})

	tests := []struct {
		path string
		want string
	}{
		{"/music/a/cover.jpg", "image/jpeg"},
		{"/music/a/COVER.JPG", "image/jpeg"},
		{"/music/a/cover.jpeg", "image/jpeg"},
		{"/music/a/cover.png", "image/x-png"},
		{"/music/a/cover.jxl", "image/jxl"},
		{"/music/a/cover.avif", "image/avif"},
		{"/music/a/cover.empty", Default},
		{"/music/a/cover", Default},
		{"/music/a/cover.xyz", Default},
		{"/music/a.dir/cover", Default},
		{"track.flac", "audio/flac"},
	}

	for _, tt := range tests {
		if got := m.Get(tt.path); got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	t.Run("NilOverrides", func(t *testing.T) {
		if got := New(nil).Get("a.gif"); got != "image/gif" {
			t.Errorf("got %q", got)
		}
	})
}
