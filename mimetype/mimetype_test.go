package mimetype

import "testing"

func TestExtensionToType(t *testing.T) {
	cases := map[string]string{
		"html": "text/html",
		"HTML": "text/html",
		"png":  "image/png",
		"nope": "application/octet-stream",
	}
	for ext, want := range cases {
		if got := ExtensionToType(ext); got != want {
			t.Errorf("ExtensionToType(%q) = %q want %q", ext, got, want)
		}
	}
}

func TestForPath(t *testing.T) {
	cases := map[string]string{
		"/var/www/index.html": "text/html",
		"/tmp/archive.tar.gz": "application/gzip",
		"/tmp/noext":          "application/octet-stream",
		"/tmp/trailingdot.":   "application/octet-stream",
	}
	for path, want := range cases {
		if got := ForPath(path); got != want {
			t.Errorf("ForPath(%q) = %q want %q", path, got, want)
		}
	}
}
