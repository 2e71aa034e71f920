package mediastore

import (
	"strings"
	"testing"
)

func TestThumbnailURLCarriesTransformation(t *testing.T) {
	c, err := NewCloudinary("demo", "key", "secret")
	if err != nil {
		t.Fatalf("new cloudinary: %v", err)
	}

	url, err := c.thumbnailURL("aldryck/nature/abc123")
	if err != nil {
		t.Fatalf("thumbnail url: %v", err)
	}
	if !strings.Contains(url, thumbTransformation) {
		t.Fatalf("url %q missing transformation %q", url, thumbTransformation)
	}
	if !strings.Contains(url, "aldryck/nature/abc123") {
		t.Fatalf("url %q missing public id", url)
	}
}
