package avatar

import (
	"path/filepath"
	"testing"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

func TestPathMapper_SizedNameMath(t *testing.T) {
	m := NewPathMapper("/var/uploads", "http://localhost:8080/uploads")
	a := &models.Attachment{Filename: "2026/08/123-portrait.png"}

	wantPath := filepath.Join("/var/uploads", "2026", "08", "123-portrait-96x96.png")
	if got := m.SizedPath(a, 96); got != wantPath {
		t.Errorf("expected sized path %q, got %q", wantPath, got)
	}

	wantURL := "http://localhost:8080/uploads/2026/08/123-portrait-96x96.png"
	if got := m.SizedURL(a, 96); got != wantURL {
		t.Errorf("expected sized URL %q, got %q", wantURL, got)
	}
}

func TestPathMapper_TrimsTrailingSlash(t *testing.T) {
	m := NewPathMapper("/var/uploads", "http://localhost:8080/uploads/")
	a := &models.Attachment{Filename: "x.png"}

	if got := m.SourceURL(a); got != "http://localhost:8080/uploads/x.png" {
		t.Errorf("unexpected source URL %q", got)
	}
}

func TestPathMapper_NoExtension(t *testing.T) {
	m := NewPathMapper("/var/uploads", "http://localhost:8080/uploads")
	a := &models.Attachment{Filename: "raw/blob"}

	if got := m.SizedURL(a, 48); got != "http://localhost:8080/uploads/raw/blob-48x48" {
		t.Errorf("unexpected sized URL %q", got)
	}
}

func TestPathMapper_Scoped(t *testing.T) {
	m := NewPathMapper("/var/uploads", "http://localhost:8080/uploads")
	scope := int64(7)
	scoped := m.Scoped(&scope)
	a := &models.Attachment{Filename: "a.png"}

	wantPath := filepath.Join("/var/uploads", "sites", "7", "a-32x32.png")
	if got := scoped.SizedPath(a, 32); got != wantPath {
		t.Errorf("expected scoped path %q, got %q", wantPath, got)
	}
	if got := scoped.SizedURL(a, 32); got != "http://localhost:8080/uploads/sites/7/a-32x32.png" {
		t.Errorf("unexpected scoped URL %q", got)
	}

	// The receiver is untouched and a nil scope returns it as-is.
	if got := m.Scoped(nil); got != m {
		t.Error("expected nil scope to return the same mapper")
	}
	if got := m.SizedURL(a, 32); got != "http://localhost:8080/uploads/a-32x32.png" {
		t.Errorf("original mapper changed after Scoped: %q", got)
	}
}

func TestPathMapper_URLAndPathNameSameFile(t *testing.T) {
	m := NewPathMapper("/srv/data/uploads", "https://cdn.example.com/u")
	a := &models.Attachment{Filename: "2026/01/99-pic.jpeg"}

	rel := "2026/01/99-pic-128x128.jpeg"
	if got := m.SizedPath(a, 128); got != filepath.Join("/srv/data/uploads", filepath.FromSlash(rel)) {
		t.Errorf("path does not share relative name %q: %q", rel, got)
	}
	if got := m.SizedURL(a, 128); got != "https://cdn.example.com/u/"+rel {
		t.Errorf("URL does not share relative name %q: %q", rel, got)
	}
}
