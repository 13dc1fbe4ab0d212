package avatar

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

func testAttachment(id int64, filename string) *models.Attachment {
	return &models.Attachment{
		ID:          id,
		Filename:    filename,
		ContentType: "image/png",
		Size:        1024,
		CreatedAt:   time.Now(),
	}
}

func writeSource(t *testing.T, dir, rel string) string {
	t.Helper()
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(abs, []byte("original"), 0o644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
	return abs
}

func TestEnsureResized_GeneratesOnce(t *testing.T) {
	dir := t.TempDir()
	atts := newMemAttachmentRepo()
	editor := &spyEditor{}
	paths := NewPathMapper(dir, "http://localhost:8080/uploads")
	cache := NewResizeCache(atts, paths, editor, NewHooks())

	a := testAttachment(1, "2026/08/1-pic.png")
	atts.atts[a.ID] = a
	writeSource(t, dir, a.Filename)

	skipped, err := cache.EnsureResized(context.Background(), a, 96)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped {
		t.Error("expected fresh generation, got skipped")
	}
	if len(editor.calls) != 1 {
		t.Fatalf("expected 1 resize call, got %d", len(editor.calls))
	}
	if call := editor.calls[0]; call.width != 96 || call.height != 96 {
		t.Errorf("expected 96x96 resize, got %dx%d", call.width, call.height)
	}
	if _, err := os.Stat(paths.SizedPath(a, 96)); err != nil {
		t.Errorf("expected resized file on disk: %v", err)
	}
	if got, ok := atts.atts[1].Skipped(96); !ok || got {
		t.Errorf("expected persisted skipped=false, got (%v, %v)", got, ok)
	}

	// Second call hits the metadata fast path, no further I/O.
	if _, err := cache.EnsureResized(context.Background(), a, 96); err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if len(editor.calls) != 1 {
		t.Errorf("expected no further resize calls, got %d", len(editor.calls))
	}
}

func TestEnsureResized_AdoptsExistingFile(t *testing.T) {
	dir := t.TempDir()
	atts := newMemAttachmentRepo()
	editor := &spyEditor{}
	paths := NewPathMapper(dir, "http://localhost:8080/uploads")
	cache := NewResizeCache(atts, paths, editor, NewHooks())

	a := testAttachment(1, "1-pic.png")
	atts.atts[a.ID] = a
	writeSource(t, dir, a.Filename)
	// Drop a pre-existing file where the resized copy would go.
	writeSource(t, dir, "1-pic-64x64.png")

	skipped, err := cache.EnsureResized(context.Background(), a, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !skipped {
		t.Error("expected existing file to be adopted as skipped")
	}
	if len(editor.calls) != 0 {
		t.Errorf("expected no resize call, got %d", len(editor.calls))
	}
	if got, ok := a.Skipped(64); !ok || !got {
		t.Errorf("expected persisted skipped=true, got (%v, %v)", got, ok)
	}
}

func TestEnsureResized_InvalidSize(t *testing.T) {
	cache := NewResizeCache(newMemAttachmentRepo(), NewPathMapper(t.TempDir(), "http://x"), &spyEditor{}, NewHooks())
	if _, err := cache.EnsureResized(context.Background(), testAttachment(1, "a.png"), 0); err == nil {
		t.Fatal("expected error for size 0")
	}
}

func TestEnsureResized_EditorFailureLeavesNoMetadata(t *testing.T) {
	dir := t.TempDir()
	atts := newMemAttachmentRepo()
	editor := &spyEditor{fail: true}
	cache := NewResizeCache(atts, NewPathMapper(dir, "http://x"), editor, NewHooks())

	a := testAttachment(1, "a.png")
	atts.atts[a.ID] = a

	_, err := cache.EnsureResized(context.Background(), a, 96)
	if !errors.Is(err, ErrImageProcessing) {
		t.Fatalf("expected ErrImageProcessing, got %v", err)
	}
	if _, ok := a.Skipped(96); ok {
		t.Error("expected no metadata after editor failure")
	}
}

func TestEnsureResized_PersistFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	atts := newMemAttachmentRepo()
	atts.updateFn = func(*models.Attachment) error { return errors.New("db down") }
	paths := NewPathMapper(dir, "http://x")
	cache := NewResizeCache(atts, paths, &spyEditor{}, NewHooks())

	a := testAttachment(1, "a.png")
	writeSource(t, dir, a.Filename)

	if _, err := cache.EnsureResized(context.Background(), a, 96); err == nil {
		t.Fatal("expected persist error to surface")
	}
	if _, ok := a.Skipped(96); ok {
		t.Error("expected metadata entry rolled back after persist failure")
	}
}

func TestEnsureResized_FiresResizeHook(t *testing.T) {
	dir := t.TempDir()
	atts := newMemAttachmentRepo()
	hooks := NewHooks()

	var gotID int64
	var gotSize int
	hooks.OnResize(func(attachmentID int64, size int) {
		gotID = attachmentID
		gotSize = size
	})

	cache := NewResizeCache(atts, NewPathMapper(dir, "http://x"), &spyEditor{}, hooks)
	a := testAttachment(42, "a.png")
	atts.atts[a.ID] = a
	writeSource(t, dir, a.Filename)

	if _, err := cache.EnsureResized(context.Background(), a, 48); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != 42 || gotSize != 48 {
		t.Errorf("expected hook fired with (42, 48), got (%d, %d)", gotID, gotSize)
	}
}
