package avatar

import (
	"context"
	"fmt"
	"os"

	"github.com/inhausmakers/avatar-manager/internal/database"
	"github.com/inhausmakers/avatar-manager/internal/models"
)

// ImageEditor produces a square crop-resized copy of a source image. The
// imageproc package provides the real implementation; tests substitute spies.
type ImageEditor interface {
	ResizeCrop(src, dest string, width, height int) error
}

// ResizeCache generates size-specific copies of an avatar's source image on
// demand and remembers which sizes exist via the attachment's GeneratedSizes
// map, so repeat requests perform no I/O at all.
type ResizeCache struct {
	attachments database.AttachmentRepository
	paths       *PathMapper
	editor      ImageEditor
	hooks       *Hooks
}

func NewResizeCache(attachments database.AttachmentRepository, paths *PathMapper, editor ImageEditor, hooks *Hooks) *ResizeCache {
	return &ResizeCache{
		attachments: attachments,
		paths:       paths,
		editor:      editor,
		hooks:       hooks,
	}
}

// EnsureResized makes sure a size×size copy of the attachment's source image
// exists and returns whether generation was skipped because the file was
// already present.
//
// The GeneratedSizes entry is the authoritative fast path: when it exists the
// metadata is trusted over the filesystem and the call returns immediately.
// On a metadata miss the destination is probed first — a file put there by an
// earlier engine version or by hand is adopted (skipped=true) rather than
// overwritten, and is never considered ours to delete.
//
// The check→resize→persist sequence is not atomic across concurrent requests;
// two first-time resolutions of the same size may both render and race to
// persist. Both produce byte-equivalent output and the last metadata write
// wins, so the race costs duplicate work, not corruption.
func (c *ResizeCache) EnsureResized(ctx context.Context, a *models.Attachment, size int) (bool, error) {
	if size < 1 {
		return false, fmt.Errorf("resize cache: invalid size %d", size)
	}

	if skipped, ok := a.Skipped(size); ok {
		return skipped, nil
	}

	m := c.paths.Scoped(a.ScopeID)
	dest := m.SizedPath(a, size)

	var skipped bool
	if _, err := os.Stat(dest); err == nil {
		skipped = true
	} else {
		if err := c.editor.ResizeCrop(m.SourcePath(a), dest, size, size); err != nil {
			return false, err
		}
	}

	if a.GeneratedSizes == nil {
		a.GeneratedSizes = make(map[int]bool)
	}
	a.GeneratedSizes[size] = skipped

	if err := c.attachments.Update(ctx, a); err != nil {
		delete(a.GeneratedSizes, size)
		return false, fmt.Errorf("resize cache: persisting generated sizes: %w", err)
	}

	c.hooks.fireResize(a.ID, size)
	return skipped, nil
}
