// Package imageproc implements the avatar image editor on top of the
// disintegration/imaging library.
package imageproc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/inhausmakers/avatar-manager/internal/avatar"
)

// Editor loads a source raster, crop-resizes it to fill the requested
// dimensions, and saves the result. All failures wrap
// avatar.ErrImageProcessing so callers can leave retry metadata unset.
type Editor struct{}

func NewEditor() Editor {
	return Editor{}
}

func (Editor) ResizeCrop(src, dest string, width, height int) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", avatar.ErrImageProcessing, src, err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: creating destination directory: %v", avatar.ErrImageProcessing, err)
	}
	if err := imaging.Save(resized, dest); err != nil {
		// Do not leave a partial file behind for the existence check to adopt.
		_ = os.Remove(dest)
		return fmt.Errorf("%w: saving %s: %v", avatar.ErrImageProcessing, dest, err)
	}
	return nil
}
