package avatar

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

// PathMapper derives on-disk paths and public URLs for an attachment's source
// file and its size-specific resized copies. All methods are pure; the mapper
// never touches the filesystem.
//
// The same relative filename is appended to both the uploads root and the
// base URL, so uploadsRoot + relative(url) always names the physical file a
// URL refers to.
type PathMapper struct {
	baseDir string
	baseURL string
}

func NewPathMapper(baseDir, baseURL string) *PathMapper {
	return &PathMapper{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Scoped returns a mapper rooted at the tenant's partition of the uploads
// tree. A nil scope returns the mapper unchanged. The receiver is never
// mutated, so callers fall back to the prior scope on every exit path simply
// by not reusing the derived value.
func (m *PathMapper) Scoped(scopeID *int64) *PathMapper {
	if scopeID == nil {
		return m
	}
	part := fmt.Sprintf("sites/%d", *scopeID)
	return &PathMapper{
		baseDir: filepath.Join(m.baseDir, filepath.FromSlash(part)),
		baseURL: m.baseURL + "/" + part,
	}
}

// SourcePath returns the on-disk path of the attachment's original file.
func (m *PathMapper) SourcePath(a *models.Attachment) string {
	return filepath.Join(m.baseDir, filepath.FromSlash(a.Filename))
}

// SourceURL returns the public URL of the attachment's original file.
func (m *PathMapper) SourceURL(a *models.Attachment) string {
	return m.baseURL + "/" + a.Filename
}

// SizedPath returns the on-disk path of the size×size resized copy:
// "{dir}/{basename}-{size}x{size}.{ext}".
func (m *PathMapper) SizedPath(a *models.Attachment, size int) string {
	return filepath.Join(m.baseDir, filepath.FromSlash(sizedName(a.Filename, size)))
}

// SizedURL returns the public URL of the size×size resized copy.
func (m *PathMapper) SizedURL(a *models.Attachment, size int) string {
	return m.baseURL + "/" + sizedName(a.Filename, size)
}

// sizedName splits the last extension off a relative filename and inserts the
// "-{size}x{size}" suffix before it.
func sizedName(filename string, size int) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s-%dx%d%s", base, size, size, ext)
}
