package models

import "time"

// Attachment represents one uploaded source image in the media library.
// Filename is the file's path relative to the (possibly scoped) uploads root;
// the avatar path mapper derives both the on-disk path and the public URL
// from it.
type Attachment struct {
	ID          int64     `json:"id,string"`
	ScopeID     *int64    `json:"scope_id,string,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`

	// Avatar extension fields. GeneratedSizes maps a pixel size to whether
	// generation was skipped because the file already existed; a missing key
	// means "not yet generated". Cleared entirely when the avatar is deleted.
	IsAvatar       bool         `json:"is_avatar"`
	Rating         Rating       `json:"rating,omitempty"`
	GeneratedSizes map[int]bool `json:"generated_sizes,omitempty"`
}

// Skipped reports whether the given size was generated with the
// file-already-existed shortcut. The second return is false when the size has
// never been generated.
func (a *Attachment) Skipped(size int) (bool, bool) {
	skipped, ok := a.GeneratedSizes[size]
	return skipped, ok
}
