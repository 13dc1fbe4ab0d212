package avatar

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/inhausmakers/avatar-manager/internal/database"
	"github.com/inhausmakers/avatar-manager/internal/models"
)

// Store owns the association between users and their custom avatar
// attachments: binding, rating, the isAvatar marker, and eviction of cached
// files when an association is removed. One user has at most one bound
// attachment at a time; the store enforces it, not the schema.
type Store struct {
	users       database.UserRepository
	attachments database.AttachmentRepository
	cache       *ResizeCache
	paths       *PathMapper
	hooks       *Hooks
	defaultSize int
}

func NewStore(
	users database.UserRepository,
	attachments database.AttachmentRepository,
	cache *ResizeCache,
	paths *PathMapper,
	hooks *Hooks,
	defaultSize int,
) *Store {
	return &Store{
		users:       users,
		attachments: attachments,
		cache:       cache,
		paths:       paths,
		hooks:       hooks,
		defaultSize: defaultSize,
	}
}

// SetAvatar binds an attachment as the user's custom avatar. A first-time
// attachment is initialized (rating G, isAvatar marker) and cache-warmed at
// the default size; a previously bound different attachment is evicted first.
// Rebinding the already-bound attachment is a no-op beyond the redundant
// rating default.
func (s *Store) SetAvatar(ctx context.Context, userID, attachmentID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("avatar store: looking up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("avatar store: user %d: %w", userID, ErrNotFound)
	}

	a, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return fmt.Errorf("avatar store: looking up attachment: %w", err)
	}
	if a == nil {
		return fmt.Errorf("avatar store: attachment %d: %w", attachmentID, ErrNotFound)
	}

	if user.CustomAvatarID != nil && *user.CustomAvatarID != attachmentID {
		if _, err := s.DeleteAvatar(ctx, userID); err != nil {
			return fmt.Errorf("avatar store: evicting previous avatar: %w", err)
		}
	}

	if !a.IsAvatar {
		a.IsAvatar = true
		a.Rating = models.RatingG
		if err := s.attachments.Update(ctx, a); err != nil {
			return fmt.Errorf("avatar store: marking attachment: %w", err)
		}
		// Warm the cache for the common case before the first resolve asks.
		if _, err := s.cache.EnsureResized(ctx, a, s.defaultSize); err != nil {
			return err
		}
	}

	user.AvatarType = models.AvatarTypeCustom
	user.CustomAvatarID = &attachmentID
	user.AvatarScopeID = a.ScopeID
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("avatar store: binding user: %w", err)
	}
	return nil
}

// DeleteAvatar removes the user's custom avatar association. It returns false
// when nothing was bound (not an error). Every generated file the engine
// created (skipped=false) is deleted best-effort; files the engine merely
// adopted are left alone. Metadata is cleared regardless of file-deletion
// outcomes so an avatar can never get stuck unbindable.
func (s *Store) DeleteAvatar(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("avatar store: looking up user: %w", err)
	}
	if user == nil {
		return false, fmt.Errorf("avatar store: user %d: %w", userID, ErrNotFound)
	}
	if user.CustomAvatarID == nil {
		return false, nil
	}
	attachmentID := *user.CustomAvatarID

	a, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return false, fmt.Errorf("avatar store: looking up attachment: %w", err)
	}
	if a != nil {
		s.evict(ctx, a)
	}

	user.AvatarType = ""
	user.CustomAvatarID = nil
	user.AvatarScopeID = nil
	if err := s.users.Update(ctx, user); err != nil {
		return false, fmt.Errorf("avatar store: unbinding user: %w", err)
	}

	s.hooks.fireDelete(attachmentID)
	return true, nil
}

// DeleteByAttachment unbinds every user whose custom avatar is the given
// attachment, invoked when the media library destroys it. Handles zero, one,
// or (in malformed states) multiple bound users; with zero users the
// attachment's avatar metadata and cached files are still cleaned up.
func (s *Store) DeleteByAttachment(ctx context.Context, attachmentID int64) error {
	users, err := s.users.ListByCustomAvatar(ctx, attachmentID)
	if err != nil {
		return fmt.Errorf("avatar store: listing bound users: %w", err)
	}
	for _, u := range users {
		if _, err := s.DeleteAvatar(ctx, u.ID); err != nil {
			return err
		}
	}

	a, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return fmt.Errorf("avatar store: looking up attachment: %w", err)
	}
	if a != nil && a.IsAvatar {
		s.evict(ctx, a)
		s.hooks.fireDelete(attachmentID)
	}
	return nil
}

// SetRating updates the rating on the user's bound avatar attachment.
// Malformed ratings are rejected at this boundary, never coerced.
func (s *Store) SetRating(ctx context.Context, userID int64, rating string) error {
	r, err := models.ParseRating(rating)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("avatar store: looking up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("avatar store: user %d: %w", userID, ErrNotFound)
	}
	if user.CustomAvatarID == nil {
		return ErrNoAvatar
	}

	a, err := s.attachments.GetByID(ctx, *user.CustomAvatarID)
	if err != nil {
		return fmt.Errorf("avatar store: looking up attachment: %w", err)
	}
	if a == nil {
		return fmt.Errorf("avatar store: attachment %d: %w", *user.CustomAvatarID, ErrNotFound)
	}

	a.Rating = r
	if err := s.attachments.Update(ctx, a); err != nil {
		return fmt.Errorf("avatar store: updating rating: %w", err)
	}
	return nil
}

// SetType switches the user between gravatar and custom rendering. Selecting
// custom requires a bound attachment.
func (s *Store) SetType(ctx context.Context, userID int64, avatarType string) error {
	if avatarType != models.AvatarTypeGravatar && avatarType != models.AvatarTypeCustom {
		return fmt.Errorf("invalid avatar type %q", avatarType)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("avatar store: looking up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("avatar store: user %d: %w", userID, ErrNotFound)
	}
	if avatarType == models.AvatarTypeCustom && user.CustomAvatarID == nil {
		return ErrNoAvatar
	}

	user.AvatarType = avatarType
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("avatar store: updating type: %w", err)
	}
	return nil
}

// evict deletes the cached files the engine generated for an attachment and
// clears its avatar extension fields so a future re-bind starts clean. File
// deletion is best-effort: a missing file is not an error, and any other
// filesystem problem is logged without aborting the metadata cleanup.
func (s *Store) evict(ctx context.Context, a *models.Attachment) {
	m := s.paths.Scoped(a.ScopeID)
	for size, skipped := range a.GeneratedSizes {
		if skipped {
			continue
		}
		if err := os.Remove(m.SizedPath(a, size)); err != nil && !os.IsNotExist(err) {
			slog.Warn("avatar store: deleting cached file", "attachment_id", a.ID, "size", size, "error", err)
		}
	}

	a.IsAvatar = false
	a.Rating = ""
	a.GeneratedSizes = nil
	if err := s.attachments.Update(ctx, a); err != nil {
		slog.Error("avatar store: clearing attachment metadata", "attachment_id", a.ID, "error", err)
	}
}
