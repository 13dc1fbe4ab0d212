package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/inhausmakers/avatar-manager/internal/avatar"
	"github.com/inhausmakers/avatar-manager/internal/database"
	"github.com/inhausmakers/avatar-manager/internal/models"
	"github.com/inhausmakers/avatar-manager/internal/redis"
	"github.com/inhausmakers/avatar-manager/internal/snowflake"
	"github.com/inhausmakers/avatar-manager/internal/storage"
)

const maxAvatarUploadSize = 5 << 20 // 5 MB

// allowedAvatarTypes is the upload allow-list: bmp, gif, jpeg/jpg, png, tiff.
var allowedAvatarTypes = map[string]bool{
	"image/bmp":  true,
	"image/gif":  true,
	"image/jpeg": true,
	"image/png":  true,
	"image/tiff": true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// CustomAvatar is the get-custom-avatar payload: the bound attachment, its
// rendered image at the requested size, and its rating.
type CustomAvatar struct {
	AttachmentID int64            `json:"attachment_id,string"`
	Image        *models.ImageRef `json:"image,omitempty"`
	Rating       models.Rating    `json:"rating"`
	IsAvatar     bool             `json:"is_avatar"`
}

// Notifier pushes avatar change notices to connected clients. Nil disables
// notification.
type Notifier interface {
	NotifyAvatarUpdated(userID int64)
}

// AvatarService exposes the avatar engine's operations to the RPC surface:
// upload-and-set, delete, type and rating management, and rendering.
type AvatarService struct {
	users       database.UserRepository
	attachments database.AttachmentRepository
	store       *avatar.Store
	resolver    *avatar.Resolver
	files       *storage.LocalStore
	archive     *storage.ArchiveStore // optional
	redis       *redis.Client
	snowflake   *snowflake.Generator
	notifier    Notifier

	uploadsOpen bool
	scopeID     *int64
}

// NewAvatarService creates an AvatarService. archive may be nil when no
// object-storage mirror is configured.
func NewAvatarService(
	users database.UserRepository,
	attachments database.AttachmentRepository,
	store *avatar.Store,
	resolver *avatar.Resolver,
	files *storage.LocalStore,
	archive *storage.ArchiveStore,
	redisClient *redis.Client,
	sf *snowflake.Generator,
	notifier Notifier,
	uploadsOpen bool,
	scopeID *int64,
) *AvatarService {
	return &AvatarService{
		users:       users,
		attachments: attachments,
		store:       store,
		resolver:    resolver,
		files:       files,
		archive:     archive,
		redis:       redisClient,
		snowflake:   sf,
		notifier:    notifier,
		uploadsOpen: uploadsOpen,
		scopeID:     scopeID,
	}
}

// GetAvatarType returns the user's selected avatar type, defaulting to
// gravatar when unset.
func (s *AvatarService) GetAvatarType(ctx context.Context, userID int64) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.EffectiveAvatarType(), nil
}

// SetAvatarType switches the user between gravatar and custom rendering.
func (s *AvatarService) SetAvatarType(ctx context.Context, userID int64, avatarType string) error {
	if avatarType != models.AvatarTypeGravatar && avatarType != models.AvatarTypeCustom {
		return BadRequest("INVALID_AVATAR_TYPE", "avatar type must be gravatar or custom")
	}

	if err := s.store.SetType(ctx, userID, avatarType); err != nil {
		return s.mapStoreError(err)
	}

	s.purgeResolved(ctx, userID)
	return nil
}

// GetCustomAvatar returns the user's bound attachment with its image rendered
// at the requested size.
func (s *AvatarService) GetCustomAvatar(ctx context.Context, userID int64, size, fallback, alt string) (*CustomAvatar, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CustomAvatarID == nil {
		return nil, NotFound("NO_CUSTOM_AVATAR", "you don't have a custom avatar")
	}

	a, err := s.attachments.GetByID(ctx, *user.CustomAvatarID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if a == nil {
		return nil, NotFound("NO_CUSTOM_AVATAR", "you don't have a custom avatar")
	}

	image, err := s.resolver.ResolveCustom(ctx, userID, size, fallback, alt)
	if err != nil && !errors.Is(err, avatar.ErrNoAvatar) {
		return nil, Internal("INTERNAL", "internal server error")
	}

	return &CustomAvatar{
		AttachmentID: a.ID,
		Image:        image,
		Rating:       a.Rating,
		IsAvatar:     a.IsAvatar,
	}, nil
}

// SetRating updates the content rating of the user's bound avatar.
func (s *AvatarService) SetRating(ctx context.Context, userID int64, rating string) error {
	if _, err := models.ParseRating(rating); err != nil {
		return BadRequest("INVALID_RATING", "rating must be one of G, PG, R, X")
	}

	if err := s.store.SetRating(ctx, userID, rating); err != nil {
		return s.mapStoreError(err)
	}

	s.purgeResolved(ctx, userID)
	return nil
}

// DeleteCustomAvatar removes the user's custom avatar and its cached files.
func (s *AvatarService) DeleteCustomAvatar(ctx context.Context, userID int64) error {
	deleted, err := s.store.DeleteAvatar(ctx, userID)
	if err != nil {
		return s.mapStoreError(err)
	}
	if !deleted {
		return NotFound("NO_CUSTOM_AVATAR", "you don't have a custom avatar")
	}

	s.purgeResolved(ctx, userID)
	return nil
}

// UploadCustomAvatar validates and stores an uploaded image, creates its
// attachment, and binds it as the user's custom avatar; any previous custom
// avatar is evicted. Unlike rendering paths, a processing failure here is a
// hard error that aborts the request.
func (s *AvatarService) UploadCustomAvatar(ctx context.Context, userID int64, filename, contentType string, size int64, r io.Reader) (*models.Attachment, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.uploadsOpen && !user.CanUpload {
		return nil, Forbidden("UPLOADS_DISABLED", "you don't have permission to upload files")
	}
	if size > maxAvatarUploadSize {
		return nil, BadRequest("FILE_TOO_LARGE", "avatar must be under 5 MB")
	}
	if !allowedAvatarTypes[contentType] {
		return nil, UnsupportedMedia("INVALID_CONTENT_TYPE", "this file type is not permitted for security reasons")
	}

	attachmentID := s.snowflake.Generate().Int64()
	relPath := path.Join(time.Now().Format("2006/01"), fmt.Sprintf("%d-%s", attachmentID, sanitizeFilename(filename)))

	absPath, err := s.files.Save(s.scopeID, relPath, r)
	if err != nil {
		return nil, Internal("UPLOAD_FAILED", "failed to store uploaded file")
	}

	a := &models.Attachment{
		ID:          attachmentID,
		ScopeID:     s.scopeID,
		Filename:    relPath,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now(),
	}
	if err := s.attachments.Create(ctx, a); err != nil {
		_ = s.files.Remove(s.scopeID, relPath)
		return nil, Internal("INTERNAL", "internal server error")
	}

	if err := s.store.SetAvatar(ctx, userID, attachmentID); err != nil {
		// Roll back so no orphaned attachment references a file that was
		// never bound.
		_ = s.attachments.Delete(ctx, attachmentID)
		_ = s.files.Remove(s.scopeID, relPath)
		if errors.Is(err, avatar.ErrImageProcessing) {
			return nil, BadRequest("IMAGE_PROCESSING_FAILED", "could not process the uploaded image")
		}
		return nil, s.mapStoreError(err)
	}

	s.archiveOriginal(ctx, relPath, absPath, contentType, size)
	s.purgeResolved(ctx, userID)
	return a, nil
}

// DestroyAttachment handles the media library destroying an attachment:
// every bound user is unbound, cached and original files are removed, and the
// row is deleted. Restricted to users with the uploader flag.
func (s *AvatarService) DestroyAttachment(ctx context.Context, callerID, attachmentID int64) error {
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return err
	}
	if !caller.CanUpload {
		return Forbidden("FORBIDDEN", "you don't have permission to delete attachments")
	}

	a, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if a == nil {
		return NotFound("NOT_FOUND", "attachment not found")
	}

	bound, err := s.users.ListByCustomAvatar(ctx, attachmentID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	if err := s.store.DeleteByAttachment(ctx, attachmentID); err != nil {
		return s.mapStoreError(err)
	}
	for _, u := range bound {
		s.purgeResolved(ctx, u.ID)
	}

	_ = s.files.Remove(a.ScopeID, a.Filename)
	if s.archive != nil {
		if err := s.archive.Discard(ctx, a.Filename); err != nil {
			slog.Warn("discarding archived original", "attachment_id", a.ID, "error", err)
		}
	}
	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	return nil
}

func (s *AvatarService) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if user == nil {
		return nil, NotFound("NOT_FOUND", "user not found")
	}
	return user, nil
}

// archiveOriginal mirrors an original upload to object storage when an
// archive is configured. Failures are logged, not surfaced: the local copy is
// authoritative.
func (s *AvatarService) archiveOriginal(ctx context.Context, relPath, absPath, contentType string, size int64) {
	if s.archive == nil {
		return
	}
	f, err := os.Open(absPath)
	if err != nil {
		slog.Warn("archiving original: reopening upload", "path", absPath, "error", err)
		return
	}
	defer f.Close()
	if err := s.archive.Archive(ctx, relPath, f, size, contentType); err != nil {
		slog.Warn("archiving original", "path", relPath, "error", err)
	}
}

// purgeResolved drops cached resolved URLs after any association change and
// tells connected clients to do the same.
func (s *AvatarService) purgeResolved(ctx context.Context, userID int64) {
	if err := s.redis.PurgeResolvedAvatar(ctx, userID); err != nil {
		slog.Warn("purging resolved avatar cache", "user_id", userID, "error", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyAvatarUpdated(userID)
	}
}

func (s *AvatarService) mapStoreError(err error) error {
	switch {
	case errors.Is(err, avatar.ErrNoAvatar):
		return NotFound("NO_CUSTOM_AVATAR", "you don't have a custom avatar")
	case errors.Is(err, avatar.ErrNotFound):
		return NotFound("NOT_FOUND", "user or attachment not found")
	default:
		slog.Error("avatar store operation failed", "error", err)
		return Internal("INTERNAL", "internal server error")
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	return unsafeFilenameChars.ReplaceAllString(base, "-")
}
