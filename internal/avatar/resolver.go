package avatar

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/inhausmakers/avatar-manager/internal/database"
	"github.com/inhausmakers/avatar-manager/internal/models"
)

// Identity is a tagged reference to whoever an avatar is being rendered for.
// Callers classify their input exactly once at the boundary; nothing
// downstream re-inspects it.
type Identity struct {
	kind  identityKind
	id    int64
	email string
}

type identityKind int

const (
	identityByID identityKind = iota
	identityByEmail
	identityByGuestEmail
)

// ByID references a registered user by ID.
func ByID(id int64) Identity {
	return Identity{kind: identityByID, id: id}
}

// ByEmail references a registered user by email address.
func ByEmail(email string) Identity {
	return Identity{kind: identityByEmail, email: email}
}

// ByGuestEmail references a guest (e.g. an unregistered commenter) for whom
// no custom-avatar path exists; only the federated rendering applies.
func ByGuestEmail(email string) Identity {
	return Identity{kind: identityByGuestEmail, email: email}
}

// Options is the explicit site policy the resolver applies, replacing ambient
// host-platform state.
type Options struct {
	// Enabled corresponds to the site-wide "show avatars" switch; when off,
	// Resolve makes no decision at all.
	Enabled bool

	// DefaultSize is used when the caller passes no usable size.
	DefaultSize int

	// Ceiling is the most mature rating the site will display.
	Ceiling models.Rating
}

// Resolver decides, for a given identity and size, whether to render a
// federated avatar or a locally cached custom image.
type Resolver struct {
	opts        Options
	users       database.UserRepository
	attachments database.AttachmentRepository
	cache       *ResizeCache
	paths       *PathMapper
	hooks       *Hooks
}

func NewResolver(
	opts Options,
	users database.UserRepository,
	attachments database.AttachmentRepository,
	cache *ResizeCache,
	paths *PathMapper,
	hooks *Hooks,
) *Resolver {
	return &Resolver{
		opts:        opts,
		users:       users,
		attachments: attachments,
		cache:       cache,
		paths:       paths,
		hooks:       hooks,
	}
}

// NormalizeSize turns a raw caller-supplied size into a usable pixel size:
// empty or non-numeric input falls back to the default, anything else is
// clamped into [1, 512]. Out-of-range sizes are not an error.
func NormalizeSize(raw string, defaultSize int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultSize
	}
	if n < 1 {
		return 1
	}
	if n > 512 {
		return 512
	}
	return n
}

// Resolve produces the image reference to render for an identity, or nil
// when no decision is made (avatars disabled site-wide, or the identity does
// not resolve to a registered user) so the caller keeps whatever default it
// already had.
//
// Rendering paths must never fail a page for an avatar, so lookup and resize
// problems degrade to the federated rendering (or to nil when no email is
// known) instead of surfacing.
func (r *Resolver) Resolve(ctx context.Context, who Identity, rawSize, fallback, alt string) *models.ImageRef {
	if !r.opts.Enabled {
		return nil
	}

	size := NormalizeSize(rawSize, r.opts.DefaultSize)

	if who.kind == identityByGuestEmail {
		return Gravatar(who.email, size, fallback, alt, false)
	}

	var (
		user *models.User
		err  error
	)
	switch who.kind {
	case identityByID:
		user, err = r.users.GetByID(ctx, who.id)
	case identityByEmail:
		user, err = r.users.GetByEmail(ctx, who.email)
	}
	if err != nil {
		slog.Warn("avatar resolve: user lookup failed", "error", err)
		if who.email != "" {
			return Gravatar(who.email, size, fallback, alt, false)
		}
		return nil
	}
	if user == nil {
		return nil
	}

	if user.EffectiveAvatarType() != models.AvatarTypeCustom {
		return Gravatar(user.Email, size, fallback, alt, false)
	}

	ref := r.resolveCustom(ctx, user, size, fallback, alt)
	r.hooks.fireResolve(user.ID, ref)
	return ref
}

// ResolveCustom renders a user's custom avatar regardless of their selected
// avatar type, the way the get-custom-avatar operation exposes it. It returns
// ErrNotFound for an unknown user and ErrNoAvatar when nothing is bound.
func (r *Resolver) ResolveCustom(ctx context.Context, userID int64, rawSize, fallback, alt string) (*models.ImageRef, error) {
	if !r.opts.Enabled {
		return nil, nil
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.CustomAvatarID == nil {
		return nil, ErrNoAvatar
	}

	size := NormalizeSize(rawSize, r.opts.DefaultSize)
	return r.resolveCustom(ctx, user, size, fallback, alt), nil
}

// resolveCustom applies the rating gate and resize cache for a user whose
// avatar type is custom. A missing bound attachment degrades to the federated
// rendering rather than erroring; a rating above the site ceiling suppresses
// the custom image for this render only (forcedefault), leaving the
// association intact.
func (r *Resolver) resolveCustom(ctx context.Context, user *models.User, size int, fallback, alt string) *models.ImageRef {
	if user.CustomAvatarID == nil {
		return Gravatar(user.Email, size, fallback, alt, false)
	}

	a, err := r.attachments.GetByID(ctx, *user.CustomAvatarID)
	if err != nil {
		slog.Warn("avatar resolve: attachment lookup failed", "attachment_id", *user.CustomAvatarID, "error", err)
		return Gravatar(user.Email, size, fallback, alt, false)
	}
	if a == nil {
		return Gravatar(user.Email, size, fallback, alt, false)
	}

	if a.Rating.Rank() > r.opts.Ceiling.Rank() {
		return Gravatar(user.Email, size, fallback, alt, true)
	}

	if _, err := r.cache.EnsureResized(ctx, a, size); err != nil {
		slog.Warn("avatar resolve: resize failed", "attachment_id", a.ID, "size", size, "error", err)
		return Gravatar(user.Email, size, fallback, alt, false)
	}

	return &models.ImageRef{
		URL:    r.paths.Scoped(a.ScopeID).SizedURL(a, size),
		Width:  size,
		Height: size,
		Alt:    alt,
	}
}
