package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

const (
	gravatarHost = "https://secure.gravatar.com"

	// Hash of the "mystery person" placeholder image.
	mysteryHash = "ad516503a11cd5ca435acc9bb6523536"
)

// EmailHash returns the gravatar hash of an email address: md5 of the
// lowercased, trimmed string.
func EmailHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// GravatarURL builds the federated avatar URL for an email address.
//
// fallback selects the d= parameter: empty or "mystery" yields the mystery
// person placeholder, "gravatar_default" yields the service's own default,
// and an http(s) URL is passed through with the size appended. forceDefault
// asks the service to always serve the fallback, which is how a rating-gated
// custom avatar is suppressed for a single render.
func GravatarURL(email string, size int, fallback string, forceDefault bool) string {
	d := fallbackParam(fallback, size)

	q := url.Values{}
	q.Set("s", strconv.Itoa(size))
	if d != "" {
		q.Set("d", d)
	}
	if forceDefault {
		q.Set("forcedefault", "1")
	}

	return gravatarHost + "/avatar/" + EmailHash(email) + "?" + q.Encode()
}

// Gravatar builds a full image reference for the federated rendering path.
func Gravatar(email string, size int, fallback, alt string, forceDefault bool) *models.ImageRef {
	return &models.ImageRef{
		URL:    GravatarURL(email, size, fallback, forceDefault),
		Width:  size,
		Height: size,
		Alt:    alt,
	}
}

func fallbackParam(fallback string, size int) string {
	switch {
	case fallback == "" || fallback == "mystery":
		return gravatarHost + "/avatar/" + mysteryHash + "?s=" + strconv.Itoa(size)
	case fallback == "gravatar_default":
		return ""
	case strings.HasPrefix(fallback, "http://") || strings.HasPrefix(fallback, "https://"):
		u, err := url.Parse(fallback)
		if err != nil {
			return fallback
		}
		q := u.Query()
		q.Set("s", strconv.Itoa(size))
		u.RawQuery = q.Encode()
		return u.String()
	default:
		// Named defaults the service understands (identicon, retro, ...).
		return fallback
	}
}
