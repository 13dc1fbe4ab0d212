package models

import "time"

// Avatar types a user can select.
const (
	AvatarTypeGravatar = "gravatar"
	AvatarTypeCustom   = "custom"
)

type User struct {
	ID           int64     `json:"id,string"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CanUpload    bool      `json:"can_upload"`
	CreatedAt    time.Time `json:"created_at"`

	// Avatar association fields, mutated only by the avatar store.
	AvatarType     string `json:"avatar_type,omitempty"`
	CustomAvatarID *int64 `json:"custom_avatar_id,string,omitempty"`
	AvatarScopeID  *int64 `json:"avatar_scope_id,string,omitempty"`
}

// EffectiveAvatarType defaults an unset avatar type to gravatar.
func (u *User) EffectiveAvatarType() string {
	if u.AvatarType == "" {
		return AvatarTypeGravatar
	}
	return u.AvatarType
}
