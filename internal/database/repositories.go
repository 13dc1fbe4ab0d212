package database

import (
	"context"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	// ListByCustomAvatar returns every user whose custom avatar is the given
	// attachment. Normally zero or one, but malformed states may hold more.
	ListByCustomAvatar(ctx context.Context, attachmentID int64) ([]models.User, error)
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id int64) (*models.Attachment, error)
	Update(ctx context.Context, attachment *models.Attachment) error
	Delete(ctx context.Context, id int64) error
}
