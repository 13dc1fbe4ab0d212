package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

type attachmentRepo struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepo{pool: pool}
}

func (r *attachmentRepo) Create(ctx context.Context, a *models.Attachment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attachments (id, scope_id, filename, content_type, size,
		 is_avatar, rating, generated_sizes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.ScopeID, a.Filename, a.ContentType, a.Size,
		a.IsAvatar, nullableRating(a.Rating), a.GeneratedSizes, a.CreatedAt,
	)
	return err
}

func (r *attachmentRepo) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	a := &models.Attachment{}
	var rating *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, scope_id, filename, content_type, size,
		 is_avatar, rating, generated_sizes, created_at
		 FROM attachments WHERE id = $1`, id,
	).Scan(&a.ID, &a.ScopeID, &a.Filename, &a.ContentType, &a.Size,
		&a.IsAvatar, &rating, &a.GeneratedSizes, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rating != nil {
		a.Rating = models.Rating(*rating)
	}
	return a, nil
}

func (r *attachmentRepo) Update(ctx context.Context, a *models.Attachment) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attachments SET scope_id = $2, filename = $3, content_type = $4, size = $5,
		 is_avatar = $6, rating = $7, generated_sizes = $8
		 WHERE id = $1`,
		a.ID, a.ScopeID, a.Filename, a.ContentType, a.Size,
		a.IsAvatar, nullableRating(a.Rating), a.GeneratedSizes,
	)
	return err
}

func (r *attachmentRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	return err
}

// nullableRating stores a cleared rating as NULL rather than an empty string.
func nullableRating(r models.Rating) *string {
	if r == "" {
		return nil
	}
	s := string(r)
	return &s
}
