package database

import (
	"context"
	"testing"
	"time"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

func testAttachment(id int64) *models.Attachment {
	return &models.Attachment{
		ID:          id,
		Filename:    "2026/08/test-avatar.png",
		ContentType: "image/png",
		Size:        2048,
		CreatedAt:   time.Now().Truncate(time.Microsecond),
	}
}

func TestAttachmentRepo_CreateAndGet(t *testing.T) {
	pool := testPool(t)
	repo := NewAttachmentRepository(pool)
	ctx := context.Background()

	a := testAttachment(nextID())

	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, a.ID) })

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil after Create")
	}
	if got.Filename != a.Filename {
		t.Errorf("Filename = %q, want %q", got.Filename, a.Filename)
	}
	if got.IsAvatar {
		t.Error("IsAvatar = true for fresh attachment, want false")
	}
	if got.Rating != "" {
		t.Errorf("Rating = %q for fresh attachment, want empty", got.Rating)
	}
	if got.GeneratedSizes != nil {
		t.Errorf("GeneratedSizes = %v for fresh attachment, want nil", got.GeneratedSizes)
	}
}

func TestAttachmentRepo_GetByID_NotFound(t *testing.T) {
	pool := testPool(t)
	repo := NewAttachmentRepository(pool)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, 999999999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for nonexistent ID, got %+v", got)
	}
}

func TestAttachmentRepo_Update_GeneratedSizes(t *testing.T) {
	pool := testPool(t)
	repo := NewAttachmentRepository(pool)
	ctx := context.Background()

	a := testAttachment(nextID())

	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, a.ID) })

	a.IsAvatar = true
	a.Rating = models.RatingPG
	a.GeneratedSizes = map[int]bool{96: false, 128: true}

	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID after Update: %v", err)
	}
	if !got.IsAvatar {
		t.Error("IsAvatar = false after Update, want true")
	}
	if got.Rating != models.RatingPG {
		t.Errorf("Rating = %q, want %q", got.Rating, models.RatingPG)
	}
	if len(got.GeneratedSizes) != 2 {
		t.Fatalf("GeneratedSizes = %v, want two entries", got.GeneratedSizes)
	}
	if got.GeneratedSizes[96] {
		t.Error("GeneratedSizes[96] = true, want false (generated, not skipped)")
	}
	if !got.GeneratedSizes[128] {
		t.Error("GeneratedSizes[128] = false, want true (skipped)")
	}
}

func TestAttachmentRepo_Update_ClearRating(t *testing.T) {
	pool := testPool(t)
	repo := NewAttachmentRepository(pool)
	ctx := context.Background()

	a := testAttachment(nextID())
	a.Rating = models.RatingR

	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, a.ID) })

	a.Rating = ""
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Rating != "" {
		t.Errorf("Rating = %q after clear, want empty", got.Rating)
	}
}

func TestAttachmentRepo_ScopeID(t *testing.T) {
	pool := testPool(t)
	repo := NewAttachmentRepository(pool)
	ctx := context.Background()

	a := testAttachment(nextID())
	scopeID := int64(3)
	a.ScopeID = &scopeID

	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, a.ID) })

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ScopeID == nil || *got.ScopeID != scopeID {
		t.Errorf("ScopeID = %v, want %d", got.ScopeID, scopeID)
	}
}
