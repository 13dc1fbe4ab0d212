package api

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/inhausmakers/avatar-manager/internal/models"
	"github.com/inhausmakers/avatar-manager/internal/snowflake"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestContext(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func setAuthUser(c echo.Context, userID int64) {
	c.Set("user_id", userID)
}

func testSnowflake() *snowflake.Generator {
	sf, _ := snowflake.NewGenerator(1, 1)
	return sf
}

// ---------------------------------------------------------------------------
// Mock repositories
// ---------------------------------------------------------------------------

// mockUserRepo implements database.UserRepository.
type mockUserRepo struct {
	CreateFn             func(ctx context.Context, user *models.User) error
	GetByIDFn            func(ctx context.Context, id int64) (*models.User, error)
	GetByUsernameFn      func(ctx context.Context, username string) (*models.User, error)
	GetByEmailFn         func(ctx context.Context, email string) (*models.User, error)
	UpdateFn             func(ctx context.Context, user *models.User) error
	DeleteFn             func(ctx context.Context, id int64) error
	ListByCustomAvatarFn func(ctx context.Context, attachmentID int64) ([]models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) ListByCustomAvatar(ctx context.Context, attachmentID int64) ([]models.User, error) {
	if m.ListByCustomAvatarFn != nil {
		return m.ListByCustomAvatarFn(ctx, attachmentID)
	}
	return nil, nil
}

// mockAttachmentRepo implements database.AttachmentRepository.
type mockAttachmentRepo struct {
	CreateFn  func(ctx context.Context, attachment *models.Attachment) error
	GetByIDFn func(ctx context.Context, id int64) (*models.Attachment, error)
	UpdateFn  func(ctx context.Context, attachment *models.Attachment) error
	DeleteFn  func(ctx context.Context, id int64) error
}

func (m *mockAttachmentRepo) Create(ctx context.Context, attachment *models.Attachment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, attachment)
	}
	return nil
}

func (m *mockAttachmentRepo) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAttachmentRepo) Update(ctx context.Context, attachment *models.Attachment) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, attachment)
	}
	return nil
}

func (m *mockAttachmentRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}
