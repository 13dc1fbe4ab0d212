package avatar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

// memUserRepo implements database.UserRepository over a map.
type memUserRepo struct {
	users    map[int64]*models.User
	updateFn func(user *models.User) error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*models.User)}
}

func (m *memUserRepo) Create(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return m.users[id], nil
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) Update(_ context.Context, user *models.User) error {
	if m.updateFn != nil {
		if err := m.updateFn(user); err != nil {
			return err
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) Delete(_ context.Context, id int64) error {
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) ListByCustomAvatar(_ context.Context, attachmentID int64) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.CustomAvatarID != nil && *u.CustomAvatarID == attachmentID {
			out = append(out, *u)
		}
	}
	return out, nil
}

// memAttachmentRepo implements database.AttachmentRepository over a map.
type memAttachmentRepo struct {
	atts     map[int64]*models.Attachment
	updateFn func(a *models.Attachment) error
}

func newMemAttachmentRepo() *memAttachmentRepo {
	return &memAttachmentRepo{atts: make(map[int64]*models.Attachment)}
}

func (m *memAttachmentRepo) Create(_ context.Context, a *models.Attachment) error {
	m.atts[a.ID] = a
	return nil
}

func (m *memAttachmentRepo) GetByID(_ context.Context, id int64) (*models.Attachment, error) {
	return m.atts[id], nil
}

func (m *memAttachmentRepo) Update(_ context.Context, a *models.Attachment) error {
	if m.updateFn != nil {
		if err := m.updateFn(a); err != nil {
			return err
		}
	}
	m.atts[a.ID] = a
	return nil
}

func (m *memAttachmentRepo) Delete(_ context.Context, id int64) error {
	delete(m.atts, id)
	return nil
}

// spyEditor records resize calls and writes a placeholder file.
type spyEditor struct {
	calls []spyCall
	fail  bool
}

type spyCall struct {
	src, dest     string
	width, height int
}

func (e *spyEditor) ResizeCrop(src, dest string, width, height int) error {
	e.calls = append(e.calls, spyCall{src, dest, width, height})
	if e.fail {
		return fmt.Errorf("spy resize failure: %w", ErrImageProcessing)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("resized"), 0o644)
}
