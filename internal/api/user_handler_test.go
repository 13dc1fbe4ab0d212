package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

func TestGetMe(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(_ context.Context, id int64) (*models.User, error) {
			if id == 1 {
				return &models.User{ID: 1, Username: "testuser", DisplayName: "Test User"}, nil
			}
			return nil, nil
		},
	}
	h := NewUserHandler(users)

	c, rec := newTestContext(http.MethodGet, "/api/v1/users/@me", nil)
	setAuthUser(c, 1)

	if err := h.GetMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.User `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", resp.Data.Username)
	}
}

func TestGetMe_NotFound(t *testing.T) {
	users := &mockUserRepo{} // GetByIDFn returns nil, nil by default
	h := NewUserHandler(users)

	c, rec := newTestContext(http.MethodGet, "/api/v1/users/@me", nil)
	setAuthUser(c, 999)

	if err := h.GetMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
	}
}

func TestGetMe_InternalError(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(_ context.Context, _ int64) (*models.User, error) {
			return nil, fmt.Errorf("db connection lost")
		},
	}
	h := NewUserHandler(users)

	c, rec := newTestContext(http.MethodGet, "/api/v1/users/@me", nil)
	setAuthUser(c, 1)

	if err := h.GetMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestUpdateMe_DisplayName(t *testing.T) {
	var updated *models.User
	users := &mockUserRepo{
		GetByIDFn: func(_ context.Context, id int64) (*models.User, error) {
			return &models.User{ID: id, Username: "testuser", DisplayName: "Old Name"}, nil
		},
		UpdateFn: func(_ context.Context, user *models.User) error {
			updated = user
			return nil
		},
	}
	h := NewUserHandler(users)

	body := strings.NewReader(`{"display_name":"New Name"}`)
	c, rec := newTestContext(http.MethodPatch, "/api/v1/users/@me", body)
	setAuthUser(c, 1)

	if err := h.UpdateMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if updated == nil || updated.DisplayName != "New Name" {
		t.Errorf("expected display name to be updated, got %+v", updated)
	}
}

func TestUpdateMe_InvalidDisplayName(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(_ context.Context, id int64) (*models.User, error) {
			return &models.User{ID: id, Username: "testuser"}, nil
		},
	}
	h := NewUserHandler(users)

	body := strings.NewReader(`{"display_name":""}`)
	c, rec := newTestContext(http.MethodPatch, "/api/v1/users/@me", body)
	setAuthUser(c, 1)

	if err := h.UpdateMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
