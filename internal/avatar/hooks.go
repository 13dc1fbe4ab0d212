package avatar

import (
	"sync"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

// Hooks is an explicit observer registry for avatar lifecycle events.
// Callbacks run synchronously in registration order; the engine's behavior is
// identical whether zero or many observers are registered.
type Hooks struct {
	mu          sync.RWMutex
	postResize  []func(attachmentID int64, size int)
	postDelete  []func(attachmentID int64)
	postResolve []func(userID int64, ref *models.ImageRef)
}

func NewHooks() *Hooks {
	return &Hooks{}
}

// OnResize registers an observer fired after a resized copy is generated or
// found already present.
func (h *Hooks) OnResize(fn func(attachmentID int64, size int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.postResize = append(h.postResize, fn)
}

// OnDelete registers an observer fired after an avatar association is removed.
func (h *Hooks) OnDelete(fn func(attachmentID int64)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.postDelete = append(h.postDelete, fn)
}

// OnResolve registers an observer fired after a custom avatar resolves to an
// image reference. Observers see the pre-filter value.
func (h *Hooks) OnResolve(fn func(userID int64, ref *models.ImageRef)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.postResolve = append(h.postResolve, fn)
}

func (h *Hooks) fireResize(attachmentID int64, size int) {
	h.mu.RLock()
	observers := h.postResize
	h.mu.RUnlock()
	for _, fn := range observers {
		fn(attachmentID, size)
	}
}

func (h *Hooks) fireDelete(attachmentID int64) {
	h.mu.RLock()
	observers := h.postDelete
	h.mu.RUnlock()
	for _, fn := range observers {
		fn(attachmentID)
	}
}

func (h *Hooks) fireResolve(userID int64, ref *models.ImageRef) {
	h.mu.RLock()
	observers := h.postResolve
	h.mu.RUnlock()
	for _, fn := range observers {
		fn(userID, ref)
	}
}
