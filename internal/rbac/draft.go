package rbac

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDraftNotWired means the backend defines no bulk role-permission
// endpoint yet, so a staged draft cannot be persisted.
var ErrDraftNotWired = errors.New("rbac: role-permission persistence not wired")

// DraftEntry is one staged role→permission mapping with an optional
// validity window.
type DraftEntry struct {
	ID           string
	RoleID       int64
	PermissionID int64
	StartAt      string
	EndAt        string
}

// Draft stages role→permission changes in memory before submission.
// The management screen toggles entries freely; nothing is synced until
// Commit — and Commit is intentionally unimplemented, because the
// backend exposes no bulk-assignment endpoint. TODO: wire Commit once
// the backend grows a /role-permissions resource.
type Draft struct {
	mu      sync.Mutex
	entries map[string]DraftEntry
	now     func() time.Time
}

// NewDraft constructs an empty Draft.
func NewDraft() *Draft {
	return &Draft{entries: make(map[string]DraftEntry), now: time.Now}
}

func draftKey(roleID, permissionID int64) string {
	return fmt.Sprintf("%d-%d", roleID, permissionID)
}

// Toggle stages the mapping when absent and removes it when present.
// Reports whether the mapping is staged after the call.
func (d *Draft) Toggle(roleID, permissionID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := draftKey(roleID, permissionID)
	if _, ok := d.entries[key]; ok {
		delete(d.entries, key)
		return false
	}
	d.entries[key] = DraftEntry{
		ID:           key,
		RoleID:       roleID,
		PermissionID: permissionID,
		StartAt:      d.now().UTC().Format(time.RFC3339),
	}
	return true
}

// SetWindow updates the validity bounds of a staged mapping.
func (d *Draft) SetWindow(roleID, permissionID int64, startAt, endAt string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := draftKey(roleID, permissionID)
	entry, ok := d.entries[key]
	if !ok {
		return false
	}
	if startAt != "" {
		entry.StartAt = startAt
	}
	entry.EndAt = endAt
	d.entries[key] = entry
	return true
}

// Assigned reports whether the mapping is currently staged.
func (d *Draft) Assigned(roleID, permissionID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.entries[draftKey(roleID, permissionID)]
	return ok
}

// Entries returns a snapshot of the staged mappings.
func (d *Draft) Entries() []DraftEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DraftEntry, 0, len(d.entries))
	for _, entry := range d.entries {
		out = append(out, entry)
	}
	return out
}

// Commit would persist the staged mappings. The backend contract does
// not exist; callers get ErrDraftNotWired and the draft stays intact.
func (d *Draft) Commit() error {
	return ErrDraftNotWired
}
