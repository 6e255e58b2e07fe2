package directory

import (
	"context"
	"fmt"
	"time"
)

// Sessions exposes the backend's server-side session records. The
// worker prunes expired rows through this service.
type Sessions struct {
	api Doer
}

// NewSessions builds a Sessions service.
func NewSessions(api Doer) *Sessions {
	return &Sessions{api: api}
}

// List returns all session records.
func (s *Sessions) List(ctx context.Context) ([]SessionRecord, error) {
	var out []SessionRecord
	if err := s.api.GetJSON(ctx, "/sessions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one session record.
func (s *Sessions) Get(ctx context.Context, id string) (SessionRecord, error) {
	var out SessionRecord
	if err := s.api.GetJSON(ctx, "/sessions/"+id, &out); err != nil {
		return SessionRecord{}, err
	}
	return out, nil
}

// ListByUser returns the session records of a user.
func (s *Sessions) ListByUser(ctx context.Context, userID int64) ([]SessionRecord, error) {
	var out []SessionRecord
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/sessions/user/%d", userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores a session record under a user.
func (s *Sessions) Create(ctx context.Context, userID int64, rec SessionRecord) (SessionRecord, error) {
	var out SessionRecord
	if err := s.api.PostJSON(ctx, fmt.Sprintf("/sessions/user/%d", userID), rec, &out); err != nil {
		return SessionRecord{}, err
	}
	return out, nil
}

// Update modifies a session record.
func (s *Sessions) Update(ctx context.Context, id string, rec SessionRecord) (SessionRecord, error) {
	var out SessionRecord
	if err := s.api.PutJSON(ctx, "/sessions/"+id, rec, &out); err != nil {
		return SessionRecord{}, err
	}
	return out, nil
}

// Delete removes a session record.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, "/sessions/"+id)
}

// Expired reports whether the record's expiration lies before now.
// Records with unparseable expirations are treated as live; the sweep
// must not delete rows it cannot interpret.
func (r SessionRecord) Expired(now time.Time) bool {
	if r.Expiration == "" {
		return false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, r.Expiration); err == nil {
			return t.Before(now)
		}
	}
	return false
}
