package directory

import (
	"context"
	"fmt"
)

// Profiles exposes profile CRUD.
type Profiles struct {
	api Doer
}

// NewProfiles builds a Profiles service.
func NewProfiles(api Doer) *Profiles {
	return &Profiles{api: api}
}

// List returns all profiles.
func (s *Profiles) List(ctx context.Context) ([]Profile, error) {
	var out []Profile
	if err := s.api.GetJSON(ctx, "/profiles", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches the profile of a user.
func (s *Profiles) Get(ctx context.Context, userID int64) (Profile, error) {
	var out Profile
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/profiles/%d", userID), &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// Create stores a profile for a user.
func (s *Profiles) Create(ctx context.Context, profile Profile) (Profile, error) {
	var out Profile
	if err := s.api.PostJSON(ctx, "/profiles", profile, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// Update modifies a profile.
func (s *Profiles) Update(ctx context.Context, userID int64, profile Profile) (Profile, error) {
	var out Profile
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/profiles/%d", userID), profile, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// Delete removes a profile.
func (s *Profiles) Delete(ctx context.Context, userID int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/profiles/%d", userID))
}
