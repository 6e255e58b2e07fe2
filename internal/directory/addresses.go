package directory

import (
	"context"
	"fmt"
)

// Addresses exposes address CRUD.
type Addresses struct {
	api Doer
}

// NewAddresses builds an Addresses service.
func NewAddresses(api Doer) *Addresses {
	return &Addresses{api: api}
}

// List returns every address.
func (s *Addresses) List(ctx context.Context) ([]Address, error) {
	var out []Address
	if err := s.api.GetJSON(ctx, "/addresses", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one address.
func (s *Addresses) Get(ctx context.Context, id int64) (Address, error) {
	var out Address
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/addresses/%d", id), &out); err != nil {
		return Address{}, err
	}
	return out, nil
}

// Create registers an address for a user.
func (s *Addresses) Create(ctx context.Context, userID int64, addr Address) (Address, error) {
	var out Address
	if err := s.api.PostJSON(ctx, fmt.Sprintf("/addresses/user/%d", userID), addr, &out); err != nil {
		return Address{}, err
	}
	return out, nil
}

// Update modifies an address.
func (s *Addresses) Update(ctx context.Context, id int64, addr Address) (Address, error) {
	var out Address
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/addresses/%d", id), addr, &out); err != nil {
		return Address{}, err
	}
	return out, nil
}

// Delete removes an address.
func (s *Addresses) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/addresses/%d", id))
}
