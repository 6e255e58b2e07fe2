package directory

import (
	"context"
	"fmt"
)

// Devices exposes per-user device CRUD.
type Devices struct {
	api Doer
}

// NewDevices builds a Devices service.
func NewDevices(api Doer) *Devices {
	return &Devices{api: api}
}

// ListByUser returns the devices registered for a user.
func (s *Devices) ListByUser(ctx context.Context, userID int64) ([]Device, error) {
	var out []Device
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/devices/user/%d", userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one device.
func (s *Devices) Get(ctx context.Context, id int64) (Device, error) {
	var out Device
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/devices/%d", id), &out); err != nil {
		return Device{}, err
	}
	return out, nil
}

// Create registers a device under a user.
func (s *Devices) Create(ctx context.Context, userID int64, device Device) (Device, error) {
	var out Device
	if err := s.api.PostJSON(ctx, fmt.Sprintf("/devices/user/%d", userID), device, &out); err != nil {
		return Device{}, err
	}
	return out, nil
}

// Update modifies a device.
func (s *Devices) Update(ctx context.Context, id int64, device Device) (Device, error) {
	var out Device
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/devices/%d", id), device, &out); err != nil {
		return Device{}, err
	}
	return out, nil
}

// Delete removes a device.
func (s *Devices) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/devices/%d", id))
}
