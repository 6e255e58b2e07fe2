package directory

import (
	"context"
	"fmt"
)

// Signatures exposes digital signature records.
type Signatures struct {
	api Doer
}

// NewSignatures builds a Signatures service.
func NewSignatures(api Doer) *Signatures {
	return &Signatures{api: api}
}

// List returns all signatures.
func (s *Signatures) List(ctx context.Context) ([]DigitalSignature, error) {
	var out []DigitalSignature
	if err := s.api.GetJSON(ctx, "/digital-signatures", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByUser fetches the signature stored for a user.
func (s *Signatures) GetByUser(ctx context.Context, userID int64) (DigitalSignature, error) {
	var out DigitalSignature
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/digital-signatures/user/%d", userID), &out); err != nil {
		return DigitalSignature{}, err
	}
	return out, nil
}

// Create stores a signature for a user.
func (s *Signatures) Create(ctx context.Context, userID int64, sig DigitalSignature) (DigitalSignature, error) {
	var out DigitalSignature
	if err := s.api.PostJSON(ctx, fmt.Sprintf("/digital-signatures/user/%d", userID), sig, &out); err != nil {
		return DigitalSignature{}, err
	}
	return out, nil
}

// Delete removes a signature.
func (s *Signatures) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/digital-signatures/%d", id))
}
