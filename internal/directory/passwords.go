package directory

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Passwords manages a user's password history records. New records are
// created from plain content; the hash is computed here so the plain
// text never travels in the passwordHash field.
type Passwords struct {
	api Doer
}

// NewPasswords builds a Passwords service.
func NewPasswords(api Doer) *Passwords {
	return &Passwords{api: api}
}

// ListByUser returns the password records of a user.
func (s *Passwords) ListByUser(ctx context.Context, userID int64) ([]Password, error) {
	var out []Password
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/passwords/user/%d", userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one password record.
func (s *Passwords) Get(ctx context.Context, id int64) (Password, error) {
	var out Password
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/passwords/%d", id), &out); err != nil {
		return Password{}, err
	}
	return out, nil
}

// Create hashes the plain content with bcrypt and stores the record.
func (s *Passwords) Create(ctx context.Context, userID int64, content string) (Password, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(content), bcrypt.DefaultCost)
	if err != nil {
		return Password{}, err
	}
	record := Password{UserID: userID, PasswordHash: string(hash), IsActive: true}
	var out Password
	if err := s.api.PostJSON(ctx, fmt.Sprintf("/passwords/user/%d", userID), record, &out); err != nil {
		return Password{}, err
	}
	return out, nil
}

// Update modifies an existing password record.
func (s *Passwords) Update(ctx context.Context, id int64, record Password) (Password, error) {
	var out Password
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/passwords/%d", id), record, &out); err != nil {
		return Password{}, err
	}
	return out, nil
}

// Delete removes a password record.
func (s *Passwords) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/passwords/%d", id))
}
