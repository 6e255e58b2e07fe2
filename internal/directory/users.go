package directory

import (
	"context"
	"fmt"
	"strings"
)

// Users exposes the user CRUD surface of the backend.
type Users struct {
	api Doer
}

// NewUsers builds a Users service.
func NewUsers(api Doer) *Users {
	return &Users{api: api}
}

// List returns all users.
func (s *Users) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.api.GetJSON(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Get fetches a user by ID.
func (s *Users) Get(ctx context.Context, id int64) (User, error) {
	var user User
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/users/%d", id), &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// FindByEmail scans the user listing for a matching email. The backend
// has no lookup endpoint, so this is the reconciliation path used by
// the OAuth fallback as well as the admin screens.
func (s *Users) FindByEmail(ctx context.Context, email string) (User, bool, error) {
	users, err := s.List(ctx)
	if err != nil {
		return User{}, false, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

// Create registers a new user.
func (s *Users) Create(ctx context.Context, user User) (User, error) {
	var created User
	if err := s.api.PostJSON(ctx, "/users", user, &created); err != nil {
		return User{}, err
	}
	return created, nil
}

// Update modifies an existing user, including profile or address fields.
func (s *Users) Update(ctx context.Context, id int64, user User) (User, error) {
	var updated User
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/users/%d", id), user, &updated); err != nil {
		return User{}, err
	}
	return updated, nil
}

// Delete removes a user by ID.
func (s *Users) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/users/%d", id))
}
