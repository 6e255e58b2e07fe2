package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aegis-admin/aegis-admin/internal/directory"
)

// windowLayout is the timestamp format the assignment endpoint expects.
const windowLayout = "2006-01-02 15:04:05"

// DefaultValidity is the window applied when an assignment is created
// without explicit dates.
const DefaultValidity = 365 * 24 * time.Hour

// ErrAssignmentNotFound means no assignment matched the (user, role)
// pair; nothing was deleted.
var ErrAssignmentNotFound = errors.New("rbac: assignment not found")

// Doer abstracts the authenticated request pipeline.
type Doer interface {
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, body, out any) error
	PutJSON(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Service reconciles the backend's join-table representation with the
// domain model and provides the derived views the screens need.
type Service struct {
	api    Doer
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(api Doer, logger *slog.Logger) *Service {
	return &Service{api: api, logger: logger, now: time.Now}
}

// ListRoles returns the role catalog.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := s.api.GetJSON(ctx, "/roles", &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole fetches one role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/roles/%d", id), &role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// CreateRole adds a role.
func (s *Service) CreateRole(ctx context.Context, role Role) (Role, error) {
	var created Role
	if err := s.api.PostJSON(ctx, "/roles", role, &created); err != nil {
		return Role{}, err
	}
	return created, nil
}

// UpdateRole modifies a role.
func (s *Service) UpdateRole(ctx context.Context, id int64, role Role) (Role, error) {
	var updated Role
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/roles/%d", id), role, &updated); err != nil {
		return Role{}, err
	}
	return updated, nil
}

// DeleteRole removes a role.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/roles/%d", id))
}

// ListPermissions returns the permission catalog (read-only).
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	var perms []Permission
	if err := s.api.GetJSON(ctx, "/permissions", &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// UserRoles returns the assignments of a user translated to the domain
// shape.
func (s *Service) UserRoles(ctx context.Context, userID int64) ([]UserRole, error) {
	var wire []wireUserRole
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/user-roles/user/%d", userID), &wire); err != nil {
		return nil, err
	}
	return fromWireList(wire), nil
}

// UserRolesWithRoleDetails hydrates each assignment with its role. The
// assignment list and the role catalog are fetched concurrently; when
// the catalog lookup fails every assignment still carries a displayable
// placeholder name.
func (s *Service) UserRolesWithRoleDetails(ctx context.Context, userID int64) ([]UserRole, error) {
	var (
		assignments []UserRole
		roles       []Role
		rolesErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assignments, err = s.UserRoles(gctx, userID)
		return err
	})
	g.Go(func() error {
		// Failure here must not sink the whole view.
		roles, rolesErr = s.ListRoles(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if rolesErr != nil && s.logger != nil {
		s.logger.Warn("role catalog unavailable, using placeholders", slog.Any("error", rolesErr))
	}

	byID := make(map[int64]Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}
	for i := range assignments {
		if role, ok := byID[assignments[i].RoleID]; ok {
			r := role
			assignments[i].Role = &r
			continue
		}
		assignments[i].Role = &Role{
			ID:   assignments[i].RoleID,
			Name: fmt.Sprintf("Rol %d", assignments[i].RoleID),
		}
	}
	return assignments, nil
}

// AssignRoleToUser creates an assignment. Omitted dates default to a
// window opening now and closing exactly 365 days later.
func (s *Service) AssignRoleToUser(ctx context.Context, userID, roleID int64, startAt, endAt string) (UserRole, error) {
	if startAt == "" {
		startAt = s.now().UTC().Format(windowLayout)
	}
	if endAt == "" {
		start, ok := parseWindow(startAt)
		if !ok {
			start = s.now().UTC()
		}
		endAt = start.Add(DefaultValidity).Format(windowLayout)
	}

	payload := map[string]string{
		"startAt": startAt,
		"endAt":   endAt,
	}
	var wire wireUserRole
	path := fmt.Sprintf("/user-roles/user/%d/role/%d", userID, roleID)
	if err := s.api.PostJSON(ctx, path, payload, &wire); err != nil {
		return UserRole{}, err
	}
	return fromWire(wire), nil
}

// RemoveRoleFromUser deletes the assignment binding the pair. The
// delete endpoint addresses assignments by their own id, so this is a
// lookup-then-delete: the id can go stale between the two calls, and a
// failed delete should be retried from the lookup, not treated as
// fatal. Returns ErrAssignmentNotFound without issuing a DELETE when no
// assignment matches.
func (s *Service) RemoveRoleFromUser(ctx context.Context, userID, roleID int64) error {
	assignments, err := s.UserRoles(ctx, userID)
	if err != nil {
		return err
	}
	for _, assignment := range assignments {
		if assignment.RoleID == roleID && assignment.ID != 0 {
			return s.api.Delete(ctx, fmt.Sprintf("/user-roles/%d", assignment.ID))
		}
	}
	return ErrAssignmentNotFound
}

// UpdateUserRole modifies an assignment's window.
func (s *Service) UpdateUserRole(ctx context.Context, assignmentID int64, ur UserRole) (UserRole, error) {
	var wire wireUserRole
	if err := s.api.PutJSON(ctx, fmt.Sprintf("/user-roles/%d", assignmentID), toWire(ur), &wire); err != nil {
		return UserRole{}, err
	}
	return fromWire(wire), nil
}

// UsersWithRoles builds the overview of every user with hydrated role
// assignments. Per-user detail fetches run concurrently with a small
// bound; a user whose roles cannot be loaded still appears, with an
// empty list.
func (s *Service) UsersWithRoles(ctx context.Context, users []directory.User) ([]UserWithRoles, error) {
	out := make([]UserWithRoles, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, user := range users {
		g.Go(func() error {
			roles, err := s.UserRolesWithRoleDetails(gctx, user.ID)
			if err != nil {
				if s.logger != nil {
					s.logger.Warn("load user roles", slog.Int64("user_id", user.ID), slog.Any("error", err))
				}
				roles = nil
			}
			out[i] = UserWithRoles{User: user, Roles: roles}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
