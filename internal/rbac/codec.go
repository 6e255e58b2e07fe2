package rbac

// The backend stores the join table in snake_case (user_id, role_id)
// while everything else it returns is camelCase. All translation is
// centralized here; nothing outside this file touches the wire shape.

// wireUserRole is the assignment as the backend sends and receives it.
type wireUserRole struct {
	ID      int64  `json:"id,omitempty"`
	UserID  int64  `json:"user_id"`
	RoleID  int64  `json:"role_id"`
	StartAt string `json:"startAt,omitempty"`
	EndAt   string `json:"endAt,omitempty"`
}

func fromWire(w wireUserRole) UserRole {
	return UserRole{
		ID:      w.ID,
		UserID:  w.UserID,
		RoleID:  w.RoleID,
		StartAt: w.StartAt,
		EndAt:   w.EndAt,
	}
}

func toWire(ur UserRole) wireUserRole {
	return wireUserRole{
		ID:      ur.ID,
		UserID:  ur.UserID,
		RoleID:  ur.RoleID,
		StartAt: ur.StartAt,
		EndAt:   ur.EndAt,
	}
}

func fromWireList(wire []wireUserRole) []UserRole {
	out := make([]UserRole, 0, len(wire))
	for _, w := range wire {
		out = append(out, fromWire(w))
	}
	return out
}
