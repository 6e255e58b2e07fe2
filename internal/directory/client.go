package directory

import "context"

// Doer abstracts the authenticated request pipeline the services call
// through. Satisfied by *backend.Client.
type Doer interface {
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, body, out any) error
	PutJSON(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}
