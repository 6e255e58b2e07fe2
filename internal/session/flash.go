package session

import (
	"context"
	"encoding/json"
)

// KeyFlash holds the pending one-time notification for a scope.
const KeyFlash = "flash"

// Flash is a one-time notification shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// AddFlash queues a flash message for the scope carried by ctx. A
// second Add before the first Pop overwrites; the screens only ever
// show the latest outcome.
func AddFlash(ctx context.Context, store Store, flash Flash) error {
	data, err := json.Marshal(flash)
	if err != nil {
		return err
	}
	return store.Set(ctx, ScopeFromContext(ctx), KeyFlash, string(data))
}

// PopFlash retrieves and clears the pending flash, or returns nil.
func PopFlash(ctx context.Context, store Store) *Flash {
	scope := ScopeFromContext(ctx)
	raw, err := store.Get(ctx, scope, KeyFlash)
	if err != nil || raw == "" {
		return nil
	}
	_ = store.Delete(ctx, scope, KeyFlash)
	var flash Flash
	if err := json.Unmarshal([]byte(raw), &flash); err != nil {
		return nil
	}
	return &flash
}
