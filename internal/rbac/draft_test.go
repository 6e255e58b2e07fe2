package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/aegis-admin/aegis-admin/testing"
)

func TestDraftToggle(t *testing.T) {
	draft := NewDraft()

	require.True(t, draft.Toggle(1, 2))
	require.True(t, draft.Assigned(1, 2))
	require.False(t, draft.Assigned(1, 3))

	// A second toggle removes the staged mapping.
	require.False(t, draft.Toggle(1, 2))
	require.False(t, draft.Assigned(1, 2))
	require.Empty(t, draft.Entries())
}

func TestDraftSetWindow(t *testing.T) {
	draft := NewDraft()
	draft.Toggle(1, 2)

	require.True(t, draft.SetWindow(1, 2, "2026-01-01 00:00:00", "2027-01-01 00:00:00"))
	require.False(t, draft.SetWindow(9, 9, "", ""))

	entries := draft.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "2026-01-01 00:00:00", entries[0].StartAt)
	require.Equal(t, "2027-01-01 00:00:00", entries[0].EndAt)
}

func TestDraftCommitNotWired(t *testing.T) {
	draft := NewDraft()
	draft.Toggle(1, 2)

	require.ErrorIs(t, draft.Commit(), ErrDraftNotWired)
	// The staged work survives the failed commit.
	require.True(t, draft.Assigned(1, 2))
}
