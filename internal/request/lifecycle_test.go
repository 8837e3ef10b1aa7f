package request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/accessgate/accessgate/internal/shared"
)

func pendingRequest(t *testing.T, repo *memoryRepo, id string) {
	t.Helper()
	err := repo.Insert(context.Background(), AccessRequest{
		ID:          id,
		Requester:   "carol",
		Resource:    "reports",
		RequestedAt: time.Now(),
		Status:      StatusPending,
	})
	require.NoError(t, err)
}

func TestBeginUnknownRequest(t *testing.T) {
	lc := NewLifecycle(newMemoryRepo(), testLogger())

	_, err := lc.Begin(context.Background(), "req-missing-1")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBeginTerminalRequest(t *testing.T) {
	repo := newMemoryRepo()
	pendingRequest(t, repo, "req-carol-1")
	require.NoError(t, repo.MarkProcessed(context.Background(), "req-carol-1", StatusDenied))

	lc := NewLifecycle(repo, testLogger())
	_, err := lc.Begin(context.Background(), "req-carol-1")
	require.ErrorIs(t, err, shared.ErrNotPending)
}

func TestBeginExclusive(t *testing.T) {
	repo := newMemoryRepo()
	pendingRequest(t, repo, "req-carol-1")
	lc := NewLifecycle(repo, testLogger())

	ticket, err := lc.Begin(context.Background(), "req-carol-1")
	require.NoError(t, err)

	_, err = lc.Begin(context.Background(), "req-carol-1")
	require.ErrorIs(t, err, shared.ErrAlreadyInProgress)

	ticket.Finalize(context.Background(), StatusApproved)

	// Terminal now, not in progress.
	_, err = lc.Begin(context.Background(), "req-carol-1")
	require.ErrorIs(t, err, shared.ErrNotPending)
}

func TestFinalizeRunsOnce(t *testing.T) {
	repo := newMemoryRepo()
	pendingRequest(t, repo, "req-carol-1")
	lc := NewLifecycle(repo, testLogger())

	ticket, err := lc.Begin(context.Background(), "req-carol-1")
	require.NoError(t, err)

	ticket.Finalize(context.Background(), StatusApproved)
	ticket.Finalize(context.Background(), StatusDenied)

	req, err := repo.Get(context.Background(), "req-carol-1")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, req.Status)
	require.True(t, req.Processed)

	pending, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestFinalizeReleasesHoldOnStoreFailure(t *testing.T) {
	repo := newMemoryRepo()
	pendingRequest(t, repo, "req-carol-1")
	lc := NewLifecycle(repo, testLogger())

	ticket, err := lc.Begin(context.Background(), "req-carol-1")
	require.NoError(t, err)

	repo.failMark = true
	ticket.Finalize(context.Background(), StatusApproved)
	repo.failMark = false

	// The record stayed pending, but the hold was released: a retry can
	// acquire a fresh ticket and complete.
	retry, err := lc.Begin(context.Background(), "req-carol-1")
	require.NoError(t, err)
	retry.Finalize(context.Background(), StatusApproved)

	req, err := repo.Get(context.Background(), "req-carol-1")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, req.Status)
	require.True(t, req.Processed)
}

func TestBeginDistinctRequestsIndependent(t *testing.T) {
	repo := newMemoryRepo()
	pendingRequest(t, repo, "req-carol-1")
	pendingRequest(t, repo, "req-carol-2")
	lc := NewLifecycle(repo, testLogger())

	first, err := lc.Begin(context.Background(), "req-carol-1")
	require.NoError(t, err)

	// The in-flight set only blocks re-entry on the same id.
	second, err := lc.Begin(context.Background(), "req-carol-2")
	require.NoError(t, err)

	first.Finalize(context.Background(), StatusApproved)
	second.Finalize(context.Background(), StatusDenied)
}
