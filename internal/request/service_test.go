package request

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/accessgate/accessgate/internal/shared"
)

func newTestService(repo *memoryRepo, guard ManagerGuard, notifier DecisionNotifier) *Service {
	logger := testLogger()
	return NewService(repo, NewLifecycle(repo, logger), guard, notifier, logger)
}

func callerCtx(principal shared.Principal) context.Context {
	return shared.ContextWithPrincipal(context.Background(), principal)
}

func TestCreateRequest(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, allowAllGuard{}, &stubNotifier{})

	id, err := svc.Create(callerCtx("carol"), "reports")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(id, "req-carol-"))

	status, ok, err := svc.StatusOf(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusPending, status)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{id}, pending)
}

func TestCreateRequiresPrincipal(t *testing.T) {
	svc := newTestService(newMemoryRepo(), allowAllGuard{}, &stubNotifier{})

	_, err := svc.Create(context.Background(), "reports")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestCreateIDsStrictlyIncrease(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, allowAllGuard{}, &stubNotifier{})

	// A frozen clock forces the monotonic bump path.
	frozen := time.Unix(1700000000, 0)
	svc.clock = func() time.Time { return frozen }

	seen := make(map[string]struct{})
	for range 10 {
		id, err := svc.Create(callerCtx("carol"), "reports")
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestProcessApproveScenario(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{}
	svc := newTestService(repo, allowAllGuard{}, notifier)

	id, err := svc.Create(callerCtx("carol"), "reports")
	require.NoError(t, err)

	require.NoError(t, svc.Process(callerCtx("alice"), id, true))

	status, ok, err := svc.StatusOf(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusApproved, status)

	req, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, req.Processed)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.NotContains(t, pending, id)

	decisions := notifier.decisions()
	require.Len(t, decisions, 1)
	require.True(t, decisions[0].Approved)
	require.Equal(t, id, decisions[0].Request.ID)
}

func TestProcessDeny(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, allowAllGuard{}, &stubNotifier{})

	id, err := svc.Create(callerCtx("carol"), "reports")
	require.NoError(t, err)

	require.NoError(t, svc.Process(callerCtx("bob"), id, false))

	status, _, err := svc.StatusOf(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusDenied, status)
}

func TestProcessPermissionDeniedLeavesRequestUntouched(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{}
	creator := newTestService(repo, allowAllGuard{}, notifier)

	id, err := creator.Create(callerCtx("carol"), "reports")
	require.NoError(t, err)

	svc := newTestService(repo, denyGuard{}, notifier)
	err = svc.Process(callerCtx("dave"), id, true)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	status, _, err := svc.StatusOf(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusPending, status)
	require.Empty(t, notifier.decisions())
}

func TestProcessUnknownRequest(t *testing.T) {
	svc := newTestService(newMemoryRepo(), allowAllGuard{}, &stubNotifier{})

	err := svc.Process(callerCtx("alice"), "req-nobody-1", true)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProcessTerminalRequest(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, allowAllGuard{}, &stubNotifier{})

	id, err := svc.Create(callerCtx("carol"), "reports")
	require.NoError(t, err)
	require.NoError(t, svc.Process(callerCtx("alice"), id, true))

	err = svc.Process(callerCtx("alice"), id, false)
	require.ErrorIs(t, err, shared.ErrNotPending)

	// The first decision never changes.
	status, _, err := svc.StatusOf(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, status)
}

func TestProcessExactlyOnceUnderConcurrency(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(repo, allowAllGuard{}, notifier)

	id, err := svc.Create(callerCtx("carol"), "reports")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- svc.Process(callerCtx("alice"), id, true)
	}()

	// Wait until the first processor is suspended in the downstream call,
	// then race a second processor against it.
	<-notifier.started
	err = svc.Process(callerCtx("bob"), id, false)
	require.ErrorIs(t, err, shared.ErrAlreadyInProgress)

	close(notifier.release)
	require.NoError(t, <-done)

	status, _, err := svc.StatusOf(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, status)
	require.Len(t, notifier.decisions(), 1)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.NotContains(t, pending, id)
}

func TestDownstreamFailureKeepsDecision(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{err: context.DeadlineExceeded}
	svc := newTestService(repo, allowAllGuard{}, notifier)

	id, err := svc.Create(callerCtx("carol"), "reports")
	require.NoError(t, err)

	// The downstream failure is logged, not surfaced, and the original
	// decision is committed unchanged.
	require.NoError(t, svc.Process(callerCtx("alice"), id, true))

	status, _, err := svc.StatusOf(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, status)
}

func TestCancellationStillFinalizes(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{}
	svc := newTestService(repo, allowAllGuard{}, notifier)

	id, err := svc.Create(callerCtx("carol"), "reports")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(callerCtx("alice"))
	cancel()

	// The caller is gone before the downstream work runs; the finalizer
	// must still commit the terminal state and release the hold.
	require.NoError(t, svc.Process(ctx, id, false))

	status, _, err := svc.StatusOf(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusDenied, status)

	err = svc.Process(callerCtx("alice"), id, true)
	require.ErrorIs(t, err, shared.ErrNotPending)
}
