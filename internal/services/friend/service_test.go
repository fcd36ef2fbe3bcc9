package friend_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/services/friend"
	"github.com/matt-cal/main-st/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	svc   friend.Service
	alice string
	bob   string
	carol string
}

func setup(t *testing.T) fixture {
	store := testutils.SetupTestStore(t)
	return fixture{
		svc:   friend.NewFriendService(zaptest.NewLogger(t), store),
		alice: testutils.CreateTestUser(t, store, "alice", "pw"),
		bob:   testutils.CreateTestUser(t, store, "bob", "pw"),
		carol: testutils.CreateTestUser(t, store, "carol", "pw"),
	}
}

func pending(requests []friend.Request) []friend.Request {
	var out []friend.Request
	for _, r := range requests {
		if r.Status == friend.StatusPending {
			out = append(out, r)
		}
	}
	return out
}

func TestSendRequestBlocksDuplicatesInBothDirections(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.svc.SendRequest(ctx, f.alice, f.bob))

	err := f.svc.SendRequest(ctx, f.alice, f.bob)
	assert.ErrorIs(t, err, friend.ErrAlreadyRequested)
	assert.ErrorIs(t, err, concept.ErrNotAllowed)

	err = f.svc.SendRequest(ctx, f.bob, f.alice)
	assert.ErrorIs(t, err, friend.ErrAlreadyRequested)

	// Other pairs are unaffected.
	require.NoError(t, f.svc.SendRequest(ctx, f.alice, f.carol))

	// Once removed, the pair may request again.
	require.NoError(t, f.svc.RemoveRequest(ctx, f.alice, f.bob))
	require.NoError(t, f.svc.SendRequest(ctx, f.bob, f.alice))
}

func TestSendRequestToSelf(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	err := f.svc.SendRequest(ctx, f.alice, f.alice)
	assert.ErrorIs(t, err, friend.ErrCannotFriendSelf)
	assert.ErrorIs(t, err, concept.ErrNotAllowed)
}

func TestAcceptRequest(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.svc.SendRequest(ctx, f.alice, f.bob))

	// Direction matters: bob never sent alice a request.
	err := f.svc.AcceptRequest(ctx, f.bob, f.alice)
	assert.ErrorIs(t, err, friend.ErrRequestNotFound)
	assert.ErrorIs(t, err, concept.ErrNotFound)

	require.NoError(t, f.svc.AcceptRequest(ctx, f.alice, f.bob))

	friends, err := f.svc.GetFriends(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob}, friends)

	friends, err = f.svc.GetFriends(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, []string{f.alice}, friends)

	requests, err := f.svc.GetRequests(ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, pending(requests))
	require.Len(t, requests, 1)
	assert.Equal(t, friend.StatusAccepted, requests[0].Status)

	err = f.svc.SendRequest(ctx, f.bob, f.alice)
	assert.ErrorIs(t, err, friend.ErrAlreadyFriends)

	err = f.svc.AcceptRequest(ctx, f.alice, f.bob)
	assert.ErrorIs(t, err, friend.ErrRequestNotFound)
}

func TestRejectRequest(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.svc.SendRequest(ctx, f.alice, f.bob))
	require.NoError(t, f.svc.RejectRequest(ctx, f.alice, f.bob))

	friends, err := f.svc.GetFriends(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, friends)

	requests, err := f.svc.GetRequests(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, pending(requests))
	require.Len(t, requests, 1)
	assert.Equal(t, friend.StatusRejected, requests[0].Status)

	assert.ErrorIs(t, f.svc.RejectRequest(ctx, f.alice, f.bob), friend.ErrRequestNotFound)

	require.NoError(t, f.svc.SendRequest(ctx, f.alice, f.bob))
}

func TestRemoveRequest(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	assert.ErrorIs(t, f.svc.RemoveRequest(ctx, f.alice, f.bob), friend.ErrRequestNotFound)

	require.NoError(t, f.svc.SendRequest(ctx, f.alice, f.bob))
	assert.ErrorIs(t, f.svc.RemoveRequest(ctx, f.bob, f.alice), friend.ErrRequestNotFound)
	require.NoError(t, f.svc.RemoveRequest(ctx, f.alice, f.bob))

	requests, err := f.svc.GetRequests(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestRemoveFriend(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	err := f.svc.RemoveFriend(ctx, f.alice, f.bob)
	assert.ErrorIs(t, err, friend.ErrFriendNotFound)
	assert.ErrorIs(t, err, concept.ErrNotFound)

	require.NoError(t, f.svc.SendRequest(ctx, f.alice, f.bob))
	require.NoError(t, f.svc.AcceptRequest(ctx, f.alice, f.bob))
	require.NoError(t, f.svc.SendRequest(ctx, f.carol, f.alice))
	require.NoError(t, f.svc.AcceptRequest(ctx, f.carol, f.alice))

	require.NoError(t, f.svc.RemoveFriend(ctx, f.bob, f.alice))
	assert.ErrorIs(t, f.svc.RemoveFriend(ctx, f.alice, f.bob), friend.ErrFriendNotFound)

	friends, err := f.svc.GetFriends(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []string{f.carol}, friends)
}

func TestErrorMessagesNameBothUsers(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	err := f.svc.RemoveRequest(ctx, f.alice, f.bob)
	var cerr *concept.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{f.alice, f.bob}, cerr.UserRefs())
	assert.Equal(t, "Friend request from alice to bob does not exist!",
		cerr.Render(map[string]string{f.alice: "alice", f.bob: "bob"}))
}

func TestAcceptAndRemoveRace(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for i := 0; i < 20; i++ {
		require.NoError(t, f.svc.SendRequest(ctx, f.alice, f.bob))

		var (
			wg        sync.WaitGroup
			acceptErr error
			removeErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			acceptErr = f.svc.AcceptRequest(ctx, f.alice, f.bob)
		}()
		go func() {
			defer wg.Done()
			removeErr = f.svc.RemoveRequest(ctx, f.alice, f.bob)
		}()
		wg.Wait()

		if (acceptErr == nil) == (removeErr == nil) {
			t.Fatalf("iteration %d: exactly one call must succeed (accept=%v, remove=%v)", i, acceptErr, removeErr)
		}

		friends, err := f.svc.GetFriends(ctx, f.alice)
		require.NoError(t, err)

		if acceptErr == nil {
			assert.ErrorIs(t, removeErr, friend.ErrRequestNotFound)
			assert.Equal(t, []string{f.bob}, friends)
			require.NoError(t, f.svc.RemoveFriend(ctx, f.alice, f.bob))
		} else {
			assert.ErrorIs(t, acceptErr, friend.ErrRequestNotFound)
			assert.Empty(t, friends)
		}

		requests, err := f.svc.GetRequests(ctx, f.alice)
		require.NoError(t, err)
		assert.Empty(t, pending(requests))
	}
}

func TestCrossedSendRequestRace(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for i := 0; i < 20; i++ {
		var (
			wg       sync.WaitGroup
			aliceErr error
			bobErr   error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			aliceErr = f.svc.SendRequest(ctx, f.alice, f.bob)
		}()
		go func() {
			defer wg.Done()
			bobErr = f.svc.SendRequest(ctx, f.bob, f.alice)
		}()
		wg.Wait()

		if (aliceErr == nil) == (bobErr == nil) {
			t.Fatalf("iteration %d: exactly one call must succeed (alice=%v, bob=%v)", i, aliceErr, bobErr)
		}

		requests, err := f.svc.GetRequests(ctx, f.alice)
		require.NoError(t, err)
		open := pending(requests)
		require.Len(t, open, 1)

		if aliceErr == nil {
			assert.ErrorIs(t, bobErr, friend.ErrAlreadyRequested)
			require.NoError(t, f.svc.RemoveRequest(ctx, f.alice, f.bob))
		} else {
			assert.ErrorIs(t, aliceErr, friend.ErrAlreadyRequested)
			require.NoError(t, f.svc.RemoveRequest(ctx, f.bob, f.alice))
		}
	}
}

func TestPairKeyIsUnordered(t *testing.T) {
	assert.Equal(t, friend.PairKey("a", "b"), friend.PairKey("b", "a"))
	assert.NotEqual(t, friend.PairKey("a", "b"), friend.PairKey("a", "c"))
}
