package tag_test

import (
	"context"
	"testing"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/services/tag"
	"github.com/matt-cal/main-st/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := testutils.SetupTestStore(t)
	svc := tag.NewTagService(zaptest.NewLogger(t), store)
	alice := testutils.CreateTestUser(t, store, "alice", "pw")

	_, err := svc.Create(ctx, alice, "", tag.TargetPost, "fun")
	assert.ErrorIs(t, err, concept.ErrBadValues)
	_, err = svc.Create(ctx, alice, "post-1", tag.TargetPost, "")
	assert.ErrorIs(t, err, concept.ErrBadValues)
	_, err = svc.Create(ctx, alice, "post-1", "", "fun")
	assert.ErrorIs(t, err, concept.ErrBadValues)
	_, err = svc.Create(ctx, alice, "post-1", "comment", "fun")
	assert.ErrorIs(t, err, tag.ErrInvalidTargetType)

	_, err = svc.Create(ctx, alice, "post-1", tag.TargetPost, "fun")
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, "post-1", tag.TargetPost, "fun")
	assert.ErrorIs(t, err, tag.ErrAlreadyTagged)
	assert.ErrorIs(t, err, concept.ErrNotAllowed)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	store := testutils.SetupTestStore(t)
	svc := tag.NewTagService(zaptest.NewLogger(t), store)
	alice := testutils.CreateTestUser(t, store, "alice", "pw")

	for _, tc := range []struct {
		target string
		typ    tag.TargetType
		name   string
	}{
		{"post-1", tag.TargetPost, "fun"},
		{"post-2", tag.TargetPost, "fun"},
		{"post-2", tag.TargetPost, "news"},
		{alice, tag.TargetUser, "fun"},
	} {
		_, err := svc.Create(ctx, alice, tc.target, tc.typ, tc.name)
		require.NoError(t, err)
	}

	posts, err := svc.GetTargetsByName(ctx, "fun", tag.TargetPost)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"post-1", "post-2"}, posts)

	users, err := svc.GetTargetsByName(ctx, "fun", tag.TargetUser)
	require.NoError(t, err)
	assert.Equal(t, []string{alice}, users)

	onPost2, err := svc.GetTags(ctx, tag.Query{Target: "post-2"})
	require.NoError(t, err)
	assert.Len(t, onPost2, 2)

	all, err := svc.GetTags(ctx, tag.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	n, err := svc.DeleteByTarget(ctx, "post-2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = svc.DeleteByTargets(ctx, store.DB(), "post-1", alice, "post-9")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = svc.DeleteByTargets(ctx, store.DB())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOwnershipAndRename(t *testing.T) {
	ctx := context.Background()
	store := testutils.SetupTestStore(t)
	svc := tag.NewTagService(zaptest.NewLogger(t), store)
	alice := testutils.CreateTestUser(t, store, "alice", "pw")
	bob := testutils.CreateTestUser(t, store, "bob", "pw")

	fun, err := svc.Create(ctx, alice, "post-1", tag.TargetPost, "fun")
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, "post-1", tag.TargetPost, "news")
	require.NoError(t, err)

	require.NoError(t, svc.IsOwner(ctx, alice, fun.ID))
	assert.ErrorIs(t, svc.IsOwner(ctx, bob, fun.ID), concept.ErrNotAllowed)

	assert.ErrorIs(t, svc.Rename(ctx, fun.ID, "news"), tag.ErrAlreadyTagged)
	require.NoError(t, svc.Rename(ctx, fun.ID, "joy"))

	assert.ErrorIs(t, svc.DeleteByKey(ctx, bob, "post-1", "joy"), concept.ErrNotAllowed)
	assert.ErrorIs(t, svc.DeleteByKey(ctx, alice, "post-1", "fun"), tag.ErrTagNotFound)
	require.NoError(t, svc.DeleteByKey(ctx, alice, "post-1", "joy"))

	assert.ErrorIs(t, svc.Delete(ctx, fun.ID), concept.ErrNotFound)
}
