package local

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudai/relgraph/internal/filter"
	"github.com/wudai/relgraph/internal/ratelimit"
	"github.com/wudai/relgraph/internal/store"
)

type fakeAuth struct {
	admin bool
}

func (f *fakeAuth) IsAdmin() bool { return f.admin }

func generousLimits() ratelimit.Config {
	return ratelimit.Config{
		MaxActions:      1000,
		Window:          time.Minute,
		Cooldown:        time.Second,
		MaxDeletes:      1000,
		DeleteWindow:    time.Minute,
		MaxTotalDeletes: 1000,
	}
}

func openTestStore(t *testing.T, kv *KV, clientID string, auth store.Authorizer, limits ratelimit.Config) *Store {
	t.Helper()
	s, err := Open(kv, Options{
		ClientID: clientID,
		Limiter:  ratelimit.New(limits, DeleteCounters{KV: kv}),
		Filter:   filter.New([]string{"赌博", "办证"}),
		Auth:     auth,
	})
	require.NoError(t, err)
	return s
}

func TestOpenSeedsCenterNode(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())

	snap := s.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "李存勖", snap.Nodes[0].Name)
	assert.True(t, snap.Nodes[0].IsCenter)
}

func TestOpenDiscardsCorruptBlob(t *testing.T) {
	kv := openTestKV(t)
	require.NoError(t, kv.Set(keyGraphData, "{not json"))

	s := openTestStore(t, kv, "me", nil, generousLimits())
	snap := s.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.True(t, snap.Nodes[0].IsCenter)
}

func TestAddNode(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())

	node, err := s.AddNode(context.Background(), store.NodeFields{Name: " 李嗣源 ", Position: "后唐明宗"})
	require.NoError(t, err)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, "李嗣源", node.Name)
	assert.Equal(t, "me", node.CreatedBy)
	assert.NotZero(t, node.CreatedAt)

	_, err = s.AddNode(context.Background(), store.NodeFields{Name: "  "})
	assert.ErrorIs(t, err, store.ErrNameRequired)

	_, err = s.AddNode(context.Background(), store.NodeFields{Name: "张三", Personality: "喜赌博"})
	assert.ErrorIs(t, err, store.ErrBannedContent)
}

func TestNodesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	kv, err := OpenKV(path)
	require.NoError(t, err)
	s := openTestStore(t, kv, "me", nil, generousLimits())
	_, err = s.AddNode(context.Background(), store.NodeFields{Name: "李嗣源"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	kv2, err := OpenKV(path)
	require.NoError(t, err)
	s2 := openTestStore(t, kv2, "me", nil, generousLimits())
	defer s2.Close()
	assert.Len(t, s2.Snapshot().Nodes, 2)
}

func TestUpdateNodeIsOpenToEveryone(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())
	node, err := s.AddNode(context.Background(), store.NodeFields{Name: "李嗣源"})
	require.NoError(t, err)

	other := openTestStore(t, kv, "someone-else", nil, generousLimits())
	err = other.UpdateNode(context.Background(), node.ID, store.NodeFields{Name: "李嗣源", Position: "后唐明宗"})
	assert.NoError(t, err)

	err = other.UpdateNode(context.Background(), "missing", store.NodeFields{Name: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteNodeCascades(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())
	ctx := context.Background()

	a, err := s.AddNode(ctx, store.NodeFields{Name: "李嗣源"})
	require.NoError(t, err)
	b, err := s.AddNode(ctx, store.NodeFields{Name: "郭崇韬"})
	require.NoError(t, err)
	_, err = s.AddLink(ctx, a.ID, b.ID, "同僚")
	require.NoError(t, err)
	_, err = s.AddLink(ctx, "li_cunxu", b.ID, "君臣")
	require.NoError(t, err)

	require.NoError(t, s.DeleteNode(ctx, b.ID))

	snap := s.Snapshot()
	assert.Nil(t, snap.FindNode(b.ID))
	assert.Empty(t, snap.Links)
	assert.NotNil(t, snap.FindNode(a.ID))
}

func TestDeleteNodeRefusesCenter(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", &fakeAuth{admin: true}, generousLimits())

	err := s.DeleteNode(context.Background(), "li_cunxu")
	assert.ErrorIs(t, err, store.ErrCenterNode)
}

func TestLifetimeDeleteCapPersists(t *testing.T) {
	limits := generousLimits()
	limits.MaxTotalDeletes = 2

	path := filepath.Join(t.TempDir(), "kv.db")
	kv, err := OpenKV(path)
	require.NoError(t, err)
	s := openTestStore(t, kv, "me", nil, limits)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n, err := s.AddNode(ctx, store.NodeFields{Name: "某人"})
		require.NoError(t, err)
		err = s.DeleteNode(ctx, n.ID)
		if i < 2 {
			require.NoError(t, err)
			continue
		}
		var rl *ratelimit.RateLimitError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, "total-delete", rl.Scope)
	}
	require.NoError(t, s.Close())

	// the counter is durable; a fresh process is still capped
	kv2, err := OpenKV(path)
	require.NoError(t, err)
	s2 := openTestStore(t, kv2, "me", nil, limits)
	defer s2.Close()
	n, err := s2.AddNode(ctx, store.NodeFields{Name: "某人"})
	require.NoError(t, err)
	var rl *ratelimit.RateLimitError
	assert.ErrorAs(t, s2.DeleteNode(ctx, n.ID), &rl)
}

func TestAdminSkipsRateLimits(t *testing.T) {
	limits := generousLimits()
	limits.MaxActions = 1
	limits.MaxTotalDeletes = 0

	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", &fakeAuth{admin: true}, limits)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.AddNode(ctx, store.NodeFields{Name: "某人"})
		require.NoError(t, err)
	}
	n, err := s.AddNode(ctx, store.NodeFields{Name: "目标"})
	require.NoError(t, err)
	assert.NoError(t, s.DeleteNode(ctx, n.ID))
}

func TestActionRateLimitAppliesToWrites(t *testing.T) {
	limits := generousLimits()
	limits.MaxActions = 2
	limits.Cooldown = 5 * time.Second

	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, limits)
	ctx := context.Background()

	_, err := s.AddNode(ctx, store.NodeFields{Name: "一"})
	require.NoError(t, err)
	_, err = s.AddNode(ctx, store.NodeFields{Name: "二"})
	require.NoError(t, err)

	_, err = s.AddNode(ctx, store.NodeFields{Name: "三"})
	var rl *ratelimit.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "action", rl.Scope)
}

func TestAddLinkValidation(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())
	ctx := context.Background()

	a, err := s.AddNode(ctx, store.NodeFields{Name: "李嗣源"})
	require.NoError(t, err)

	_, err = s.AddLink(ctx, a.ID, a.ID, "自己")
	assert.ErrorIs(t, err, store.ErrSelfLink)

	_, err = s.AddLink(ctx, a.ID, "missing", "君臣")
	assert.ErrorIs(t, err, store.ErrUnknownNode)

	_, err = s.AddLink(ctx, a.ID, "li_cunxu", " ")
	assert.ErrorIs(t, err, store.ErrEmptyContent)

	_, err = s.AddLink(ctx, a.ID, "li_cunxu", "义子")
	require.NoError(t, err)

	// a second link between the same pair is rejected in either direction
	_, err = s.AddLink(ctx, a.ID, "li_cunxu", "君臣")
	assert.ErrorIs(t, err, store.ErrDuplicateLink)
	_, err = s.AddLink(ctx, "li_cunxu", a.ID, "君臣")
	assert.ErrorIs(t, err, store.ErrDuplicateLink)
}

func TestDeleteLinkOwnership(t *testing.T) {
	kv := openTestKV(t)
	mine := openTestStore(t, kv, "client-x", nil, generousLimits())
	ctx := context.Background()

	a, err := mine.AddNode(ctx, store.NodeFields{Name: "李嗣源"})
	require.NoError(t, err)
	_, err = mine.AddLink(ctx, a.ID, "li_cunxu", "义子")
	require.NoError(t, err)

	theirs := openTestStore(t, kv, "client-y", nil, generousLimits())
	err = theirs.DeleteLink(ctx, store.LinkRef{Source: a.ID, Target: "li_cunxu"})
	assert.ErrorIs(t, err, store.ErrNotOwner)

	// the owner can, matching by pair in either direction
	err = mine.DeleteLink(ctx, store.LinkRef{Source: "li_cunxu", Target: a.ID})
	assert.NoError(t, err)
	assert.Empty(t, mine.Snapshot().Links)
}

func TestAdminDeletesAnyLink(t *testing.T) {
	kv := openTestKV(t)
	mine := openTestStore(t, kv, "client-x", nil, generousLimits())
	ctx := context.Background()

	a, err := mine.AddNode(ctx, store.NodeFields{Name: "李嗣源"})
	require.NoError(t, err)
	_, err = mine.AddLink(ctx, a.ID, "li_cunxu", "义子")
	require.NoError(t, err)

	root := openTestStore(t, kv, "client-admin", &fakeAuth{admin: true}, generousLimits())
	assert.NoError(t, root.DeleteLink(ctx, store.LinkRef{Source: a.ID, Target: "li_cunxu"}))
}

func TestAddCommentDefaultsToAnonymous(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())

	c, err := s.AddComment(context.Background(), "  ", "先帝创业未半")
	require.NoError(t, err)
	assert.Equal(t, "匿名", c.Author)
	assert.Equal(t, "me", c.CreatedBy)

	_, err = s.AddComment(context.Background(), "甲", "  ")
	assert.ErrorIs(t, err, store.ErrEmptyContent)

	_, err = s.AddComment(context.Background(), "甲", "代人办证")
	assert.ErrorIs(t, err, store.ErrBannedContent)
}

func TestRepliesAreOneLevelAndAnonymous(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())
	ctx := context.Background()

	c, err := s.AddComment(ctx, "甲", "top")
	require.NoError(t, err)

	r, err := s.AddReply(ctx, c.ID, "first reply")
	require.NoError(t, err)
	assert.Equal(t, "匿名", r.Author)

	// replying to a reply is refused
	_, err = s.AddReply(ctx, r.ID, "nested")
	assert.ErrorIs(t, err, store.ErrNotFound)

	snap := s.Snapshot()
	parent, _ := snap.FindComment(c.ID)
	require.Len(t, parent.Replies, 1)
}

func TestCommentOwnership(t *testing.T) {
	kv := openTestKV(t)
	x := openTestStore(t, kv, "client-x", nil, generousLimits())
	ctx := context.Background()

	c, err := x.AddComment(ctx, "甲", "client x wrote this")
	require.NoError(t, err)

	y := openTestStore(t, kv, "client-y", nil, generousLimits())
	require.NoError(t, y.Refresh(ctx))

	assert.ErrorIs(t, y.EditComment(ctx, c.ID, "hijacked"), store.ErrNotOwner)
	assert.ErrorIs(t, y.DeleteComment(ctx, c.ID), store.ErrNotOwner)

	// admin overrides ownership
	root := openTestStore(t, kv, "client-z", &fakeAuth{admin: true}, generousLimits())
	require.NoError(t, root.Refresh(ctx))
	assert.NoError(t, root.DeleteComment(ctx, c.ID))
}

func TestEditCommentStampsEditedAt(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())
	ctx := context.Background()

	c, err := s.AddComment(ctx, "甲", "original")
	require.NoError(t, err)
	assert.Zero(t, c.EditedAt)

	require.NoError(t, s.EditComment(ctx, c.ID, "revised"))
	snap := s.Snapshot()
	got, _ := snap.FindComment(c.ID)
	assert.Equal(t, "revised", got.Content)
	assert.NotZero(t, got.EditedAt)
}

func TestToggleLike(t *testing.T) {
	kv := openTestKV(t)
	s := openTestStore(t, kv, "me", nil, generousLimits())
	ctx := context.Background()

	c, err := s.AddComment(ctx, "甲", "like me")
	require.NoError(t, err)

	liked, likes, err := s.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)

	liked, likes, err = s.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, likes)

	_, _, err = s.ToggleLike(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLikeStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	kv, err := OpenKV(path)
	require.NoError(t, err)
	s := openTestStore(t, kv, "me", nil, generousLimits())
	ctx := context.Background()

	c, err := s.AddComment(ctx, "甲", "like me")
	require.NoError(t, err)
	_, _, err = s.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	kv2, err := OpenKV(path)
	require.NoError(t, err)
	s2 := openTestStore(t, kv2, "me", nil, generousLimits())
	defer s2.Close()

	liked, err := s2.HasLiked(c.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	// a second toggle after restart unlikes rather than double-counting
	liked2, likes, err := s2.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, liked2)
	assert.Equal(t, 0, likes)
}

func TestLikesArePerClient(t *testing.T) {
	kv := openTestKV(t)
	x := openTestStore(t, kv, "client-x", nil, generousLimits())
	ctx := context.Background()

	c, err := x.AddComment(ctx, "甲", "popular")
	require.NoError(t, err)
	_, _, err = x.ToggleLike(ctx, c.ID)
	require.NoError(t, err)

	y := openTestStore(t, kv, "client-y", nil, generousLimits())
	require.NoError(t, y.Refresh(ctx))
	liked, likes, err := y.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 2, likes)
}
