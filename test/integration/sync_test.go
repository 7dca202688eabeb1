//go:build integration

package integration

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudai/relgraph/internal/admin"
	"github.com/wudai/relgraph/internal/config"
	"github.com/wudai/relgraph/internal/server"
	"github.com/wudai/relgraph/internal/store"
	"github.com/wudai/relgraph/internal/store/local"
	"github.com/wudai/relgraph/internal/store/remote"
)

const adminKey = "integration-secret"

func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv, err := local.OpenKV(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	state, err := server.NewState(kv, nil)
	require.NoError(t, err)

	srv := server.New(state, config.ServerConfig{AdminKey: adminKey}, nil)
	ts := httptest.NewServer(srv.SetupRouter())
	t.Cleanup(ts.Close)
	return ts
}

func clientStore(t *testing.T, ts *httptest.Server, clientID string) (*remote.Store, *remote.Client) {
	t.Helper()
	c := remote.NewClient(ts.URL, clientID)
	s := remote.New(c, nil)
	require.NoError(t, s.Refresh(context.Background()))
	return s, c
}

func TestSyncFullFlow(t *testing.T) {
	ts := startBackend(t)
	ctx := context.Background()

	alice, _ := clientStore(t, ts, "alice")
	bob, _ := clientStore(t, ts, "bob")

	// the backend seeds the center node
	snap := alice.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "李存勖", snap.Nodes[0].Name)

	// alice builds a small graph
	siyuan, err := alice.AddNode(ctx, store.NodeFields{Name: "李嗣源", Position: "后唐明宗"})
	require.NoError(t, err)
	link, err := alice.AddLink(ctx, "li_cunxu", siyuan.ID, "义子")
	require.NoError(t, err)
	require.NotEmpty(t, link.ID)

	// bob sees it after a refresh
	require.NoError(t, bob.Refresh(ctx))
	bobSnap := bob.Snapshot()
	assert.NotNil(t, bobSnap.FindNode(siyuan.ID))

	// bob cannot touch alice's records
	err = bob.UpdateNode(ctx, siyuan.ID, store.NodeFields{Name: "篡改"})
	var apiErr *remote.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)

	err = bob.DeleteLink(ctx, store.LinkRef{ID: link.ID})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)

	// duplicate pairs are refused server-side
	_, err = alice.AddLink(ctx, siyuan.ID, "li_cunxu", "君臣")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)

	// node deletion cascades to its links
	require.NoError(t, alice.DeleteNode(ctx, siyuan.ID))
	snap = alice.Snapshot()
	assert.Nil(t, snap.FindNode(siyuan.ID))
	assert.Empty(t, snap.Links)
}

func TestSyncComments(t *testing.T) {
	ts := startBackend(t)
	ctx := context.Background()

	alice, _ := clientStore(t, ts, "alice")
	bob, _ := clientStore(t, ts, "bob")

	c, err := alice.AddComment(ctx, "", "先帝创业未半")
	require.NoError(t, err)
	assert.Equal(t, "匿名", c.Author)

	// likes toggle per client
	liked, likes, err := bob.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)

	liked2, likes2, err := alice.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, liked2)
	assert.Equal(t, 2, likes2)

	liked, likes, err = bob.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, likes)

	// replies are anonymous and land under the parent
	_, err = bob.AddReply(ctx, c.ID, "后人评说")
	require.NoError(t, err)
	bobSnap := bob.Snapshot()
	parent, _ := bobSnap.FindComment(c.ID)
	require.NotNil(t, parent)
	require.Len(t, parent.Replies, 1)
	assert.Equal(t, "匿名", parent.Replies[0].Author)

	// ownership on edits and deletes
	var apiErr *remote.APIError
	err = bob.EditComment(ctx, c.ID, "hijack")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	require.NoError(t, alice.EditComment(ctx, c.ID, "revised"))
}

func TestSyncAdminFlow(t *testing.T) {
	ts := startBackend(t)
	ctx := context.Background()

	alice, _ := clientStore(t, ts, "alice")
	node, err := alice.AddNode(ctx, store.NodeFields{Name: "郭崇韬"})
	require.NoError(t, err)

	root, client := clientStore(t, ts, "root")
	auth, err := admin.NewKeyAuthorizer(client, nil)
	require.NoError(t, err)
	client.AdminKey = auth.Key

	// wrong key is rejected and leaves admin mode off
	assert.Error(t, auth.Verify(ctx, "wrong"))
	assert.False(t, auth.IsAdmin())

	require.NoError(t, auth.Verify(ctx, adminKey))
	assert.True(t, auth.IsAdmin())

	// with the verified key attached, ownership no longer applies
	require.NoError(t, root.DeleteNode(ctx, node.ID))

	// but the center node stays protected even from admins
	err = root.DeleteNode(ctx, "li_cunxu")
	var apiErr *remote.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
}
