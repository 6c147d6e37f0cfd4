package cgraph_go

import (
	"path/filepath"
	"testing"
	"time"

	"cgraph-go/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *RenderLog {
	log, err := OpenRenderLog(filepath.Join(t.TempDir(), "render_log.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestRenderLogRecordAndQuery(t *testing.T) {
	log := openTestLog(t)
	for _, e := range []*model.RenderEntry{
		{DocumentHash: "h1", Source: "a.cg", Commands: 1},
		{DocumentHash: "h2", Source: "b.cg", Commands: 2},
		{DocumentHash: "h1", Source: "c.cg", Commands: 3},
	} {
		require.NoError(t, log.Record(e))
		assert.NotZero(t, e.ID)
		assert.NotZero(t, e.CreatedAt)
		assert.Equal(t, int64(kDefaultRenderLogExpiry.Seconds()), e.ExpiredDuration)
	}

	recent, err := log.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c.cg", recent[0].Source)
	assert.Equal(t, "b.cg", recent[1].Source)

	byHash, err := log.FindByHash("h1", 10)
	require.NoError(t, err)
	require.Len(t, byHash, 2)
	assert.Equal(t, 3, byHash[0].Commands)
	assert.Equal(t, 1, byHash[1].Commands)

	none, err := log.FindByHash("missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRenderLogCleanExpired(t *testing.T) {
	log := openTestLog(t)
	require.NoError(t, log.Record(&model.RenderEntry{DocumentHash: "keep"}))
	require.NoError(t, log.Record(&model.RenderEntry{DocumentHash: "old", ExpiredDuration: -10}))

	log.SetExpiry(-10 * time.Second)
	require.NoError(t, log.Record(&model.RenderEntry{DocumentHash: "short"}))

	n, err := log.CleanExpired(100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = log.CleanExpired(100)
	require.NoError(t, err)
	assert.Zero(t, n)

	left, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "keep", left[0].DocumentHash)
}

func TestDocumentDigest(t *testing.T) {
	d := DocumentDigest("point p 1 1")
	assert.Len(t, d, 64)
	assert.Equal(t, d, DocumentDigest("point p 1 1"))
	assert.NotEqual(t, d, DocumentDigest("point p 1 2"))
}
