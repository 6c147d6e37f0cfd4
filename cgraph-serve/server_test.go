package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	cgraph_go "cgraph-go/cgraph-go"
	"cgraph-go/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newTestServer(t *testing.T) (*RenderServer, *cgraph_go.RenderLog) {
	log, err := cgraph_go.OpenRenderLog(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return NewRenderServer(log, cgraph_go.NewRenderConfig()), log
}

func request(server *RenderServer, method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.SetBodyString(body)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	server.Handler(ctx)
	return ctx
}

func TestHandleRender(t *testing.T) {
	server, log := newTestServer(t)
	before := renderCalls.Value()
	document := "point p 1 1"

	ctx := request(server, fasthttp.MethodPost, "/render", document)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "image/svg+xml", string(ctx.Response.Header.ContentType()))
	assert.True(t, strings.HasPrefix(string(ctx.Response.Body()), "<svg "))
	digest := string(ctx.Response.Header.Peek("X-Cgraph-Digest"))
	assert.Equal(t, cgraph_go.DocumentDigest(document), digest)
	assert.Equal(t, before+1, renderCalls.Value())

	entries, err := log.FindByHash(digest, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "http", entries[0].Source)
	assert.Equal(t, 2, entries[0].Instances)
}

func TestHandleRenderRejects(t *testing.T) {
	server, _ := newTestServer(t)
	before := failedResponses.Value()

	ctx := request(server, fasthttp.MethodGet, "/render", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())

	ctx = request(server, fasthttp.MethodPost, "/render", strings.Repeat("x", kMaxDocumentSize+1))
	assert.Equal(t, fasthttp.StatusRequestEntityTooLarge, ctx.Response.StatusCode())

	ctx = request(server, fasthttp.MethodGet, "/nowhere", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	assert.Equal(t, before+3, failedResponses.Value())
}

func TestHandleQuery(t *testing.T) {
	server, log := newTestServer(t)
	require.NoError(t, log.Record(&model.RenderEntry{DocumentHash: "h1", Source: "a"}))
	require.NoError(t, log.Record(&model.RenderEntry{DocumentHash: "h2", Source: "b"}))

	decode := func(ctx *fasthttp.RequestCtx) []model.RenderEntry {
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		var entries []model.RenderEntry
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &entries))
		return entries
	}

	all := decode(request(server, fasthttp.MethodGet, "/query", ""))
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Source)

	one := decode(request(server, fasthttp.MethodGet, "/query?hash=h1", ""))
	require.Len(t, one, 1)
	assert.Equal(t, "a", one[0].Source)

	assert.Len(t, decode(request(server, fasthttp.MethodGet, "/query?limit=1", "")), 1)

	ctx := request(server, fasthttp.MethodGet, "/query?hash=none", "")
	assert.Equal(t, "[]", string(ctx.Response.Body()))

	ctx = request(server, fasthttp.MethodGet, "/query?limit=x", "")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestHandleQueryWithoutLog(t *testing.T) {
	server := NewRenderServer(nil, cgraph_go.NewRenderConfig())
	ctx := request(server, fasthttp.MethodGet, "/query", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	// rendering works without a log
	ctx = request(server, fasthttp.MethodPost, "/render", "line")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestStats(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := request(server, fasthttp.MethodGet, "/stats?r=renderCalls", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "renderCalls")
}

func TestCleanTask(t *testing.T) {
	_, log := newTestServer(t)
	require.NoError(t, log.Record(&model.RenderEntry{DocumentHash: "old", ExpiredDuration: -10}))
	require.NoError(t, log.Record(&model.RenderEntry{DocumentHash: "new"}))

	// a run still in progress blocks the next one
	cleanRunning.Set()
	cleanTask(log)
	cleanRunning.UnSet()
	entries, err := log.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	before := expiredRemovals.Value()
	cleanTask(log)
	assert.Equal(t, before+1, expiredRemovals.Value())
	entries, err = log.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].DocumentHash)
	assert.False(t, cleanRunning.IsSet())
}
