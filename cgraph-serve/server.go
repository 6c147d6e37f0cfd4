package main

import (
	"encoding/json"
	"expvar"
	"strconv"

	cgraph_go "cgraph-go/cgraph-go"
	"cgraph-go/model"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/expvarhandler"
)

// Various counters - see https://pkg.go.dev/expvar for details.
var (
	renderCalls     = expvar.NewInt("renderCalls")
	renderCommands  = expvar.NewInt("renderCommands")
	renderBodyBytes = expvar.NewInt("renderBodyBytes")
	queryCalls      = expvar.NewInt("queryCalls")
	failedResponses = expvar.NewInt("failedResponses")
	expiredRemovals = expvar.NewInt("expiredRemovals")
)

const kMaxDocumentSize = 1 << 20

type RenderServer struct {
	log_    *cgraph_go.RenderLog
	config_ *cgraph_go.RenderConfig
}

func NewRenderServer(log *cgraph_go.RenderLog, config *cgraph_go.RenderConfig) *RenderServer {
	ret := RenderServer{}
	ret.log_ = log
	ret.config_ = config
	return &ret
}

func (this *RenderServer) fail(ctx *fasthttp.RequestCtx, msg string, code int) {
	failedResponses.Add(1)
	ctx.Error(msg, code)
}

// HandleRender renders the request body and answers with the SVG.
func (this *RenderServer) HandleRender(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		this.fail(ctx, "POST a document", fasthttp.StatusMethodNotAllowed)
		return
	}
	body := ctx.PostBody()
	if len(body) > kMaxDocumentSize {
		this.fail(ctx, "document too large", fasthttp.StatusRequestEntityTooLarge)
		return
	}
	renderCalls.Add(1)

	config := *this.config_
	config.Verbosity = cgraph_go.QUIET
	status := cgraph_go.NewStatusPrinter(&config)
	result := cgraph_go.RenderDocument("http", string(body), &config, status, nil)
	renderCommands.Add(int64(len(result.Commands)))
	renderBodyBytes.Add(int64(len(result.SVG)))

	if this.log_ != nil {
		entry := &model.RenderEntry{
			DocumentHash: result.Digest,
			Source:       "http",
			Output:       ctx.RemoteAddr().String(),
			Commands:     len(result.Commands),
			Instances:    result.Instances,
			Scripts:      result.Scripts,
			OutputSize:   len(result.SVG),
			Duration:     result.Elapsed.Milliseconds(),
		}
		if err := this.log_.Record(entry); err != nil {
			cgraph_go.Warning("recording render: %v", err)
		}
	}
	ctx.Response.Header.Set("X-Cgraph-Digest", result.Digest)
	ctx.Success("image/svg+xml", []byte(result.SVG))
}

// HandleQuery lists render log entries, newest first, optionally only those
// of one document hash.
func (this *RenderServer) HandleQuery(ctx *fasthttp.RequestCtx) {
	queryCalls.Add(1)
	if this.log_ == nil {
		this.fail(ctx, "render log disabled", fasthttp.StatusNotFound)
		return
	}
	hash := string(ctx.QueryArgs().Peek("hash"))
	limit := 20
	if v := ctx.QueryArgs().Peek("limit"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n <= 0 {
			this.fail(ctx, "invalid limit", fasthttp.StatusBadRequest)
			return
		}
		limit = n
	}
	var entries []*model.RenderEntry
	var err error
	if hash != "" {
		entries, err = this.log_.FindByHash(hash, limit)
	} else {
		entries, err = this.log_.Recent(limit)
	}
	if err != nil {
		this.fail(ctx, err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*model.RenderEntry{}
	}
	buf, err := json.Marshal(entries)
	if err != nil {
		this.fail(ctx, err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.Success("application/json", buf)
}

func (this *RenderServer) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/render":
		this.HandleRender(ctx)
	case "/query":
		this.HandleQuery(ctx)
	case "/stats":
		// /stats?r=render shows only the counters containing "render".
		expvarhandler.ExpvarHandler(ctx)
	default:
		this.fail(ctx, "not found", fasthttp.StatusNotFound)
	}
}
