package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	cgraph_go "cgraph-go/cgraph-go"

	"github.com/valyala/fasthttp"
)

var (
	dbName      = flag.String("dbName", "cgraph.db", "render log database; empty disables the log")
	addr        = flag.String("addr", "localhost:8080", "TCP address to listen to")
	expiry      = flag.Duration("expiry", 7*24*time.Hour, "how long render log entries are kept")
	cleanEvery  = flag.Duration("cleanEvery", 5*time.Minute, "interval of the render log cleanup")
	strokeWidth = flag.Float64("strokeWidth", 1, "default stroke width")
	fontSize    = flag.Float64("fontSize", 16, "default font size in pixels")
	compress    = flag.Bool("compress", false, "Enables transparent response compression if set to true")
)

func main() {
	// Parse command-line flags.
	flag.Parse()

	config := cgraph_go.NewRenderConfig()
	config.DefaultStrokeWidth = *strokeWidth
	config.DefaultFontSize = *fontSize

	var renderLog *cgraph_go.RenderLog
	if *dbName != "" {
		var err error
		renderLog, err = cgraph_go.OpenRenderLog(*dbName)
		if err != nil {
			log.Fatalf("opening render log: %v", err)
		}
		renderLog.SetExpiry(*expiry)
		defer renderLog.Close()
	}

	server := NewRenderServer(renderLog, config)
	handler := server.Handler
	if *compress {
		handler = fasthttp.CompressHandler(handler)
	}
	fsServer := &fasthttp.Server{
		Handler:            handler,
		ReadTimeout:        time.Minute,
		WriteTimeout:       time.Minute,
		MaxRequestBodySize: kMaxDocumentSize,
	}

	if renderLog != nil {
		scheduler, err := StartExpiredCleanSchedule(renderLog, *cleanEvery)
		if err != nil {
			log.Fatalf("starting cleanup schedule: %v", err)
		}
		defer scheduler.Shutdown()
	}

	go func() {
		log.Printf("Starting HTTP server on %q", *addr)
		if err := fsServer.ListenAndServe(*addr); err != nil {
			log.Fatalf("error in ListenAndServe: %v", err)
		}
	}()

	// Make a signal channel. Register SIGINT.
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)

	// Wait for the signal.
	<-sigch

	log.Println("Interrupted. Exiting.")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fsServer.ShutdownWithContext(ctx); err != nil {
		log.Println(err)
	}
}
