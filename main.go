package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cgraph_go "cgraph-go/cgraph-go"
)

func TerminateHandler() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	s := <-quit
	fmt.Fprintln(os.Stderr, "terminate handler called:", s)
	os.Exit(130)
}

func main() {
	go TerminateHandler()
	os.Exit(cgraph_go.RealMain(os.Args))
}
