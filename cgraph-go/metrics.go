package cgraph_go

import (
	"fmt"
	"time"
)

// / The primary interface to metrics. Use
// /
// /	defer METRIC_RECORD("foobar")()
// /
// / at the top of a function to get timing stats recorded for each call of
// / the function. Without -d stats it costs a nil check.
func METRIC_RECORD(name string) func() {
	if GMetrics == nil {
		return func() {}
	}
	metric := GMetrics.NewMetric(name)
	start := time.Now()
	return func() {
		metric.count++
		metric.sum += time.Since(start)
	}
}

var GMetrics *Metrics = nil

type Metric struct {
	name string
	/// Number of times we've hit the code path.
	count int
	/// Total time we've spent on the code path.
	sum time.Duration
}

type Metrics struct {
	metrics_ []*Metric
	byName_  map[string]*Metric
}

func NewMetrics() *Metrics {
	ret := Metrics{}
	ret.byName_ = map[string]*Metric{}
	return &ret
}

// NewMetric returns the metric registered under name, creating it on first
// use.
func (this *Metrics) NewMetric(name string) *Metric {
	if metric, ok := this.byName_[name]; ok {
		return metric
	}
	metric := &Metric{name: name}
	this.metrics_ = append(this.metrics_, metric)
	this.byName_[name] = metric
	return metric
}

func (this *Metrics) Lookup(name string) (count int, total time.Duration) {
	if metric, ok := this.byName_[name]; ok {
		return metric.count, metric.sum
	}
	return 0, 0
}

// / Print a summary report to stdout.
func (this *Metrics) Report() {
	width := 0
	for _, i := range this.metrics_ {
		width = max(len(i.name), width)
	}

	fmt.Fprintf(stdout, "%-*s\t%-6s\t%-9s\t%s\n", width,
		"metric", "count", "avg (us)", "total (ms)")
	for _, metric := range this.metrics_ {
		micros := metric.sum.Microseconds()
		total := float64(micros) / float64(1000)
		avg := 0.0
		if metric.count > 0 {
			avg = float64(micros) / float64(metric.count)
		}
		fmt.Fprintf(stdout, "%-*s\t%-6d\t%-8.1f\t%.1f\n", width, metric.name, metric.count, avg, total)
	}
}

// / A simple stopwatch which returns the time
// / in seconds since Restart() was called.
type Stopwatch struct {
	started_ time.Time
}

func NewStopwatch() *Stopwatch {
	ret := Stopwatch{}
	ret.started_ = time.Now()
	return &ret
}

// / Seconds since Restart() call.
func (this *Stopwatch) Elapsed() float64 {
	return time.Since(this.started_).Seconds()
}

func (this *Stopwatch) Restart() {
	this.started_ = time.Now()
}
