package cgraph_go

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStatus is a Status that keeps everything it is told.
type recordingStatus struct {
	warnings  []string
	errors    []string
	resolved  []string
	instances int
	documents int
	finished  int
}

func (this *recordingStatus) DocumentStarted(name string) { this.documents++ }
func (this *recordingStatus) DocumentFinished()           { this.finished++ }

func (this *recordingStatus) CommandResolved(cmd *Command, instantiated bool) {
	this.resolved = append(this.resolved, cmd.Name)
	if instantiated {
		this.instances++
	}
}

func (this *recordingStatus) Info(msg string, args ...interface{}) {}

func (this *recordingStatus) Warning(msg string, args ...interface{}) {
	this.warnings = append(this.warnings, fmt.Sprintf(msg, args...))
}

func (this *recordingStatus) Error(msg string, args ...interface{}) {
	this.errors = append(this.errors, fmt.Sprintf(msg, args...))
}

func newTestPrinter(t *testing.T, verbosity Verbosity) *StatusPrinter {
	t.Setenv("CGRAPH_STATUS", "")
	config := NewRenderConfig()
	config.Verbosity = verbosity
	printer := NewStatusPrinter(config)
	printer.printer_.set_smart_terminal(false)
	return printer
}

func TestStatusPrinterFormat(t *testing.T) {
	out, _ := captureOutput(t)
	printer := newTestPrinter(t, NORMAL)
	printer.DocumentStarted("doc")
	printer.CommandResolved(NewCommand("point"), true)
	printer.CommandResolved(NewCommand("pont"), false)

	assert.Equal(t, "1 2 1 1 % [1/2] ", printer.FormatProgressStatus("%d %c %i %x %% [%i/%c] "))
	assert.Equal(t, "trailing %", printer.FormatProgressStatus("trailing %"))
	assert.Empty(t, out.String())
}

func TestStatusPrinterVerbose(t *testing.T) {
	out, _ := captureOutput(t)
	printer := newTestPrinter(t, VERBOSE)
	cmd := NewCommand("point")
	cmd.Args["p"] = []string{"1", "1"}

	printer.DocumentStarted("doc")
	printer.CommandResolved(cmd, true)
	assert.Equal(t, "rendering doc\n[1/1] point p 1 1\n", out.String())
}

func TestStatusPrinterExplains(t *testing.T) {
	_, errOut := captureOutput(t)
	printer := newTestPrinter(t, NORMAL)
	explanations := NewExplanations()
	explanations.Record("b", "second")
	explanations.Record("a", "first %d", 1)
	printer.SetExplanations(explanations)

	printer.DocumentFinished()
	assert.Equal(t, "cgraph explain: a: first 1\ncgraph explain: b: second\n", errOut.String())
}

func TestStatusPrinterQuiet(t *testing.T) {
	out, errOut := captureOutput(t)
	printer := newTestPrinter(t, QUIET)
	printer.Info("hidden")
	printer.CommandResolved(NewCommand("point"), true)
	assert.Empty(t, out.String())

	printer.Warning("shown %s", "always")
	assert.Contains(t, errOut.String(), "shown always")
}

func TestLinePrinter(t *testing.T) {
	out, _ := captureOutput(t)
	printer := NewLinePrinter()
	printer.set_smart_terminal(false)

	printer.Print("plain", ELIDE)
	printer.SetConsoleLocked(true)
	printer.Print("held", FULL)
	printer.PrintOnNewLine("buffered\n")
	assert.Equal(t, "plain\n", out.String())

	printer.SetConsoleLocked(false)
	assert.Equal(t, "plain\nheld\nbuffered\n", out.String())

	out.Reset()
	printer.set_smart_terminal(true)
	printer.Print("status", ELIDE)
	assert.Equal(t, "\rstatus\033[K", out.String())
}

func TestElideMiddle(t *testing.T) {
	assert.Equal(t, "short", elideMiddle("short", 10))
	assert.Equal(t, "ab...ij", elideMiddle("abcdefghij", 7))
	assert.Equal(t, "abc", elideMiddle("abcdef", 3))
}

func TestMetrics(t *testing.T) {
	out, _ := captureOutput(t)
	old := GMetrics
	t.Cleanup(func() { GMetrics = old })

	GMetrics = nil
	METRIC_RECORD("ignored")()

	GMetrics = NewMetrics()
	METRIC_RECORD("parse")()
	METRIC_RECORD("parse")()
	count, _ := GMetrics.Lookup("parse")
	assert.Equal(t, 2, count)
	count, _ = GMetrics.Lookup("ignored")
	assert.Zero(t, count)

	GMetrics.Report()
	assert.Contains(t, out.String(), "metric")
	assert.Contains(t, out.String(), "parse")
}

func TestExplanationsDeduplicate(t *testing.T) {
	explanations := NewExplanations()
	explanations.Record("cmd", "dropped %s", "x")
	explanations.Record("cmd", "dropped %s", "x")
	explanations.Record("cmd", "dropped %s", "y")
	assert.Equal(t, 2, explanations.Size())

	var out []string
	explanations.LookupAndAppend("cmd", &out)
	require.Len(t, out, 2)
	assert.Equal(t, "dropped x", out[0])
	explanations.LookupAndAppend("missing", &out)
	assert.Len(t, out, 2)
}

func TestSpellcheck(t *testing.T) {
	assert.Equal(t, 3, EditDistance("kitten", "sitting", true, 0))
	assert.Equal(t, "point", SpellcheckString("pont", "point", "line"))
	assert.Equal(t, "", SpellcheckString("zzzzzzzz", "point", "line"))
}
