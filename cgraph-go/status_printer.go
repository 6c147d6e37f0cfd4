package cgraph_go

import (
	"fmt"
	"os"
	"strings"
)

// / Implementation of the Status interface that prints the status as
// / human-readable strings to stdout
type StatusPrinter struct {
	config_ *RenderConfig

	documents_ int
	commands_  int
	instances_ int
	dropped_   int

	stopwatch_ *Stopwatch

	/// Prints progress output.
	printer_ *LinePrinter

	/// An optional Explanations pointer, used to implement `-d explain`.
	explanations_ *Explanations

	/// The custom progress status format to use.
	progress_status_format_ string
}

func NewStatusPrinter(config *RenderConfig) *StatusPrinter {
	ret := StatusPrinter{}
	ret.config_ = config
	ret.stopwatch_ = NewStopwatch()
	ret.printer_ = NewLinePrinter()
	// Don't do anything fancy in verbose mode.
	if ret.config_.Verbosity != NORMAL {
		ret.printer_.set_smart_terminal(false)
	}

	ret.progress_status_format_ = os.Getenv("CGRAPH_STATUS")
	if ret.progress_status_format_ == "" {
		ret.progress_status_format_ = "[%i/%c] "
	}
	return &ret
}

func (this *StatusPrinter) SetExplanations(explanations *Explanations) {
	this.explanations_ = explanations
}

func (this *StatusPrinter) DocumentStarted(name string) {
	this.documents_++
	this.stopwatch_.Restart()
	if this.config_.Verbosity == VERBOSE {
		this.printer_.PrintOnNewLine(fmt.Sprintf("rendering %s\n", name))
	}
}

func (this *StatusPrinter) CommandResolved(cmd *Command, instantiated bool) {
	this.commands_++
	if instantiated {
		this.instances_++
	} else {
		this.dropped_++
	}
	if this.config_.Verbosity == QUIET || this.config_.Verbosity == NO_STATUS_UPDATE {
		return
	}
	if this.config_.Verbosity == VERBOSE {
		this.printer_.PrintOnNewLine(this.FormatProgressStatus(this.progress_status_format_) + cmd.String() + "\n")
	} else if this.printer_.is_smart_terminal() {
		this.printer_.Print(this.FormatProgressStatus(this.progress_status_format_)+cmd.Name, ELIDE)
	}
}

func (this *StatusPrinter) DocumentFinished() {
	this.printer_.SetConsoleLocked(false)
	if this.printer_.is_smart_terminal() {
		this.printer_.PrintOnNewLine("")
	}
	if this.explanations_ != nil {
		for _, item := range this.explanations_.Items() {
			var out []string
			this.explanations_.LookupAndAppend(item, &out)
			for _, line := range out {
				fmt.Fprintf(stderr, "cgraph explain: %s: %s\n", item, line)
			}
		}
	}
}

func (this *StatusPrinter) Info(msg string, args ...interface{}) {
	if this.config_.Verbosity == QUIET {
		return
	}
	Info(msg, args...)
}

func (this *StatusPrinter) Warning(msg string, args ...interface{}) {
	Warning(msg, args...)
}

func (this *StatusPrinter) Error(msg string, args ...interface{}) {
	Error(msg, args...)
}

// / Format the progress status string by replacing the placeholders.
// / See the user manual for more information about the available
// / placeholders.
func (this *StatusPrinter) FormatProgressStatus(progress_status_format string) string {
	var out strings.Builder
	for i := 0; i < len(progress_status_format); i++ {
		c := progress_status_format[i]
		if c != '%' || i+1 == len(progress_status_format) {
			out.WriteByte(c)
			continue
		}
		i++
		switch progress_status_format[i] {
		case '%':
			out.WriteByte('%')
		case 'd':
			// Documents rendered.
			fmt.Fprintf(&out, "%d", this.documents_)
		case 'c':
			// Commands resolved.
			fmt.Fprintf(&out, "%d", this.commands_)
		case 'i':
			// Instances created.
			fmt.Fprintf(&out, "%d", this.instances_)
		case 'x':
			// Commands dropped.
			fmt.Fprintf(&out, "%d", this.dropped_)
		case 'e':
			fmt.Fprintf(&out, "%.3f", this.stopwatch_.Elapsed())
		default:
			Fatal("unknown placeholder '%%%c' in $CGRAPH_STATUS", progress_status_format[i])
		}
	}
	return out.String()
}
