package cgraph_go

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

type LineType int8

const (
	FULL  LineType = 0
	ELIDE LineType = 1
)

// / Prints lines of text, possibly overprinting previously printed lines
// / if the terminal supports it.
type LinePrinter struct {
	/// Whether we can do fancy terminal control codes.
	smart_terminal_ bool

	/// Whether the caret is at the beginning of a blank line.
	have_blank_line_ bool

	/// Whether console is locked.
	console_locked_ bool

	/// Buffered current line while console is locked.
	line_buffer_ string

	/// Buffered line type while console is locked.
	line_type_ LineType

	/// Buffered console output while console is locked.
	output_buffer_ string
}

func NewLinePrinter() *LinePrinter {
	ret := LinePrinter{}
	ret.have_blank_line_ = true
	term := os.Getenv("TERM")
	// color.NoColor already folds in isatty(stdout) and NO_COLOR.
	ret.smart_terminal_ = !color.NoColor && term != "" && term != "dumb"
	return &ret
}

func (this *LinePrinter) is_smart_terminal() bool       { return this.smart_terminal_ }
func (this *LinePrinter) set_smart_terminal(smart bool) { this.smart_terminal_ = smart }

const kTerminalWidth = 120

// Shortens s to maxWidth by replacing its middle with "...".
func elideMiddle(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	if maxWidth < 5 {
		return s[:maxWidth]
	}
	half := (maxWidth - 3) / 2
	return s[:half] + "..." + s[len(s)-(maxWidth-3-half):]
}

// / Overprints the current line. If type is ELIDE, elides to_print to fit on
// / one line.
func (this *LinePrinter) Print(to_print string, lineType LineType) {
	if this.console_locked_ {
		this.line_buffer_ = to_print
		this.line_type_ = lineType
		return
	}

	if this.smart_terminal_ {
		fmt.Fprint(stdout, "\r")
	}

	if this.smart_terminal_ && lineType == ELIDE {
		fmt.Fprint(stdout, elideMiddle(to_print, kTerminalWidth))
		fmt.Fprint(stdout, "\033[K")
		this.have_blank_line_ = false
	} else {
		fmt.Fprintf(stdout, "%s\n", to_print)
		this.have_blank_line_ = true
	}
}

// / Prints a string on a new line, not overprinting previous output.
func (this *LinePrinter) PrintOnNewLine(to_print string) {
	if this.console_locked_ && this.line_buffer_ != "" {
		this.output_buffer_ += this.line_buffer_
		this.output_buffer_ += "\n"
		this.line_buffer_ = ""
	}
	if !this.have_blank_line_ {
		this.PrintOrBuffer("\n")
	}
	if to_print != "" {
		this.PrintOrBuffer(to_print)
	}
	this.have_blank_line_ = to_print == "" || to_print[len(to_print)-1] == '\n'
}

// / Lock or unlock the console.  Any output sent to the LinePrinter while the
// / console is locked will not be printed until it is unlocked.
func (this *LinePrinter) SetConsoleLocked(locked bool) {
	if locked == this.console_locked_ {
		return
	}

	if locked {
		this.PrintOnNewLine("")
	}

	this.console_locked_ = locked

	if !locked {
		this.PrintOnNewLine(this.output_buffer_)
		if this.line_buffer_ != "" {
			this.Print(this.line_buffer_, this.line_type_)
		}
		this.output_buffer_ = ""
		this.line_buffer_ = ""
	}
}

func (this *LinePrinter) PrintOrBuffer(data string) {
	if this.console_locked_ {
		this.output_buffer_ += data
	} else {
		fmt.Fprint(stdout, data)
	}
}
