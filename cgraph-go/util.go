package cgraph_go

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	errorPrefix   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningPrefix = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoPrefix    = color.New(color.FgCyan).SprintFunc()
)

// Destinations of the package level log helpers, swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func Error(msg string, ap ...interface{}) {
	fmt.Fprint(stderr, errorPrefix("cgraph: error: "))
	fmt.Fprintf(stderr, msg, ap...)
	fmt.Fprint(stderr, "\n")
}

func Info(msg string, ap ...interface{}) {
	fmt.Fprint(stdout, infoPrefix("cgraph: "))
	fmt.Fprintf(stdout, msg, ap...)
	fmt.Fprint(stdout, "\n")
}

func Warning(msg string, ap ...interface{}) {
	fmt.Fprint(stderr, warningPrefix("cgraph: warning: "))
	fmt.Fprintf(stderr, msg, ap...)
	fmt.Fprint(stderr, "\n")
}

func Fatal(msg string, ap ...interface{}) {
	fmt.Fprint(stderr, errorPrefix("cgraph: fatal: "))
	fmt.Fprintf(stderr, msg, ap...)
	fmt.Fprint(stderr, "\n")
	os.Exit(1)
}

// / Given a misspelled string and a list of correct spellings, returns
// / the closest match or "" if there is no close enough match.
func SpellcheckStringV(text string, words []string) string {
	const kAllowReplacements = true
	const kMaxValidEditDistance = 3

	min_distance := kMaxValidEditDistance + 1
	result := ""
	for _, word := range words {
		distance := EditDistance(word, text, kAllowReplacements, kMaxValidEditDistance)
		if distance < min_distance {
			min_distance = distance
			result = word
		}
	}
	return result
}

func SpellcheckString(text string, words ...string) string {
	return SpellcheckStringV(text, words)
}
