package cgraph_go

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"cgraph-go/model"

	"git.sr.ht/~sircmpwn/getopt"
)

var ErrUnknownTool = errors.New("unknown tool")

// Set by "-d nolog": renders are not written to the render log.
var g_nolog = false

// / Command-line options.
type Options struct {
	/// Document to render, "-" for stdin.
	InputFile string

	/// Where the SVG goes, "-" for stdout.
	OutputFile string

	/// Directory to change into before running.
	WorkingDir string

	/// Render log database.
	LogFile string

	/// Tool to run rather than rendering.
	Tool *Tool
}

// / The type of functions that are the entry points to tools (subcommands).
type ToolFunc func(*Options, []string) int

// / Subtools, accessible via "-t foo".
type Tool struct {
	/// Short name of the tool.
	Name string

	/// Description (shown in "-t list").
	Desc string

	/// Implementation of the tool.
	Func ToolFunc
}

// / RenderResult summarizes one rendered document.
type RenderResult struct {
	SVG       string
	Digest    string
	Commands  []*Command
	Instances int
	Scripts   int
	Elapsed   time.Duration
}

// / ProcessInput runs the whole pipeline over document with the built-in
// / commands, drawing into ctx.
func ProcessInput(document string, ctx GraphicsContext) {
	evaluator := NewExprEvaluator(nil, nil)
	NewDispatcher(DefaultRegistry(), evaluator, nil).ProcessInput(document, ctx)
}

// / RenderDocument renders document to SVG. name is only used for status
// / output.
func RenderDocument(name, document string, config *RenderConfig, status Status, explanations *Explanations) *RenderResult {
	digest := DocumentDigest(document)
	ctx := NewSVGContext(config, digest)
	dispatcher := NewDispatcher(DefaultRegistry(), NewExprEvaluator(nil, status), status)
	dispatcher.SetExplanations(explanations)

	stopwatch := NewStopwatch()
	status.DocumentStarted(name)
	dispatcher.ProcessInput(document, ctx)
	status.DocumentFinished()

	ret := RenderResult{}
	ret.SVG = ctx.String()
	ret.Digest = digest
	ret.Commands = dispatcher.Commands()
	ret.Instances = dispatcher.Instances()
	ret.Scripts = dispatcher.Scripts()
	ret.Elapsed = time.Duration(stopwatch.Elapsed() * float64(time.Second))
	return &ret
}

func readDocument(path string) (string, error) {
	if path == "-" {
		buf, err := io.ReadAll(os.Stdin)
		return string(buf), err
	}
	buf, err := os.ReadFile(path)
	return string(buf), err
}

func writeOutput(path, svg string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, svg+"\n")
		return err
	}
	return os.WriteFile(path, []byte(svg+"\n"), 0o644)
}

// / Parse argv for command-line options.
// / Returns an exit code, or -1 if cgraph should continue.
func ReadFlags(args *[]string, options *Options, config *RenderConfig) int {
	opts, optind, err := getopt.Getopts(*args, "C:f:o:L:d:t:s:u:vqVh")
	if err != nil {
		Error("%v", err)
		UsageMain(config)
		return 1
	}
	*args = (*args)[optind:]
	for _, optV := range opts {
		optarg := optV.Value
		switch optV.Option {
		case 'C':
			options.WorkingDir = optarg
		case 'f':
			options.InputFile = optarg
		case 'o':
			options.OutputFile = optarg
		case 'L':
			options.LogFile = optarg
		case 'd':
			if !DebugEnable(optarg) {
				return 1
			}
		case 't':
			tool, err := ChooseTool(optarg)
			if err != nil {
				Error("%v", err)
				return 1
			}
			if tool == nil {
				return 0
			}
			options.Tool = tool
		case 's':
			value, err := strconv.ParseFloat(optarg, 64)
			if err != nil || value <= 0 {
				Error("invalid -s parameter; want a positive stroke width")
				return 1
			}
			config.DefaultStrokeWidth = value
		case 'u':
			// "-u key=url", repeatable
			key, url, ok := strings.Cut(optarg, "=")
			if !ok || key == "" {
				Error("invalid -u parameter; want key=url")
				return 1
			}
			config.UrlMap[key] = url
		case 'v':
			config.Verbosity = VERBOSE
		case 'q':
			config.Verbosity = NO_STATUS_UPDATE
		case 'V':
			fmt.Fprintf(stdout, "%s\n", Version())
			return 0
		default: // case 'h':
			UsageMain(config)
			return 1
		}
	}
	if options.InputFile == "" && len(*args) > 0 && options.Tool == nil {
		options.InputFile = (*args)[0]
		*args = (*args)[1:]
	}
	if options.InputFile == "" {
		options.InputFile = "-"
	}
	return -1
}

// / Print usage information.
func UsageMain(config *RenderConfig) {
	fmt.Fprintf(stderr,
		"usage: cgraph [options] [document]\n"+
			"\n"+
			"renders a graphics script document to SVG; reads stdin if no document is given.\n"+
			"\n"+
			"options:\n"+
			"  -V         print cgraph version (\"%s\")\n"+
			"  -v         show every resolved command\n"+
			"  -q         don't show progress status\n"+
			"\n"+
			"  -C DIR     change to DIR before doing anything else\n"+
			"  -f FILE    specify input document [default=stdin]\n"+
			"  -o FILE    write the SVG to FILE [default=stdout]\n"+
			"  -L FILE    render log database [default=%s]\n"+
			"  -s WIDTH   default stroke width [default=%s]\n"+
			"  -u KEY=URL resolve image url @KEY to URL\n"+
			"\n"+
			"  -d MODE    enable debugging (use '-d list' to list modes)\n"+
			"  -t TOOL    run a subtool (use '-t list' to list subtools)\n",
		Version(), kDefaultLogFile, FormatNumber(config.DefaultStrokeWidth))
}

const kDefaultLogFile = ".cgraph_log.db"

// / Enable a debugging mode.  Returns false if cgraph should exit instead
// / of continuing.
func DebugEnable(name string) bool {
	switch name {
	case "list":
		fmt.Fprintf(stdout, "debugging modes:\n"+
			"  stats    print operation counts/timing info\n"+
			"  explain  explain dropped commands and arguments\n"+
			"  nolog    don't record the render in the render log\n"+
			"multiple modes can be enabled via -d FOO -d BAR\n")
		return false
	case "stats":
		GMetrics = NewMetrics()
		return true
	case "explain":
		g_explaining = true
		return true
	case "nolog":
		g_nolog = true
		return true
	}
	suggestion := SpellcheckString(name, "stats", "explain", "nolog")
	if suggestion != "" {
		Error("unknown debug setting '%s', did you mean '%s'?", name, suggestion)
	} else {
		Error("unknown debug setting '%s'", name)
	}
	return false
}

func tools() []Tool {
	return []Tool{
		{"tokens", "print the tokens of the document, scripts unexpanded", ToolTokens},
		{"commands", "print every resolved command of the document", ToolCommands},
		{"schema", "list the commands and their flags", ToolSchema},
		{"eval", "evaluate script expressions given as arguments", ToolEval},
		{"log", "show recent renders from the render log", ToolLog},
		{"cleanlog", "remove expired entries from the render log", ToolCleanLog},
	}
}

// / ChooseTool returns the tool called name. It returns nil without an
// / error for "list", after printing the tools.
func ChooseTool(name string) (*Tool, error) {
	kTools := tools()
	if name == "list" {
		fmt.Fprintf(stdout, "cgraph subtools:\n")
		for _, tool := range kTools {
			fmt.Fprintf(stdout, "%10s  %s\n", tool.Name, tool.Desc)
		}
		return nil, nil
	}
	words := make([]string, 0, len(kTools))
	for i := range kTools {
		if kTools[i].Name == name {
			return &kTools[i], nil
		}
		words = append(words, kTools[i].Name)
	}
	if suggestion := SpellcheckStringV(name, words); suggestion != "" {
		return nil, fmt.Errorf("%w '%s', did you mean '%s'?", ErrUnknownTool, name, suggestion)
	}
	return nil, fmt.Errorf("%w '%s'", ErrUnknownTool, name)
}

// toolDocument loads the -f document, or the first tool argument.
func toolDocument(options *Options, args []string) (string, bool) {
	path := options.InputFile
	if path == "-" && len(args) > 0 {
		path = args[0]
	}
	document, err := readDocument(path)
	if err != nil {
		Error("loading '%s': %v", path, err)
		return "", false
	}
	return document, true
}

func ToolTokens(options *Options, args []string) int {
	document, ok := toolDocument(options, args)
	if !ok {
		return 1
	}
	for _, token := range Parse(document).Tokens() {
		fmt.Fprintf(stdout, "%s\n", token)
	}
	return 0
}

func ToolCommands(options *Options, args []string) int {
	document, ok := toolDocument(options, args)
	if !ok {
		return 1
	}
	config := NewRenderConfig()
	config.Verbosity = QUIET
	result := RenderDocument(options.InputFile, document, config, NewStatusPrinter(config), nil)
	for _, cmd := range result.Commands {
		fmt.Fprintf(stdout, "%s\n", cmd)
	}
	return 0
}

func ToolSchema(options *Options, args []string) int {
	registry := DefaultRegistry()
	for _, name := range registry.Names() {
		def, _ := registry.Lookup(name)
		if def.Name != name {
			fmt.Fprintf(stdout, "%s: alias of %s\n", name, def.Name)
			continue
		}
		fmt.Fprintf(stdout, "%s: %s\n", name, def.Desc)
		params := append(Params(nil), def.Params...)
		sort.SliceStable(params, func(i, j int) bool { return params[i].Flag < params[j].Flag })
		for _, p := range params {
			fmt.Fprintf(stdout, "  %-4s %d  %s\n", p.Flag, p.NumValues, p.Name)
		}
	}
	return 0
}

func ToolEval(options *Options, args []string) int {
	evaluator := NewExprEvaluator(nil, nil)
	status := 0
	for _, source := range args {
		result, err := evaluator.Run(source)
		if err != nil {
			Error("{%s}: %v", source, err)
			status = 1
			continue
		}
		text, err := Stringify(result)
		if err != nil {
			text = fmt.Sprintf("%v", result)
		}
		fmt.Fprintf(stdout, "%s\n", text)
	}
	return status
}

func openLog(options *Options) (*RenderLog, bool) {
	log, err := OpenRenderLog(options.LogFile)
	if err != nil {
		Error("opening render log '%s': %v", options.LogFile, err)
		return nil, false
	}
	return log, true
}

func ToolLog(options *Options, args []string) int {
	limit := 20
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	log, ok := openLog(options)
	if !ok {
		return 1
	}
	defer log.Close()
	entries, err := log.Recent(limit)
	if err != nil {
		Error("reading render log: %v", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%s  %.16s  %-20s %4d cmds %4d inst %6d bytes %5d ms\n",
			time.Unix(e.CreatedAt, 0).Format(time.DateTime), e.DocumentHash, e.Source,
			e.Commands, e.Instances, e.OutputSize, e.Duration)
	}
	return 0
}

func ToolCleanLog(options *Options, args []string) int {
	log, ok := openLog(options)
	if !ok {
		return 1
	}
	defer log.Close()
	n, err := log.CleanExpired(2000)
	if err != nil {
		Error("cleaning render log: %v", err)
		return 1
	}
	Info("removed %d expired entries", n)
	return 0
}

func recordRender(options *Options, result *RenderResult) {
	log, ok := openLog(options)
	if !ok {
		return
	}
	defer log.Close()
	entry := &model.RenderEntry{
		DocumentHash: result.Digest,
		Source:       options.InputFile,
		Output:       options.OutputFile,
		Commands:     len(result.Commands),
		Instances:    result.Instances,
		Scripts:      result.Scripts,
		OutputSize:   len(result.SVG),
		Duration:     result.Elapsed.Milliseconds(),
	}
	if err := log.Record(entry); err != nil {
		Warning("recording render: %v", err)
	}
}
