package cgraph_go

import (
	"os"
)

// / RealMain runs the cgraph command line with args (args[0] is the program
// / name) and returns the process exit code.
func RealMain(args []string) int {
	config := NewRenderConfig()
	options := Options{}
	options.LogFile = kDefaultLogFile

	exit_code := ReadFlags(&args, &options, config)
	if exit_code >= 0 {
		return exit_code
	}

	status := StatusFactory(config)
	var explanations *Explanations
	if g_explaining {
		explanations = NewExplanations()
		if printer, ok := status.(*StatusPrinter); ok {
			printer.SetExplanations(explanations)
		}
	}

	if options.WorkingDir != "" {
		// Don't print this if a tool is being used, so that tool output
		// can be piped into a file without this string showing up.
		if options.Tool == nil && config.Verbosity != NO_STATUS_UPDATE {
			status.Info("Entering directory `%s'", options.WorkingDir)
		}
		if err := os.Chdir(options.WorkingDir); err != nil {
			status.Error("chdir to '%s' - %v", options.WorkingDir, err)
			return 1
		}
	}

	if options.Tool != nil {
		return options.Tool.Func(&options, args)
	}

	document, err := readDocument(options.InputFile)
	if err != nil {
		status.Error("loading '%s': %v", options.InputFile, err)
		return 1
	}

	result := RenderDocument(options.InputFile, document, config, status, explanations)
	if err := writeOutput(options.OutputFile, result.SVG); err != nil {
		status.Error("writing '%s': %v", options.OutputFile, err)
		return 1
	}
	if !g_nolog {
		recordRender(&options, result)
	}
	if GMetrics != nil {
		GMetrics.Report()
	}
	return 0
}
