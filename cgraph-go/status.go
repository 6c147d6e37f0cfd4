package cgraph_go

type Verbosity int8

const (
	QUIET            Verbosity = 0 // No output -- used when testing.
	NO_STATUS_UPDATE Verbosity = 1 // just regular output but suppress status update
	NORMAL           Verbosity = 2 // regular output and status update
	VERBOSE          Verbosity = 3
)

// / Options (e.g. verbosity, drawing defaults) passed to a render.
type RenderConfig struct {
	Verbosity Verbosity

	/// Stroke width applied by init when a document gives none.
	DefaultStrokeWidth float64

	/// Font size applied by init when a document gives none.
	DefaultFontSize float64

	/// Resolves "@key" references of image hrefs.
	UrlMap map[string]string
}

func NewRenderConfig() *RenderConfig {
	ret := RenderConfig{}
	ret.Verbosity = NORMAL
	ret.DefaultStrokeWidth = 1
	ret.DefaultFontSize = 16
	ret.UrlMap = map[string]string{}
	return &ret
}

// / Abstract interface to object that tracks the status of a render,
// / receiving lifecycle callbacks and diagnostics from the pipeline.
type Status interface {
	DocumentStarted(name string)
	/// A complete command was resolved; instantiated reports whether it
	/// produced an instance.
	CommandResolved(cmd *Command, instantiated bool)
	DocumentFinished()

	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

func StatusFactory(config *RenderConfig) Status {
	return NewStatusPrinter(config)
}
