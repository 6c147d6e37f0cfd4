package cgraph_go

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edwingeng/deque"
)

var ErrCreateInstance = errors.New("command failed")

const (
	kInitCommand         = "init"
	kContinuationCommand = "."
)

// / Dispatcher walks a token list one command at a time, expanding scripts,
// / resolving continuations and creating an instance per recognized command.
// / Renders are queued and run in creation order once the whole document
// / has been walked.
type Dispatcher struct {
	registry_     *Registry
	evaluator_    Evaluator
	status_       Status
	expander_     *Expander
	explanations_ *Explanations

	/// Last resolved command; held back until it is known that no
	/// continuation follows.
	pending_     *Command
	pending_def_ *CommandDef

	initialized_ bool
	instances_   int

	renders_ deque.Deque // <*Instance>

	/// Every resolved command in document order, continuations merged.
	commands_ []*Command
}

func NewDispatcher(registry *Registry, evaluator Evaluator, status Status) *Dispatcher {
	ret := Dispatcher{}
	ret.registry_ = registry
	ret.evaluator_ = evaluator
	if status == nil {
		config := NewRenderConfig()
		config.Verbosity = QUIET
		status = NewStatusPrinter(config)
	}
	ret.status_ = status
	ret.expander_ = NewExpander(evaluator, ret.status_)
	ret.renders_ = deque.NewDeque()
	return &ret
}

func (this *Dispatcher) SetExplanations(explanations *Explanations) {
	this.explanations_ = explanations
}

func (this *Dispatcher) Commands() []*Command { return this.commands_ }
func (this *Dispatcher) Instances() int       { return this.instances_ }
func (this *Dispatcher) Scripts() int         { return this.expander_.Scripts() }

func (this *Dispatcher) explain(item string, format string, args ...interface{}) {
	if this.explanations_ != nil {
		this.explanations_.RecordArgs(item, format, args)
	}
}

// / ProcessInput tokenizes input and dispatches it into ctx.
func (this *Dispatcher) ProcessInput(input string, ctx GraphicsContext) {
	this.ProcessList(Parse(input), ctx)
}

// / ProcessList dispatches every command of list into ctx, then renders.
func (this *Dispatcher) ProcessList(list *TokenList, ctx GraphicsContext) {
	defer METRIC_RECORD("dispatch")()
	it := list.Begin()
	for !it.AtEnd() {
		name, decided := peekCommandName(it)
		if !decided || (name != "" && name != kContinuationCommand) {
			this.flush(ctx)
		}
		this.expander_.Preprocess(it)
		name, raw := readCommand(it)
		if name == "" {
			continue
		}
		this.resolve(name, raw)
	}
	this.flush(ctx)
	if !this.initialized_ {
		this.createInit(ctx)
	}
	this.render()
}

// peekCommandName looks at the unexpanded tokens of the command at it. decided
// is false when a script precedes the name, so the name is not known yet.
func peekCommandName(it *Iterator) (string, bool) {
	for p := it.Clone(); !p.AtEnd(); p.Advance() {
		switch p.Kind() {
		case TEXT:
			if fields := strings.Fields(p.Text()); len(fields) > 0 {
				return fields[0], true
			}
		case SCRIPT, GROUP_SCRIPT:
			return "", false
		case COMMAND_BOUNDARY:
			return "", true
		}
	}
	return "", true
}

// readCommand collects the name and raw arguments of the command at it and
// leaves it past the closing boundary.
func readCommand(it *Iterator) (name string, raw []string) {
	for !it.AtEnd() {
		tok := it.Token()
		it.Advance()
		switch tok.Kind {
		case TEXT:
			for _, chunk := range strings.Fields(tok.Text) {
				if name == "" {
					name = chunk
				} else {
					raw = append(raw, chunk)
				}
			}
		case GROUP, STRING:
			// Literal arguments only count once a name has been seen.
			if name != "" {
				raw = append(raw, tok.Text)
			}
		case COMMAND_BOUNDARY:
			return name, raw
		}
	}
	return name, raw
}

func (this *Dispatcher) resolve(name string, raw []string) {
	if name == kContinuationCommand {
		if this.pending_ == nil {
			this.explain(name, "continuation without a preceding command dropped")
			return
		}
		args, dropped := ParseArgs(this.pending_def_.Params, raw)
		this.explainDropped(this.pending_.Name, dropped)
		MergeArgs(this.pending_.Args, args, "id")
		this.pending_.Raw = append(this.pending_.Raw, raw...)
		return
	}

	cmd := NewCommand(name)
	cmd.Raw = raw
	def, ok := this.registry_.Lookup(name)
	if !ok {
		if suggestion := SpellcheckStringV(name, this.registry_.Names()); suggestion != "" {
			this.explain(name, "unknown command '%s', did you mean '%s'?", name, suggestion)
		} else {
			this.explain(name, "unknown command '%s'", name)
		}
		this.commands_ = append(this.commands_, cmd)
		this.status_.CommandResolved(cmd, false)
		return
	}
	var dropped []string
	cmd.Args, dropped = ParseArgs(def.Params, raw)
	this.explainDropped(name, dropped)
	this.pending_ = cmd
	this.pending_def_ = def
}

func (this *Dispatcher) explainDropped(name string, dropped []string) {
	if len(dropped) > 0 {
		this.explain(name, "ignored arguments: %s", strings.Join(dropped, " "))
	}
}

// flush instantiates the pending command.
func (this *Dispatcher) flush(ctx GraphicsContext) {
	cmd, def := this.pending_, this.pending_def_
	if cmd == nil {
		return
	}
	this.pending_ = nil
	this.pending_def_ = nil
	this.commands_ = append(this.commands_, cmd)

	if cmd.Name == kInitCommand {
		if this.initialized_ {
			this.explain(cmd.Name, "init after the first command ignored")
			this.status_.CommandResolved(cmd, false)
			return
		}
		this.initialized_ = true
	} else if !this.initialized_ {
		this.createInit(ctx)
	}
	this.instantiate(cmd, def, ctx)
}

// createInit creates the implicit init instance with no arguments.
func (this *Dispatcher) createInit(ctx GraphicsContext) {
	this.initialized_ = true
	def, ok := this.registry_.Lookup(kInitCommand)
	if !ok {
		return
	}
	this.explain(kInitCommand, "init synthesized with default arguments")
	this.instantiate(NewCommand(kInitCommand), def, ctx)
}

func (this *Dispatcher) instantiate(cmd *Command, def *CommandDef, ctx GraphicsContext) {
	inst, err := this.createInstance(cmd, def, ctx)
	if err != nil {
		this.status_.Warning("%s: %v", cmd.Name, err)
		this.explain(cmd.Name, "%v", err)
		this.status_.CommandResolved(cmd, false)
		return
	}
	if inst == nil {
		this.explain(cmd.Name, "'%s' has no visible effect", cmd)
		this.status_.CommandResolved(cmd, false)
		return
	}
	if inst.Name != "" && inst.Bindings != nil {
		this.evaluator_.AddBinding(inst.Name, inst.Bindings)
	}
	if inst.Render != nil {
		this.renders_.PushBack(inst)
	}
	this.instances_++
	this.status_.CommandResolved(cmd, true)
}

func (this *Dispatcher) createInstance(cmd *Command, def *CommandDef, ctx GraphicsContext) (inst *Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			inst = nil
			err = fmt.Errorf("%w: %v", ErrCreateInstance, r)
		}
	}()
	return def.CreateInstance(ctx, cmd.Args)
}

func (this *Dispatcher) render() {
	defer METRIC_RECORD("render")()
	for !this.renders_.Empty() {
		inst := this.renders_.PopFront().(*Instance)
		inst.Render()
	}
}
