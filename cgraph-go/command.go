package cgraph_go

import (
	"slices"
	"sort"
	"strings"
)

// Param describes one flag a command accepts.
type Param struct {
	Flag      string
	NumValues int
	/// Full name; for attributes this is the SVG attribute name.
	Name        string
	IsAttribute bool
}

// Params is an ordered schema. Attribute extraction follows this order so
// the output is deterministic.
type Params []Param

func (this Params) Lookup(flag string) (Param, bool) {
	for _, p := range this {
		if p.Flag == flag {
			return p, true
		}
	}
	return Param{}, false
}

// Args maps a flag to exactly the number of values its schema declares.
type Args map[string][]string

func (this Args) Has(flag string) bool {
	_, ok := this[flag]
	return ok
}

// First returns the first value of flag, or "".
func (this Args) First(flag string) string {
	if v, ok := this[flag]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

func (this Args) Clone() Args {
	ret := make(Args, len(this))
	for k, v := range this {
		ret[k] = append([]string(nil), v...)
	}
	return ret
}

// Command is one resolved line of a document.
type Command struct {
	Name string
	Args Args
	/// Arguments exactly as collected, before schema parsing.
	Raw []string
}

func NewCommand(name string) *Command {
	ret := Command{}
	ret.Name = name
	ret.Args = Args{}
	return &ret
}

func (this *Command) Clone() *Command {
	ret := Command{Name: this.Name, Args: this.Args.Clone()}
	ret.Raw = append([]string(nil), this.Raw...)
	return &ret
}

// String renders the command with its parsed arguments, flags sorted.
func (this *Command) String() string {
	flags := make([]string, 0, len(this.Args))
	for flag := range this.Args {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	var sb strings.Builder
	sb.WriteString(this.Name)
	for _, flag := range flags {
		sb.WriteByte(' ')
		sb.WriteString(flag)
		for _, v := range this.Args[flag] {
			if v == "" || strings.ContainsAny(v, " \t\n") {
				sb.WriteString(" (" + v + ")")
			} else {
				sb.WriteString(" " + v)
			}
		}
	}
	return sb.String()
}

// Instance is the product of a command: an optional named set of bindings
// for scripts and a deferred render step.
type Instance struct {
	Name     string
	Bindings Bindings
	Render   func()
}

type CreateInstanceFunc func(ctx GraphicsContext, args Args) (*Instance, error)

// / CommandDef is the registry entry of a command.
type CommandDef struct {
	Name   string
	Desc   string
	Params Params
	/// Returns a nil instance, or an error, when the arguments cannot be
	/// drawn; the command then has no visible effect.
	CreateInstance CreateInstanceFunc
}

type Registry struct {
	defs_ map[string]*CommandDef
}

func NewRegistry() *Registry {
	ret := Registry{}
	ret.defs_ = map[string]*CommandDef{}
	return &ret
}

func (this *Registry) Register(def *CommandDef) {
	this.defs_[def.Name] = def
}

// Alias makes name resolve to the definition registered as target.
func (this *Registry) Alias(name, target string) {
	if def, ok := this.defs_[target]; ok {
		this.defs_[name] = def
	}
}

func (this *Registry) Lookup(name string) (*CommandDef, bool) {
	def, ok := this.defs_[name]
	return def, ok
}

func (this *Registry) Names() []string {
	names := make([]string, 0, len(this.defs_))
	for name := range this.defs_ {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseArgs matches raw arguments against a schema. A known flag consumes
// the next NumValues items and is kept only if that many were available.
// Unknown items are skipped. The dropped items are returned for diagnostics.
func ParseArgs(params Params, raw []string) (Args, []string) {
	args := Args{}
	var dropped []string
	i := 0
	for i < len(raw) {
		param, ok := params.Lookup(raw[i])
		if !ok {
			dropped = append(dropped, raw[i])
			i++
			continue
		}
		end := min(i+1+param.NumValues, len(raw))
		values := raw[i+1 : end]
		if len(values) == param.NumValues {
			args[param.Flag] = append([]string(nil), values...)
		} else {
			dropped = append(dropped, raw[i])
		}
		i = end
	}
	return args, dropped
}

// MergeArgs copies every flag of source onto target. Flags listed in keep
// are not replaced once target has them.
func MergeArgs(target, source Args, keep ...string) {
	for flag, values := range source {
		if target.Has(flag) && slices.Contains(keep, flag) {
			continue
		}
		target[flag] = append([]string(nil), values...)
	}
}
