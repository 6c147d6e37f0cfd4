package cgraph_go

import "errors"

var ErrExpansionDepth = errors.New("scripts nested too deeply")

// Scripts whose output keeps producing scripts are cut off at this nesting
// level; the offending script is replaced by nothing.
const kMaxExpansionDepth = 32

// / Expander runs the script expansion pass over the tokens of one command.
// / Scripts are evaluated and their output tokenized and spliced into the
// / list; group scripts are folded into the group text around them.
type Expander struct {
	evaluator_ Evaluator
	status_    Status
	scripts_   int
}

func NewExpander(evaluator Evaluator, status Status) *Expander {
	ret := Expander{}
	ret.evaluator_ = evaluator
	ret.status_ = status
	return &ret
}

// / Number of scripts evaluated so far.
func (this *Expander) Scripts() int { return this.scripts_ }

func (this *Expander) execute(source string) string {
	this.scripts_++
	return this.evaluator_.Execute(source)
}

// / Preprocess expands every script between process and the next command
// / boundary. process is re-pointed when the node it references is replaced.
func (this *Expander) Preprocess(process *Iterator) {
	defer METRIC_RECORD("expand")()
	pre := process.Clone()
	for !pre.AtEnd() && pre.Kind() != COMMAND_BOUNDARY {
		switch pre.Kind() {
		case GROUP:
			this.collapseGroup(pre)
			pre.Advance()
		case SCRIPT:
			this.expandScript(pre, process)
		case GROUP_SCRIPT:
			// A group script whose group was consumed already; keep the
			// text as a literal group.
			this.collapseOrphan(pre)
		default:
			pre.Advance()
		}
	}
}

// collapseGroup folds the GROUP_SCRIPT/GROUP alternation following g into g.
func (this *Expander) collapseGroup(g *Iterator) {
	next := g.Next()
	for next.Kind() == GROUP_SCRIPT {
		g.AppendText(this.scriptText(next))
		next.Remove()
		if next.Kind() == GROUP {
			g.AppendText(next.Text())
			next.Remove()
		}
	}
}

func (this *Expander) collapseOrphan(it *Iterator) {
	text := this.scriptText(it)
	sub := NewTokenList()
	sub.Append(GROUP, text)
	it.ReplaceWithList(sub)
}

func (this *Expander) scriptText(it *Iterator) string {
	if it.depth() >= kMaxExpansionDepth {
		this.tooDeep(it)
		return ""
	}
	return this.execute(it.Text())
}

func (this *Expander) tooDeep(it *Iterator) {
	if this.status_ != nil {
		this.status_.Warning("script {%s}: %v", it.Text(), ErrExpansionDepth)
	}
}

// expandScript evaluates the script at pre and splices the tokenized result
// in its place. pre ends up on the first spliced token so that scripts in the
// output are expanded as well.
func (this *Expander) expandScript(pre, process *Iterator) {
	var sub *TokenList
	if pre.depth() >= kMaxExpansionDepth {
		this.tooDeep(pre)
		sub = NewTokenList()
	} else {
		sub = Parse(this.execute(pre.Text()))
		// The boundary the tokenizer adds at the end of its input is not
		// part of the script output.
		if back, ok := sub.Back(); ok && back.Kind == COMMAND_BOUNDARY && back.Text == "" {
			sub.TrimEnd(COMMAND_BOUNDARY)
		}
	}
	// An empty text node keeps the boundaries around an empty result apart,
	// so the expansion never runs into the next command.
	if sub.IsEmpty() {
		sub.Append(TEXT, "")
	}
	repoint := pre.Equals(process)
	pre.ReplaceWithList(sub)
	if repoint {
		*process = *pre.Clone()
	}
}
