package cgraph_go

import (
	"fmt"
	"sort"

	"github.com/ahrtr/gocontainer/set"
)

var g_explaining = false

// / Explanations collects, per item, why the dispatcher did what it did
// / (used to implement `-d explain`). Repeated explanations are recorded once.
type Explanations struct {
	map_  map[string][]string
	seen_ set.Interface
}

func NewExplanations() *Explanations {
	ret := Explanations{}
	ret.map_ = make(map[string][]string)
	ret.seen_ = set.New()
	return &ret
}

func (this *Explanations) Record(item string, format string, args ...interface{}) {
	this.RecordArgs(item, format, args)
}

func (this *Explanations) RecordArgs(item string, format string, args []interface{}) {
	msg := fmt.Sprintf(format, args...)
	key := item + "\x00" + msg
	if this.seen_.Contains(key) {
		return
	}
	this.seen_.Add(key)
	this.map_[item] = append(this.map_[item], msg)
}

// / Lookup the explanations recorded for |item|, and append them
// / to |*out|, if any.
func (this *Explanations) LookupAndAppend(item string, out *[]string) {
	*out = append(*out, this.map_[item]...)
}

func (this *Explanations) Items() []string {
	items := make([]string, 0, len(this.map_))
	for item := range this.map_ {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

func (this *Explanations) Size() int { return this.seen_.Size() }
