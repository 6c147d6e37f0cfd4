package cgraph_go

import (
	"fmt"
	"strings"
)

// TokenKind is the classification of a token produced by the tokenizer.
type TokenKind int8

const (
	TEXT TokenKind = iota
	COMMAND_BOUNDARY
	GROUP
	STRING
	SCRIPT
	GROUP_SCRIPT

	// Transient modes. The list rewrites them on append so they never
	// survive into a TokenList.
	LINE_CONTINUATION
	SCRIPT_SHORTHAND
	GROUP_SCRIPT_SHORTHAND

	// Scanner-only states.
	UNKNOWN
	INPUT_END
)

func (k TokenKind) String() string {
	switch k {
	case TEXT:
		return "text"
	case COMMAND_BOUNDARY:
		return "boundary"
	case GROUP:
		return "group"
	case STRING:
		return "string"
	case SCRIPT:
		return "script"
	case GROUP_SCRIPT:
		return "group-script"
	case LINE_CONTINUATION:
		return "line-continuation"
	case SCRIPT_SHORTHAND:
		return "script-shorthand"
	case GROUP_SCRIPT_SHORTHAND:
		return "group-script-shorthand"
	case INPUT_END:
		return "input-end"
	}
	return "unknown"
}

// / Group, string and the two braced script kinds are delimited: their
// / opening and closing characters are not part of the token text.
func isDelimitedBlock(k TokenKind) bool {
	return k == GROUP || k == STRING || k == SCRIPT || k == GROUP_SCRIPT
}

// mergeable kinds: adjacent runs of these collapse into one node.
func isMergeable(k TokenKind) bool {
	return k == TEXT || k == COMMAND_BOUNDARY
}

type Token struct {
	Kind TokenKind
	Text string
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

const kNoNode = -1

type tokenNode struct {
	token Token
	prev_ int
	next_ int
	// nesting level of the script expansion that produced this node.
	depth_ int
}

// / TokenList is a doubly linked sequence of tokens. Nodes live in an arena
// / and refer to each other by index, so splicing never hands out pointers
// / that can dangle. Removed nodes stay in the arena until the list is
// / cleared.
type TokenList struct {
	nodes_ []tokenNode
	head_  int
	tail_  int
	len_   int
}

func NewTokenList() *TokenList {
	ret := TokenList{}
	ret.head_ = kNoNode
	ret.tail_ = kNoNode
	return &ret
}

func (this *TokenList) Len() int      { return this.len_ }
func (this *TokenList) IsEmpty() bool { return this.head_ == kNoNode }

func (this *TokenList) Clear() {
	this.nodes_ = this.nodes_[:0]
	this.head_ = kNoNode
	this.tail_ = kNoNode
	this.len_ = 0
}

// / Append adds a token at the end of the list. Pseudo kinds are rewritten:
// / a line continuation becomes a single space of text, a shorthand script
// / becomes a script whose source is prefixed with the scope accessor.
// / Text following text and a boundary following a boundary are merged into
// / the tail node.
func (this *TokenList) Append(kind TokenKind, text string) {
	this.appendAtDepth(kind, text, 0)
}

func (this *TokenList) appendAtDepth(kind TokenKind, text string, depth int) {
	switch kind {
	case LINE_CONTINUATION:
		kind = TEXT
		text = " "
	case SCRIPT_SHORTHAND, GROUP_SCRIPT_SHORTHAND:
		if kind == SCRIPT_SHORTHAND {
			kind = SCRIPT
		} else {
			kind = GROUP_SCRIPT
		}
		text = expandShorthand(text)
	}

	if this.tail_ != kNoNode {
		tail := &this.nodes_[this.tail_]
		if isMergeable(kind) && tail.token.Kind == kind {
			tail.token.Text += text
			return
		}
	}

	idx := this.newNode(Token{kind, text}, depth)
	if this.tail_ == kNoNode {
		this.head_ = idx
	} else {
		this.nodes_[this.tail_].next_ = idx
		this.nodes_[idx].prev_ = this.tail_
	}
	this.tail_ = idx
}

// "$a.b" -> "$.a.b", "=a.b" -> "=$.a.b"
func expandShorthand(text string) string {
	if text == "" {
		return text
	}
	if text[0] == '=' {
		return "=$." + text[1:]
	}
	return "$." + text[1:]
}

func (this *TokenList) newNode(token Token, depth int) int {
	this.nodes_ = append(this.nodes_, tokenNode{token: token, prev_: kNoNode, next_: kNoNode, depth_: depth})
	this.len_++
	return len(this.nodes_) - 1
}

// / Drops the tail node if it has the given kind.
func (this *TokenList) TrimEnd(kind TokenKind) {
	if this.tail_ == kNoNode || this.nodes_[this.tail_].token.Kind != kind {
		return
	}
	this.unlink(this.tail_)
}

func (this *TokenList) Back() (Token, bool) {
	if this.tail_ == kNoNode {
		return Token{}, false
	}
	return this.nodes_[this.tail_].token, true
}

func (this *TokenList) Begin() *Iterator {
	return &Iterator{list_: this, cur_: this.head_}
}

// / Tokens returns a snapshot of the list contents in order.
func (this *TokenList) Tokens() []Token {
	ret := make([]Token, 0, this.len_)
	for i := this.head_; i != kNoNode; i = this.nodes_[i].next_ {
		ret = append(ret, this.nodes_[i].token)
	}
	return ret
}

func (this *TokenList) String() string {
	var sb strings.Builder
	for i, t := range this.Tokens() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	return "[" + sb.String() + "]"
}

func (this *TokenList) unlink(idx int) {
	n := &this.nodes_[idx]
	if n.prev_ == kNoNode {
		this.head_ = n.next_
	} else {
		this.nodes_[n.prev_].next_ = n.next_
	}
	if n.next_ == kNoNode {
		this.tail_ = n.prev_
	} else {
		this.nodes_[n.next_].prev_ = n.prev_
	}
	n.prev_ = kNoNode
	n.next_ = kNoNode
	this.len_--
}

// / Iterator references one node of a TokenList, or the position past the
// / end.
type Iterator struct {
	list_ *TokenList
	cur_  int
}

func (this *Iterator) AtEnd() bool { return this.cur_ == kNoNode }

func (this *Iterator) Advance() {
	if this.cur_ != kNoNode {
		this.cur_ = this.list_.nodes_[this.cur_].next_
	}
}

func (this *Iterator) Clone() *Iterator {
	ret := *this
	return &ret
}

func (this *Iterator) Equals(other *Iterator) bool {
	return other != nil && this.list_ == other.list_ && this.cur_ == other.cur_
}

// / Token returns a copy of the referenced token. The zero token is
// / returned at the end.
func (this *Iterator) Token() Token {
	if this.cur_ == kNoNode {
		return Token{Kind: UNKNOWN}
	}
	return this.list_.nodes_[this.cur_].token
}

func (this *Iterator) Kind() TokenKind { return this.Token().Kind }
func (this *Iterator) Text() string    { return this.Token().Text }

func (this *Iterator) depth() int {
	if this.cur_ == kNoNode {
		return 0
	}
	return this.list_.nodes_[this.cur_].depth_
}

func (this *Iterator) AppendText(text string) {
	if this.cur_ != kNoNode {
		this.list_.nodes_[this.cur_].token.Text += text
	}
}

// / Next returns an iterator on the following node without moving this one.
func (this *Iterator) Next() *Iterator {
	ret := this.Clone()
	ret.Advance()
	return ret
}

// / Remove unlinks the referenced node and moves to its successor. If the
// / removal brings two text or two boundary nodes together they are merged
// / into the earlier one and the iterator moves past it.
func (this *Iterator) Remove() {
	if this.cur_ == kNoNode {
		return
	}
	l := this.list_
	n := l.nodes_[this.cur_]
	l.unlink(this.cur_)
	this.cur_ = n.next_
	if n.prev_ != kNoNode && n.next_ != kNoNode {
		this.mergeIfRequired()
	}
}

// Merges the referenced node into its predecessor when both are text or
// both are boundaries.
func (this *Iterator) mergeIfRequired() {
	if this.cur_ == kNoNode {
		return
	}
	l := this.list_
	n := l.nodes_[this.cur_]
	if n.prev_ == kNoNode {
		return
	}
	prev := &l.nodes_[n.prev_]
	if isMergeable(n.token.Kind) && prev.token.Kind == n.token.Kind {
		prev.token.Text += n.token.Text
		this.Remove()
	}
}

// / ReplaceWithList substitutes the referenced node with the contents of
// / other, which is left empty. Merge invariants are restored at both seams.
// / Afterwards the iterator references the first spliced node that survived
// / merging, or whatever follows it.
func (this *Iterator) ReplaceWithList(other *TokenList) {
	if this.cur_ == kNoNode {
		return
	}
	if other.IsEmpty() {
		this.Remove()
		other.Clear()
		return
	}

	l := this.list_
	depth := l.nodes_[this.cur_].depth_ + 1
	first := kNoNode
	last := kNoNode
	for i := other.head_; i != kNoNode; i = other.nodes_[i].next_ {
		idx := l.newNode(other.nodes_[i].token, max(depth, other.nodes_[i].depth_))
		if first == kNoNode {
			first = idx
		} else {
			l.nodes_[last].next_ = idx
			l.nodes_[idx].prev_ = last
		}
		last = idx
	}
	other.Clear()

	next := l.nodes_[this.cur_].next_
	l.nodes_[this.cur_].next_ = first
	l.nodes_[first].prev_ = this.cur_
	l.nodes_[last].next_ = next
	if next == kNoNode {
		l.tail_ = last
	} else {
		l.nodes_[next].prev_ = last
		after := Iterator{list_: l, cur_: next}
		after.mergeIfRequired()
	}
	this.Remove()
}
