package cgraph_go

// Lexer splits a document into a TokenList. It is a single pass state
// machine over bytes; every delimiter it knows is ASCII so slicing the input
// keeps multi-byte characters intact.
type Lexer struct {
	input_ string
	list_  *TokenList

	kind_  TokenKind
	start_ int

	// brace depth inside a braced script or group-script.
	script_depth_ int
	// parenthesis depth inside a group.
	group_depth_ int
	// open delimiters inside a shorthand script.
	delims_ []byte
}

func NewLexer(input string) *Lexer {
	ret := Lexer{}
	ret.input_ = input
	ret.list_ = NewTokenList()
	ret.kind_ = UNKNOWN
	return &ret
}

// / Parse tokenizes a whole document. The result always ends with exactly
// / one COMMAND_BOUNDARY token.
func Parse(input string) *TokenList {
	defer METRIC_RECORD("tokenize")()
	return NewLexer(input).Tokenize()
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isEOL(ch byte) bool {
	return ch == '\n' || ch == '\r'
}

func isOpener(ch byte) bool {
	switch ch {
	case '(', '[', '{', '"', '\'', '`':
		return true
	}
	return false
}

func isQuote(ch byte) bool {
	return ch == '"' || ch == '\'' || ch == '`'
}

func closerFor(ch byte) byte {
	switch ch {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return ch
}

func (this *Lexer) at(i int) byte {
	if i < 0 || i >= len(this.input_) {
		return 0
	}
	return this.input_[i]
}

// true when position i holds the first character of a word: the previous
// character is whitespace, or the current mode is not plain text.
func (this *Lexer) startsShorthand(i int) bool {
	peek := this.at(i + 1)
	if i+1 >= len(this.input_) || isWhitespace(peek) {
		return false
	}
	return this.kind_ != TEXT || isWhitespace(this.at(i-1))
}

func (this *Lexer) Tokenize() *TokenList {
	for i := 0; i <= len(this.input_); i++ {
		if i == len(this.input_) {
			this.finish(i)
			break
		}
		next := this.nextKind(i)
		if next != this.kind_ {
			this.transition(next, i)
		}
	}
	return this.list_
}

func (this *Lexer) nextKind(i int) TokenKind {
	ch := this.input_[i]
	switch this.kind_ {
	case GROUP:
		return this.inGroup(i, ch)
	case STRING:
		if ch == '"' {
			return UNKNOWN
		}
		return STRING
	case SCRIPT, GROUP_SCRIPT:
		if ch == '{' {
			this.script_depth_++
		} else if ch == '}' {
			if this.script_depth_ == 0 {
				if this.kind_ == GROUP_SCRIPT {
					return GROUP
				}
				return UNKNOWN
			}
			this.script_depth_--
		}
		return this.kind_
	case SCRIPT_SHORTHAND:
		if len(this.delims_) == 0 {
			if isWhitespace(ch) {
				if isEOL(ch) {
					return COMMAND_BOUNDARY
				}
				return TEXT
			}
			if ch == ';' {
				return COMMAND_BOUNDARY
			}
		}
		this.trackDelimiter(ch)
		return SCRIPT_SHORTHAND
	case GROUP_SCRIPT_SHORTHAND:
		if len(this.delims_) == 0 {
			if isWhitespace(ch) {
				return GROUP
			}
			if ch == ')' {
				if this.group_depth_ == 0 {
					return UNKNOWN
				}
				// ')' closes a nested parenthesis of the group, so it belongs
				// to the group text.
				this.group_depth_--
				return GROUP
			}
		}
		this.trackDelimiter(ch)
		return GROUP_SCRIPT_SHORTHAND
	}

	// UNKNOWN, TEXT, COMMAND_BOUNDARY, LINE_CONTINUATION
	if this.kind_ == LINE_CONTINUATION && isEOL(ch) {
		return LINE_CONTINUATION
	}
	switch {
	case ch == '(':
		this.group_depth_ = 0
		return GROUP
	case ch == '"':
		return STRING
	case ch == '{':
		this.script_depth_ = 0
		return SCRIPT
	case isEOL(ch) || ch == ';':
		return COMMAND_BOUNDARY
	case ch == '\\' && isEOL(this.at(i+1)):
		return LINE_CONTINUATION
	case (ch == '$' || ch == '=') && this.startsShorthand(i):
		this.delims_ = this.delims_[:0]
		return SCRIPT_SHORTHAND
	}
	return TEXT
}

func (this *Lexer) inGroup(i int, ch byte) TokenKind {
	switch ch {
	case '(':
		this.group_depth_++
	case ')':
		if this.group_depth_ == 0 {
			return UNKNOWN
		}
		this.group_depth_--
	case '{':
		this.script_depth_ = 0
		return GROUP_SCRIPT
	case '$', '=':
		peek := this.at(i + 1)
		if i+1 < len(this.input_) && !isWhitespace(peek) && (i == this.start_ || isWhitespace(this.at(i-1))) {
			this.delims_ = this.delims_[:0]
			return GROUP_SCRIPT_SHORTHAND
		}
	}
	return GROUP
}

// Maintains the open-delimiter stack of a shorthand script. Inside a quote
// only the matching quote is significant.
func (this *Lexer) trackDelimiter(ch byte) {
	if n := len(this.delims_); n > 0 {
		top := this.delims_[n-1]
		if ch == closerFor(top) {
			this.delims_ = this.delims_[:n-1]
			return
		}
		if isQuote(top) {
			return
		}
	}
	if isOpener(ch) {
		this.delims_ = append(this.delims_, ch)
	}
}

func (this *Lexer) transition(next TokenKind, i int) {
	if this.kind_ != UNKNOWN {
		this.list_.Append(this.kind_, this.input_[this.start_:i])
	}
	switch {
	case this.kind_ == GROUP_SCRIPT_SHORTHAND && next == UNKNOWN:
		// The group closed right after the shorthand; keep the
		// GROUP/GROUP_SCRIPT alternation intact.
		this.list_.Append(GROUP, "")
		this.start_ = i + 1
	case this.kind_ == GROUP_SCRIPT_SHORTHAND && next == GROUP:
		this.start_ = i
	case isDelimitedBlock(next):
		this.start_ = i + 1
	default:
		this.start_ = i
	}
	this.kind_ = next
}

func (this *Lexer) finish(i int) {
	text := this.input_[this.start_:i]
	switch this.kind_ {
	case UNKNOWN:
	case SCRIPT:
		// Unterminated script: discarded.
		this.list_.Append(TEXT, "")
	case GROUP_SCRIPT:
		// Unterminated group script: discarded. The group text before it
		// was emitted on entry and stays the last piece of the group.
		this.kind_ = GROUP
	case GROUP_SCRIPT_SHORTHAND:
		this.list_.Append(GROUP_SCRIPT_SHORTHAND, text)
		this.list_.Append(GROUP, "")
		this.kind_ = GROUP
	default:
		this.list_.Append(this.kind_, text)
	}
	if this.kind_ != COMMAND_BOUNDARY {
		this.list_.Append(COMMAND_BOUNDARY, "")
	}
	this.kind_ = INPUT_END
}
