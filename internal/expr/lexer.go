package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokFloat
	tokString
	tokName
	tokKeyword
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
	ival int64
	fval float64
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "True": true, "False": true, "None": true,
	"lambda": true,
}

// Longest operators first.
var operators = []string{
	"**", "//", "==", "!=", "<=", ">=", "<<", ">>",
	"+", "-", "*", "/", "%", "<", ">", "(", ")", "[", "]", "{", "}",
	",", ":", "|", "^", "&", "~", ".", "=",
}

type lexer struct {
	src    string
	pos    int
	tokens []token
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src}
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.src) {
			lx.tokens = append(lx.tokens, token{kind: tokEOF, pos: lx.pos})
			return lx.tokens, nil
		}
		if err := lx.next(); err != nil {
			return nil, err
		}
	}
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			lx.pos++
		default:
			return
		}
	}
}

func (lx *lexer) next() error {
	c := lx.src[lx.pos]
	switch {
	case isDigit(c) || (c == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1])):
		return lx.number()
	case c == '\'' || c == '"':
		return lx.str()
	}

	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	if r == '_' || unicode.IsLetter(r) {
		start := lx.pos
		lx.pos += size
		for lx.pos < len(lx.src) {
			r, size = utf8.DecodeRuneInString(lx.src[lx.pos:])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			lx.pos += size
		}
		word := lx.src[start:lx.pos]
		kind := tokName
		if keywords[word] {
			kind = tokKeyword
		}
		lx.tokens = append(lx.tokens, token{kind: kind, text: word, pos: start})
		return nil
	}

	for _, op := range operators {
		if strings.HasPrefix(lx.src[lx.pos:], op) {
			lx.tokens = append(lx.tokens, token{kind: tokOp, text: op, pos: lx.pos})
			lx.pos += len(op)
			return nil
		}
	}
	return fmt.Errorf("invalid character %q at position %d", r, lx.pos)
}

func (lx *lexer) number() error {
	start := lx.pos
	src := lx.src

	if src[lx.pos] == '0' && lx.pos+1 < len(src) && strings.ContainsRune("xXoObB", rune(src[lx.pos+1])) {
		lx.pos += 2
		for lx.pos < len(src) && (isAlnum(src[lx.pos]) || src[lx.pos] == '_') {
			lx.pos++
		}
		text := src[start:lx.pos]
		n, ok := parseIntLiteral(text)
		if !ok {
			return fmt.Errorf("invalid number literal %q", text)
		}
		lx.tokens = append(lx.tokens, token{kind: tokInt, text: text, pos: start, ival: n})
		return nil
	}

	isFloat := false
	lx.digits()
	if lx.pos < len(src) && src[lx.pos] == '.' {
		isFloat = true
		lx.pos++
		lx.digits()
	}
	if lx.pos < len(src) && (src[lx.pos] == 'e' || src[lx.pos] == 'E') {
		save := lx.pos
		lx.pos++
		if lx.pos < len(src) && (src[lx.pos] == '+' || src[lx.pos] == '-') {
			lx.pos++
		}
		if lx.pos < len(src) && isDigit(src[lx.pos]) {
			isFloat = true
			lx.digits()
		} else {
			lx.pos = save
		}
	}
	if lx.pos < len(src) && (isAlnum(src[lx.pos]) || src[lx.pos] == '_') {
		return fmt.Errorf("invalid number literal at position %d", start)
	}

	text := src[start:lx.pos]
	if isFloat {
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil && !isRangeErr(err) {
			return fmt.Errorf("invalid number literal %q", text)
		}
		lx.tokens = append(lx.tokens, token{kind: tokFloat, text: text, pos: start, fval: f})
		return nil
	}
	n, ok := parseIntLiteral(text)
	if !ok {
		return fmt.Errorf("invalid number literal %q", text)
	}
	lx.tokens = append(lx.tokens, token{kind: tokInt, text: text, pos: start, ival: n})
	return nil
}

func (lx *lexer) digits() {
	for lx.pos < len(lx.src) && (isDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '_') {
		lx.pos++
	}
}

func (lx *lexer) str() error {
	start := lx.pos
	q := lx.src[lx.pos]
	lx.pos++
	var b strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == q:
			lx.pos++
			lx.tokens = append(lx.tokens, token{kind: tokString, text: b.String(), pos: start})
			return nil
		case c == '\n':
			return fmt.Errorf("unterminated string literal at position %d", start)
		case c == '\\' && lx.pos+1 < len(lx.src):
			lx.pos++
			switch e := lx.src[lx.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\', '\'', '"':
				b.WriteByte(e)
			case '\n':
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
			lx.pos++
		default:
			b.WriteByte(c)
			lx.pos++
		}
	}
	return fmt.Errorf("unterminated string literal at position %d", start)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
