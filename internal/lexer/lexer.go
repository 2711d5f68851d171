// Package lexer implements the ClassQL tokenizer.
//
// Lexing is longest-match with a fixed priority order: email identifiers,
// multi-word phrases, single-word keywords, progressive day abbreviations,
// multi-character operators, single-character operators, string literals,
// time literals, alphanumeric course numbers, integers, and finally
// general identifiers. Whitespace separates tokens and is otherwise
// insignificant.
//
// The lexer is tolerant where interactive use demands it: an unterminated
// string still lexes as STRING (consuming to end of input), and an
// unrecognized character produces a diagnostic, is skipped, and lexing
// continues so one pass can report every bad character.
package lexer

import (
	"strings"

	"github.com/CFdefense/ClassQL/internal/diag"
	"github.com/CFdefense/ClassQL/internal/token"
)

// Lex tokenizes source. The returned diagnostics are in source order;
// if any are present the token stream must not be parsed.
func Lex(source string) ([]token.Token, []diag.Diagnostic) {
	lx := &lexer{source: source}
	lx.run()
	return lx.toks, lx.diags
}

type lexer struct {
	source string
	pos    int
	toks   []token.Token
	diags  []diag.Diagnostic
}

func (lx *lexer) run() {
	for {
		lx.skipWhitespace()
		if lx.pos >= len(lx.source) {
			return
		}
		c := lx.source[lx.pos]
		switch {
		case isWordStart(c):
			lx.lexWord()
		case isDigit(c):
			lx.lexNumberOrTime()
		case c == '"':
			lx.lexString()
		default:
			lx.lexOperator()
		}
	}
}

func (lx *lexer) skipWhitespace() {
	for lx.pos < len(lx.source) && isSpace(lx.source[lx.pos]) {
		lx.pos++
	}
}

func (lx *lexer) emit(kind token.Kind, start, end int) {
	lx.toks = append(lx.toks, token.Token{
		Kind:   kind,
		Lexeme: lx.source[start:end],
		Span:   diag.NewSpan(start, end),
	})
	lx.pos = end
}

// lexWord handles everything that begins with a letter or underscore:
// email identifiers, multi-word phrases, keywords, day abbreviations,
// and general identifiers, in that priority order.
func (lx *lexer) lexWord() {
	start := lx.pos
	wordEnd := lx.scanWordRun(start)

	if end, ok := lx.scanEmail(wordEnd); ok {
		lx.emit(token.IDENTIFIER, start, end)
		return
	}

	if kind, end, ok := lx.matchPhrase(start); ok {
		lx.emit(kind, start, end)
		return
	}

	word := strings.ToLower(lx.source[start:wordEnd])
	if kind, ok := token.Keywords[word]; ok {
		lx.emit(kind, start, wordEnd)
		return
	}
	if kind, ok := token.DayFor(word); ok {
		lx.emit(kind, start, wordEnd)
		return
	}
	lx.emit(token.IDENTIFIER, start, wordEnd)
}

// scanWordRun returns the end of the identifier-style run starting at pos.
func (lx *lexer) scanWordRun(pos int) int {
	for pos < len(lx.source) && isWordChar(lx.source[pos]) {
		pos++
	}
	return pos
}

// scanEmail extends a word run into an email-like identifier:
// word '@' [A-Za-z0-9_]* '.' [A-Za-z0-9_.]*. Returns false when the
// run is not followed by a well-formed @domain.tld tail.
func (lx *lexer) scanEmail(wordEnd int) (int, bool) {
	i := wordEnd
	if i >= len(lx.source) || lx.source[i] != '@' {
		return 0, false
	}
	i++
	for i < len(lx.source) && isWordChar(lx.source[i]) {
		i++
	}
	if i >= len(lx.source) || lx.source[i] != '.' {
		return 0, false
	}
	i++
	for i < len(lx.source) && (isWordChar(lx.source[i]) || lx.source[i] == '.') {
		i++
	}
	return i, true
}

// matchPhrase attempts each multi-word phrase at pos. Phrases are listed
// longest first, so the first match is the longest. Component words must
// be separated by one or more spaces or tabs (a newline breaks a phrase)
// and each must be a complete word run.
func (lx *lexer) matchPhrase(pos int) (token.Kind, int, bool) {
	for _, phrase := range token.Phrases {
		if end, ok := lx.matchWords(pos, phrase.Words); ok {
			return phrase.Kind, end, true
		}
	}
	return 0, 0, false
}

func (lx *lexer) matchWords(pos int, words []string) (int, bool) {
	cursor := pos
	for i, want := range words {
		if i > 0 {
			sep := cursor
			for sep < len(lx.source) && (lx.source[sep] == ' ' || lx.source[sep] == '\t') {
				sep++
			}
			if sep == cursor {
				return 0, false
			}
			cursor = sep
		}
		if cursor >= len(lx.source) || !isWordStart(lx.source[cursor]) {
			return 0, false
		}
		end := lx.scanWordRun(cursor)
		if !strings.EqualFold(lx.source[cursor:end], want) {
			return 0, false
		}
		cursor = end
	}
	return cursor, true
}

// lexNumberOrTime handles runs that begin with a digit: time literals
// first, then alphanumeric course numbers (424N), then plain integers.
func (lx *lexer) lexNumberOrTime() {
	start := lx.pos
	if end, ok := lx.scanTime(start); ok {
		lx.emit(token.TIME, start, end)
		return
	}
	if end, ok := lx.scanCourseNumber(start); ok {
		lx.emit(token.IDENTIFIER, start, end)
		return
	}
	end := start
	for end < len(lx.source) && isDigit(lx.source[end]) {
		end++
	}
	lx.emit(token.INTEGER, start, end)
}

// scanTime matches H(H)?(:MM)? followed by an optional single space or
// tab and a word-bounded am/pm suffix. The suffix is required; "9:30"
// alone is not a time literal.
func (lx *lexer) scanTime(pos int) (int, bool) {
	i := pos
	digits := 0
	for i < len(lx.source) && isDigit(lx.source[i]) && digits < 2 {
		i++
		digits++
	}
	if digits == 0 || (i < len(lx.source) && isDigit(lx.source[i])) {
		return 0, false
	}
	if i < len(lx.source) && lx.source[i] == ':' {
		i++
		minutes := 0
		for i < len(lx.source) && isDigit(lx.source[i]) && minutes < 2 {
			i++
			minutes++
		}
		if minutes != 2 || (i < len(lx.source) && isDigit(lx.source[i])) {
			return 0, false
		}
	}
	if i < len(lx.source) && (lx.source[i] == ' ' || lx.source[i] == '\t') {
		i++
	}
	if i+2 > len(lx.source) {
		return 0, false
	}
	suffix := strings.ToLower(lx.source[i : i+2])
	if suffix != "am" && suffix != "pm" {
		return 0, false
	}
	i += 2
	if i < len(lx.source) && isWordChar(lx.source[i]) {
		return 0, false
	}
	return i, true
}

// scanCourseNumber matches [0-9]+[A-Za-z][A-Za-z0-9]*, e.g. 424N or 101L.
func (lx *lexer) scanCourseNumber(pos int) (int, bool) {
	i := pos
	for i < len(lx.source) && isDigit(lx.source[i]) {
		i++
	}
	if i >= len(lx.source) || !isLetter(lx.source[i]) {
		return 0, false
	}
	for i < len(lx.source) && isAlnum(lx.source[i]) {
		i++
	}
	return i, true
}

// lexString consumes a double-quoted string. An unterminated string is
// still emitted as STRING with everything up to end of input, so a
// live-search UI can lex queries mid-keystroke.
func (lx *lexer) lexString() {
	start := lx.pos
	i := start + 1
	for i < len(lx.source) && lx.source[i] != '"' {
		i++
	}
	if i < len(lx.source) {
		i++ // closing quote
	}
	lx.emit(token.STRING, start, i)
}

func (lx *lexer) lexOperator() {
	start := lx.pos
	rest := lx.source[start:]
	switch {
	case strings.HasPrefix(rest, "!="):
		lx.emit(token.NE, start, start+2)
	case strings.HasPrefix(rest, "<="):
		lx.emit(token.LE, start, start+2)
	case strings.HasPrefix(rest, ">="):
		lx.emit(token.GE, start, start+2)
	default:
		switch rest[0] {
		case '=':
			lx.emit(token.EQ, start, start+1)
		case '<':
			lx.emit(token.LT, start, start+1)
		case '>':
			lx.emit(token.GT, start, start+1)
		case '!':
			lx.emit(token.BANG, start, start+1)
		case '(':
			lx.emit(token.LPAREN, start, start+1)
		case ')':
			lx.emit(token.RPAREN, start, start+1)
		case ',':
			lx.emit(token.COMMA, start, start+1)
		default:
			lx.diags = append(lx.diags, diag.New(diag.Lexical,
				diag.NewSpan(start, start+1),
				"unrecognized character %q", string(rest[0])))
			lx.pos = start + 1
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool { return isLetter(c) || isDigit(c) }

func isWordStart(c byte) bool { return isLetter(c) || c == '_' }

func isWordChar(c byte) bool { return isAlnum(c) || c == '_' }
