package cypher

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenString
	tokenComment
	tokenSymbol
	tokenSpace
)

// token is a lexical unit with its byte span in the source query.
type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
}

// lex splits a query into tokens. String literals, backtick identifiers and
// comments are kept whole so keywords inside them are never matched.
func lex(query string) []token {
	var tokens []token
	i := 0
	for i < len(query) {
		start := i
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = scanQuoted(query, i, c)
			kind := tokenString
			if c == '`' {
				kind = tokenWord
			}
			tokens = append(tokens, token{kind: kind, text: query[start:i], start: start, end: i})
		case c == '/' && i+1 < len(query) && query[i+1] == '/':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				i = len(query)
			} else {
				i += end
			}
			tokens = append(tokens, token{kind: tokenComment, text: query[start:i], start: start, end: i})
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				i = len(query)
			} else {
				i += end + 4
			}
			tokens = append(tokens, token{kind: tokenComment, text: query[start:i], start: start, end: i})
		case isSpace(c):
			for i < len(query) && isSpace(query[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenSpace, text: query[start:i], start: start, end: i})
		case isWordByte(c):
			for i < len(query) && isWordByte(query[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenWord, text: query[start:i], start: start, end: i})
		default:
			i++
			tokens = append(tokens, token{kind: tokenSymbol, text: query[start:i], start: start, end: i})
		}
	}
	return tokens
}

func scanQuoted(query string, i int, quote byte) int {
	i++
	for i < len(query) {
		switch query[i] {
		case '\\':
			if quote != '`' {
				i += 2
				continue
			}
		case quote:
			if quote == '`' && i+1 < len(query) && query[i+1] == '`' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(query)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

// significant drops whitespace and comments.
func significant(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.kind == tokenSpace || tok.kind == tokenComment {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func (tok token) isKeyword(word string) bool {
	return tok.kind == tokenWord && strings.EqualFold(tok.text, word)
}

// identifier strips backticks from a quoted identifier.
func identifier(text string) string {
	if len(text) >= 2 && text[0] == '`' && text[len(text)-1] == '`' {
		return strings.ReplaceAll(text[1:len(text)-1], "``", "`")
	}
	return text
}
