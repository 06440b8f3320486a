package cypher

import (
	"strings"
)

// Clean prepares model output for execution: comments are dropped,
// whitespace runs that contain a line break collapse to a single space and
// trailing semicolons are removed. Literals are left untouched.
func Clean(query string) string {
	var builder strings.Builder
	builder.Grow(len(query))
	for _, tok := range lex(query) {
		switch tok.kind {
		case tokenComment:
			builder.WriteByte(' ')
		case tokenSpace:
			if strings.ContainsAny(tok.text, "\r\n") {
				builder.WriteByte(' ')
			} else {
				builder.WriteString(tok.text)
			}
		default:
			builder.WriteString(tok.text)
		}
	}
	cleaned := strings.TrimSpace(builder.String())
	for strings.HasSuffix(cleaned, ";") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, ";"))
	}
	return collapseSpaces(cleaned)
}

// collapseSpaces squeezes repeated spaces outside literals.
func collapseSpaces(query string) string {
	var builder strings.Builder
	builder.Grow(len(query))
	for _, tok := range lex(query) {
		if tok.kind == tokenSpace {
			builder.WriteByte(' ')
			continue
		}
		builder.WriteString(tok.text)
	}
	return builder.String()
}

// ExtractQuery pulls a query out of free-form model text. A fenced code
// block wins over surrounding prose; a leading "cypher" language tag or
// "Cypher:" label is dropped.
func ExtractQuery(text string) string {
	body := strings.TrimSpace(text)
	if fenced, ok := fencedBlock(body); ok {
		body = fenced
	}
	for _, prefix := range []string{"cypher query:", "cypher:", "query:"} {
		if len(body) >= len(prefix) && strings.EqualFold(body[:len(prefix)], prefix) {
			body = body[len(prefix):]
			break
		}
	}
	return Clean(body)
}

var fenceTags = map[string]struct{}{
	"": {}, "cypher": {}, "cql": {}, "neo4j": {}, "sql": {}, "text": {}, "plaintext": {},
}

func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	block := rest[:end]
	if newline := strings.IndexByte(block, '\n'); newline >= 0 {
		if _, ok := fenceTags[strings.ToLower(strings.TrimSpace(block[:newline]))]; ok {
			block = block[newline+1:]
		}
	}
	return strings.TrimSpace(block), true
}
