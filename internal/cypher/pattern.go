package cypher

import (
	"sort"
	"strings"
)

// Direction of a relationship pattern as written in the query.
type Direction int

const (
	Undirected Direction = iota
	Outgoing
	Incoming
)

// RelationshipPattern is one bracketed relationship pattern, e.g. -[:KNOWS]->.
type RelationshipPattern struct {
	Types     []string
	Direction Direction
	// byte offsets of the arrow head and both dashes
	arrowStart int
	arrowEnd   int
	leftDash   int
	rightDash  int
}

// RelationshipPatterns lists bracketed relationship patterns in source order.
// Arrow-only forms such as --> carry no type and are not reported.
func RelationshipPatterns(query string) []RelationshipPattern {
	tokens := significant(lex(query))
	var patterns []RelationshipPattern
	for i := 1; i < len(tokens); i++ {
		if tokens[i].text != "[" || tokens[i-1].text != "-" {
			continue
		}
		closing := matchingBracket(tokens, i)
		if closing < 0 || closing+1 >= len(tokens) || tokens[closing+1].text != "-" {
			continue
		}
		pattern := RelationshipPattern{
			Types:     bracketTypes(tokens[i+1 : closing]),
			leftDash:  tokens[i-1].start,
			rightDash: tokens[closing+1].start,
		}
		left := i >= 2 && tokens[i-2].text == "<" && tokens[i-2].end == tokens[i-1].start
		right := closing+2 < len(tokens) && tokens[closing+2].text == ">" && tokens[closing+1].end == tokens[closing+2].start
		switch {
		case left && !right:
			pattern.Direction = Incoming
			pattern.arrowStart, pattern.arrowEnd = tokens[i-2].start, tokens[i-2].end
		case right && !left:
			pattern.Direction = Outgoing
			pattern.arrowStart, pattern.arrowEnd = tokens[closing+2].start, tokens[closing+2].end
		}
		patterns = append(patterns, pattern)
		i = closing
	}
	return patterns
}

func matchingBracket(tokens []token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].text {
		case "[", "{", "(":
			depth++
		case "]", "}", ")":
			depth--
			if depth == 0 {
				if tokens[i].text != "]" {
					return -1
				}
				return i
			}
		}
	}
	return -1
}

// bracketTypes reads ":A|B" or ":A|:B" type alternatives at bracket depth zero.
func bracketTypes(tokens []token) []string {
	var types []string
	depth := 0
	expectType := false
	for _, tok := range tokens {
		switch tok.text {
		case "{", "(", "[":
			depth++
			expectType = false
			continue
		case "}", ")", "]":
			depth--
			continue
		}
		if depth != 0 {
			continue
		}
		switch {
		case tok.text == ":" || tok.text == "|":
			expectType = true
		case expectType && tok.kind == tokenWord:
			types = append(types, identifier(tok.text))
			expectType = false
		default:
			expectType = false
		}
	}
	return types
}

// RelationshipTypes returns the distinct relationship types used by directed
// patterns, sorted.
func RelationshipTypes(query string) []string {
	seen := map[string]struct{}{}
	for _, pattern := range RelationshipPatterns(query) {
		if pattern.Direction == Undirected {
			continue
		}
		for _, name := range pattern.Types {
			seen[name] = struct{}{}
		}
	}
	types := make([]string, 0, len(seen))
	for name := range seen {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// FlipDirection reverses every directed pattern that references one of the
// given relationship types. It reports false when nothing was flipped.
func FlipDirection(query string, relTypes ...string) (string, bool) {
	wanted := make(map[string]struct{}, len(relTypes))
	for _, name := range relTypes {
		wanted[name] = struct{}{}
	}
	type edit struct {
		at     int
		remove int
		insert string
	}
	var edits []edit
	for _, pattern := range RelationshipPatterns(query) {
		if pattern.Direction == Undirected || !referencesAny(pattern.Types, wanted) {
			continue
		}
		if pattern.Direction == Incoming {
			edits = append(edits,
				edit{at: pattern.arrowStart, remove: pattern.arrowEnd - pattern.arrowStart},
				edit{at: pattern.rightDash + 1, insert: ">"},
			)
			continue
		}
		edits = append(edits,
			edit{at: pattern.leftDash, insert: "<"},
			edit{at: pattern.arrowStart, remove: pattern.arrowEnd - pattern.arrowStart},
		)
	}
	if len(edits) == 0 {
		return query, false
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].at > edits[j].at })
	flipped := query
	for _, e := range edits {
		flipped = flipped[:e.at] + e.insert + flipped[e.at+e.remove:]
	}
	return flipped, true
}

func referencesAny(types []string, wanted map[string]struct{}) bool {
	for _, name := range types {
		if _, ok := wanted[name]; ok {
			return true
		}
	}
	return false
}

// HasOrderBy reports whether the final projection is ordered, i.e. an
// ORDER BY follows the last RETURN.
func HasOrderBy(query string) bool {
	tokens := significant(lex(query))
	lastReturn := -1
	for i, tok := range tokens {
		if tok.isKeyword("RETURN") {
			lastReturn = i
		}
	}
	if lastReturn < 0 {
		return false
	}
	for i := lastReturn + 1; i+1 < len(tokens); i++ {
		if tokens[i].isKeyword("ORDER") && tokens[i+1].isKeyword("BY") {
			return true
		}
	}
	return false
}

// IsReadOnly reports whether the query avoids write clauses. It is advisory:
// the engine session enforces read-only execution.
func IsReadOnly(query string) bool {
	for _, tok := range significant(lex(query)) {
		if tok.kind != tokenWord {
			continue
		}
		switch strings.ToUpper(tok.text) {
		case "CREATE", "MERGE", "DELETE", "DETACH", "SET", "REMOVE", "DROP", "LOAD", "FOREACH":
			return false
		}
	}
	return true
}
