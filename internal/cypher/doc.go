// Package cypher holds lightweight, literal-aware helpers over Cypher text:
// cleaning model output, detecting a final ORDER BY and reversing directed
// relationship patterns. It is not a parser and never validates syntax.
package cypher
