package lesson

import "strings"

// Expression is a math expression to typeset, with its display mode.
type Expression struct {
	Latex   string
	Display bool
}

// MathExpressions collects the distinct expressions a step shows: its math
// blocks, the equations written by its teaching events, and inline
// $...$ / $$...$$ spans in the content. Order of first appearance is kept.
func MathExpressions(s *Step) []Expression {
	seen := make(map[Expression]bool)
	var out []Expression
	add := func(e Expression) {
		e.Latex = strings.TrimSpace(e.Latex)
		if e.Latex == "" || seen[e] {
			return
		}
		seen[e] = true
		out = append(out, e)
	}

	for _, mb := range s.MathBlocks {
		add(Expression{Latex: mb.Latex, Display: mb.Display})
	}
	for _, ev := range s.Events {
		if ev.Type != EventWriteEquation {
			continue
		}
		display := true
		if ev.Payload.Display != nil {
			display = *ev.Payload.Display
		}
		add(Expression{Latex: ev.Payload.Latex, Display: display})
	}
	for _, e := range inlineMath(s.Content) {
		add(e)
	}
	return out
}

// inlineMath scans text for $...$ (inline) and $$...$$ (display) spans.
// An escaped dollar (\$) is literal. Unterminated spans are ignored.
func inlineMath(text string) []Expression {
	var out []Expression
	i := 0
	for i < len(text) {
		if text[i] == '\\' && i+1 < len(text) {
			i += 2
			continue
		}
		if text[i] != '$' {
			i++
			continue
		}
		delim := "$"
		if strings.HasPrefix(text[i:], "$$") {
			delim = "$$"
		}
		start := i + len(delim)
		end := indexUnescaped(text[start:], delim)
		if end < 0 {
			break
		}
		out = append(out, Expression{
			Latex:   text[start : start+end],
			Display: delim == "$$",
		})
		i = start + end + len(delim)
	}
	return out
}

func indexUnescaped(s, delim string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(s[i:], delim) {
			return i
		}
	}
	return -1
}
