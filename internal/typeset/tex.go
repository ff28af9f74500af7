package typeset

import (
	"fmt"
	"strings"
	"unicode"
)

// SyntaxError describes malformed TeX input.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("typeset: %s at offset %d", e.Msg, e.Pos)
}

type parser struct {
	table Table
	src   []rune
	pos   int
}

func render(table Table, tex string) (string, error) {
	p := &parser{table: table, src: []rune(tex)}
	out, err := p.sequence(false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *parser) sequence(inGroup bool) (string, error) {
	var b strings.Builder
	lastSpace := false
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		switch {
		case r == '}':
			if !inGroup {
				return "", &SyntaxError{Pos: p.pos, Msg: "unbalanced '}'"}
			}
			return b.String(), nil
		case r == '{':
			group, err := p.group()
			if err != nil {
				return "", err
			}
			b.WriteString(group)
			lastSpace = false
		case r == '\\':
			out, err := p.command()
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			lastSpace = strings.HasSuffix(out, " ")
		case unicode.IsSpace(r):
			p.pos++
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			p.pos++
			b.WriteRune(r)
			lastSpace = false
		}
	}
	if inGroup {
		return "", &SyntaxError{Pos: p.pos, Msg: "missing '}'"}
	}
	return b.String(), nil
}

// group consumes a braced group starting at the current '{'.
func (p *parser) group() (string, error) {
	p.pos++
	out, err := p.sequence(true)
	if err != nil {
		return "", err
	}
	p.pos++
	return strings.TrimSpace(out), nil
}

// argument reads a command argument: a braced group or a single token.
func (p *parser) argument() (string, error) {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", &SyntaxError{Pos: p.pos, Msg: "missing argument"}
	}
	switch r := p.src[p.pos]; r {
	case '{':
		return p.group()
	case '}':
		return "", &SyntaxError{Pos: p.pos, Msg: "missing argument"}
	case '\\':
		return p.command()
	default:
		p.pos++
		return string(r), nil
	}
}

func (p *parser) command() (string, error) {
	start := p.pos
	p.pos++
	if p.pos >= len(p.src) {
		return "", &SyntaxError{Pos: start, Msg: "dangling '\\'"}
	}
	var name string
	if unicode.IsLetter(p.src[p.pos]) {
		begin := p.pos
		for p.pos < len(p.src) && unicode.IsLetter(p.src[p.pos]) {
			p.pos++
		}
		name = string(p.src[begin:p.pos])
	} else {
		name = string(p.src[p.pos])
		p.pos++
	}

	switch name {
	case "frac":
		num, err := p.argument()
		if err != nil {
			return "", err
		}
		den, err := p.argument()
		if err != nil {
			return "", err
		}
		return fill(p.table.Frac, map[string]string{"num": num, "den": den}), nil
	case "sqrt":
		arg, err := p.argument()
		if err != nil {
			return "", err
		}
		return fill(p.table.Sqrt, map[string]string{"arg": arg}), nil
	}
	sym, ok := p.table.Symbols[name]
	if !ok {
		return "", &SyntaxError{Pos: start, Msg: fmt.Sprintf("unknown command \\%s", name)}
	}
	return sym, nil
}

// fill substitutes {key} placeholders, parenthesizing compound values unless
// the layout already encloses them.
func fill(layout string, values map[string]string) string {
	out := layout
	for key, value := range values {
		placeholder := "{" + key + "}"
		if strings.ContainsRune(value, ' ') && !strings.Contains(layout, "("+placeholder+")") {
			value = "(" + value + ")"
		}
		out = strings.ReplaceAll(out, placeholder, value)
	}
	return out
}
