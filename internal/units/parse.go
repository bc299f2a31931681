package units

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

var cache sync.Map // string -> Unit

// Parse reads a unit expression such as "$/MWh", "kg*m^2/s^2" or
// "USD/(kW*yr)". Multiplication and division associate to the left. The
// empty string is dimensionless.
func Parse(s string) (Unit, error) {
	if v, ok := cache.Load(s); ok {
		return v.(Unit), nil
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Dimensionless, nil
	}
	p := &parser{src: s, toks: tokenize(trimmed)}
	u, err := p.expr()
	if err != nil {
		return Unit{}, err
	}
	if p.pos < len(p.toks) {
		return Unit{}, fmt.Errorf("parse unit %q: unexpected %q", s, p.toks[p.pos])
	}
	u.Symbol = trimmed
	cache.Store(s, u)
	return u, nil
}

// MustParse is Parse for unit literals known to be valid.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func isOperator(r rune) bool {
	switch r {
	case '*', '/', '·', '^', '(', ')':
		return true
	}
	return false
}

func tokenize(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isOperator(r):
			flush()
			if r == '·' {
				r = '*'
			}
			toks = append(toks, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type parser struct {
	src  string
	toks []string
	pos  int
}

func (p *parser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expr() (Unit, error) {
	u, err := p.term()
	if err != nil {
		return Unit{}, err
	}
	for {
		switch p.peek() {
		case "*":
			p.next()
			r, err := p.term()
			if err != nil {
				return Unit{}, err
			}
			u = u.Mul(r)
		case "/":
			p.next()
			r, err := p.term()
			if err != nil {
				return Unit{}, err
			}
			u = u.Div(r)
		default:
			return u, nil
		}
	}
}

func (p *parser) term() (Unit, error) {
	u, err := p.factor()
	if err != nil {
		return Unit{}, err
	}
	if p.peek() != "^" {
		return u, nil
	}
	p.next()
	tok := p.next()
	n, err := strconv.Atoi(tok)
	if err != nil {
		return Unit{}, fmt.Errorf("parse unit %q: exponent %q is not an integer", p.src, tok)
	}
	return u.Pow(n), nil
}

func (p *parser) factor() (Unit, error) {
	tok := p.next()
	switch tok {
	case "":
		return Unit{}, fmt.Errorf("parse unit %q: unexpected end of input", p.src)
	case "(":
		u, err := p.expr()
		if err != nil {
			return Unit{}, err
		}
		if p.next() != ")" {
			return Unit{}, fmt.Errorf("parse unit %q: missing closing parenthesis", p.src)
		}
		return u, nil
	case ")", "*", "/", "^":
		return Unit{}, fmt.Errorf("parse unit %q: unexpected %q", p.src, tok)
	}
	u, ok := lookupAtom(tok)
	if !ok {
		return Unit{}, fmt.Errorf("parse unit %q: unknown unit %q", p.src, tok)
	}
	return u, nil
}
