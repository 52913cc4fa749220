package responder

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var arithmeticOnly = regexp.MustCompile(`^[\d\s+\-*/().]+$`)

// Longer phrases first so "等于多少" is removed before "等于".
var mathPhrases = []string{
	"等于多少", "等於多少", "等于几", "等於幾", "是多少",
	"等于", "等於", "计算", "計算", "多少",
	"how much is", "what is", "what's", "calculate", "equals",
}

var (
	errDivByZero = errors.New("division by zero")
	errMalformed = errors.New("malformed expression")
	errNotFinite = errors.New("result is not finite")
)

// EvalMath recognises a bare arithmetic expression inside text and evaluates it.
// ok is false whenever the text is not pure arithmetic or cannot be evaluated.
func EvalMath(text string) (string, bool) {
	expr := cleanMathText(text)
	if !arithmeticOnly.MatchString(expr) {
		return "", false
	}
	v, err := evaluate(expr)
	if err != nil {
		return "", false
	}
	return expr + " = " + formatNumber(v), true
}

func cleanMathText(text string) string {
	s := strings.ToLower(text)
	for _, p := range mathPhrases {
		s = strings.ReplaceAll(s, p, "")
	}
	s = strings.TrimRight(s, "?？= \t\r\n")
	return strings.TrimSpace(s)
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	op   byte
	num  float64
}

func tokenize(expr string) ([]token, error) {
	var out []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '(':
			out = append(out, token{kind: tokLParen})
			i++
		case c == ')':
			out = append(out, token{kind: tokRParen})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			out = append(out, token{kind: tokOp, op: c})
			i++
		case c == '.' || (c >= '0' && c <= '9'):
			j := i
			dots := 0
			for j < len(expr) && (expr[j] == '.' || (expr[j] >= '0' && expr[j] <= '9')) {
				if expr[j] == '.' {
					dots++
				}
				j++
			}
			lit := expr[i:j]
			if dots > 1 || lit == "." {
				return nil, errMalformed
			}
			n, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, errMalformed
			}
			out = append(out, token{kind: tokNumber, num: n})
			i = j
		default:
			return nil, errMalformed
		}
	}
	return out, nil
}

// parser is a recursive-descent evaluator for
//
//	expr   = term { ("+"|"-") term }
//	term   = unary { ("*"|"/") unary }
//	unary  = ("+"|"-") unary | factor
//	factor = number | "(" expr ")"
type parser struct {
	toks []token
	pos  int
}

func evaluate(expr string) (float64, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	p := &parser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.toks) {
		return 0, errMalformed
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errNotFinite
	}
	return v, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.op != '+' && t.op != '-') {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if t.op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.op != '*' && t.op != '/') {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if t.op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, errDivByZero
		}
		left /= right
	}
}

func (p *parser) unary() (float64, error) {
	t, ok := p.peek()
	if ok && t.kind == tokOp && (t.op == '+' || t.op == '-') {
		p.pos++
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if t.op == '-' {
			return -v, nil
		}
		return v, nil
	}
	return p.factor()
}

func (p *parser) factor() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, errMalformed
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.num, nil
	case tokLParen:
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokRParen {
			return 0, errMalformed
		}
		p.pos++
		return v, nil
	default:
		return 0, errMalformed
	}
}
