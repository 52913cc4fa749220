// Package responder fabricates assistant replies from user text without a model:
// arithmetic evaluation, an ordered keyword cascade, and light reference
// resolution against the previous turn.
package responder

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Style string

const (
	StyleRules    Style = "rules"
	StyleTemplate Style = "template"
)

func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleRules:
		return StyleRules, nil
	case StyleTemplate:
		return StyleTemplate, nil
	default:
		return "", fmt.Errorf("responder: unknown style %q", s)
	}
}

// CapabilityLookup describes a model in one sentence for template replies.
type CapabilityLookup interface {
	Capability(model string) string
}

type Options struct {
	Math         bool
	Style        Style
	Elaborate    bool
	Capabilities CapabilityLookup
	// Pick selects a fallback paraphrase; defaults to math/rand.
	Pick func(n int) int
	Now  func() time.Time
}

// Exchange is one earlier user/assistant pair, oldest first when in a slice.
type Exchange struct {
	User      string
	Assistant string
}

type Reply struct {
	Content string
	// Rule names the stage that produced Content: context, math, template or a cascade rule.
	Rule string
}

type Responder struct {
	opts  Options
	rules []Rule
}

func New(opts Options) *Responder {
	if opts.Style == "" {
		opts.Style = StyleRules
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Responder{opts: opts, rules: DefaultRules(opts.Pick)}
}

// Reply composes the assistant text for the latest user message. history may be empty.
func (r *Responder) Reply(text, model string, history []Exchange) Reply {
	in := newInput(text, model, r.opts.Now())

	out, ok := r.body(in, history)
	if !ok {
		out = Reply{Rule: "fallback"}
	}
	if r.opts.Elaborate {
		out.Content += elaboration(in)
	}
	return out
}

func (r *Responder) body(in Input, history []Exchange) (Reply, bool) {
	if len(history) > 0 && hasAny(in.Lower, anaphoraCues) {
		return Reply{Content: resolveReference(in, history[len(history)-1]), Rule: "context"}, true
	}
	if r.opts.Math {
		if s, ok := EvalMath(in.Text); ok {
			return Reply{Content: s, Rule: "math"}, true
		}
	}
	if r.opts.Style == StyleTemplate {
		return Reply{Content: r.template(in), Rule: "template"}, true
	}
	name, content, ok := Match(r.rules, in)
	return Reply{Content: content, Rule: name}, ok
}

var (
	anaphoraCues  = []string{"this", "that", "刚才", "之前", "上面", "这个", "那个"}
	multiplyWords = []string{"multiply", "times", "乘", "*", "×"}
	addWords      = []string{"add", "plus", "加", "+"}
	numberToken   = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

func lastNumber(s string) (float64, bool) {
	all := numberToken.FindAllString(s, -1)
	if len(all) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(all[len(all)-1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// resolveReference handles "multiply this result by 2" style follow-ups. Only
// multiply and add on the previous answer's last number are understood.
func resolveReference(in Input, prev Exchange) string {
	if s, ok := applyToPrevious(in, prev); ok {
		return s
	}
	if in.Chinese {
		return fmt.Sprintf("关于您之前提到的内容（'%s'），我之前的回答是：%s", prev.User, prev.Assistant)
	}
	return fmt.Sprintf("Regarding what you said earlier ('%s'), my previous answer was: %s", prev.User, prev.Assistant)
}

func applyToPrevious(in Input, prev Exchange) (string, bool) {
	base, ok := lastNumber(prev.Assistant)
	if !ok {
		return "", false
	}
	var op string
	switch {
	case hasAny(in.Lower, multiplyWords):
		op = "*"
	case hasAny(in.Lower, addWords):
		op = "+"
	default:
		return "", false
	}
	operand, ok := lastNumber(in.Text)
	if !ok {
		return "", false
	}
	result := base * operand
	if op == "+" {
		result = base + operand
	}
	expr := fmt.Sprintf("%s %s %s = %s", formatNumber(base), op, formatNumber(operand), formatNumber(result))
	if in.Chinese {
		return fmt.Sprintf("上一个结果是 %s，所以 %s。", formatNumber(base), expr), true
	}
	return fmt.Sprintf("The previous result was %s, so %s.", formatNumber(base), expr), true
}

func elaboration(in Input) string {
	switch {
	case strings.ContainsAny(in.Text, "?？") || hasAny(in.Lower, []string{"什么", "如何", "为什么"}):
		if in.Chinese {
			return " 这是一个很好的问题，让我为您详细解答。"
		}
		return " That's a great question, let me explain in detail."
	case hasAny(in.Lower, []string{"code", "代码", "编程", "function"}):
		if in.Chinese {
			return " 我可以帮助您编写、调试或优化代码。"
		}
		return " I can help you write, debug or optimize code."
	case hasAny(in.Lower, []string{"hello", "你好"}):
		if in.Chinese {
			return " 很高兴为您服务！有什么我可以帮助您的吗？"
		}
		return " Glad to help! Is there anything I can do for you?"
	}
	return ""
}
