package responder

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCapabilities map[string]string

func (s staticCapabilities) Capability(model string) string { return s[model] }

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func newTestResponder(opts Options) *Responder {
	if opts.Pick == nil {
		opts.Pick = func(int) int { return 0 }
	}
	opts.Now = fixedNow
	return New(opts)
}

func TestReply_CascadeOrder(t *testing.T) {
	r := newTestResponder(Options{Math: true})

	cases := []struct {
		text string
		rule string
	}{
		{"1+1", "math"},
		{"Hello there", "greeting"},
		{"你好", "greeting"},
		{"who are you", "self"},
		{"你是谁", "self"},
		{"show me python", "code"},
		{"现在几点", "time"},
		{"weather today", "weather"},
		{"翻译一下", "translate"},
		{"how does gravity work", "question"},
		{"为什么天空是蓝色", "question"},
		{"tell me a story", "fallback"},
	}
	for _, tc := range cases {
		got := r.Reply(tc.text, "gpt-5", nil)
		assert.Equal(t, tc.rule, got.Rule, "text %q", tc.text)
		assert.NotEmpty(t, got.Content, "text %q", tc.text)
	}
}

func TestReply_GreetingCaseInsensitive(t *testing.T) {
	r := newTestResponder(Options{})
	got := r.Reply("HELLO THERE", "gpt-5", nil)
	assert.Equal(t, "Hello! How can I assist you today?", got.Content)
}

func TestReply_MathDisabledFallsThrough(t *testing.T) {
	r := newTestResponder(Options{Math: false})
	got := r.Reply("1+1", "gpt-5", nil)
	assert.NotEqual(t, "math", got.Rule)
}

func TestReply_CodeSnippets(t *testing.T) {
	r := newTestResponder(Options{})

	assert.Contains(t, r.Reply("javascript please", "m", nil).Content, "console.log")
	assert.Contains(t, r.Reply("java please", "m", nil).Content, "System.out.println")
	assert.Contains(t, r.Reply("python please", "m", nil).Content, "def hello_world")
	assert.Contains(t, r.Reply("write some code", "m", nil).Content, "Tell me which language")
}

func TestReply_TimeFormat(t *testing.T) {
	r := newTestResponder(Options{})
	assert.Equal(t, "Current time: 2025-03-14 09:26:53", r.Reply("what time is it", "m", nil).Content)
	assert.Equal(t, "当前时间：2025-03-14 09:26:53", r.Reply("现在几点", "m", nil).Content)
}

func TestReply_QuestionFlavourByModel(t *testing.T) {
	r := newTestResponder(Options{})

	claude := r.Reply("why is the sky blue?", "claude-4-opus", nil).Content
	gpt := r.Reply("why is the sky blue?", "gpt-4o", nil).Content
	other := r.Reply("why is the sky blue?", "gemini-2.5-pro", nil).Content

	assert.Contains(t, claude, "great question")
	assert.Contains(t, gpt, "Here is my answer")
	assert.Contains(t, other, "About your question")
	for _, s := range []string{claude, gpt, other} {
		assert.Contains(t, s, "why is the sky blue?")
	}
}

func TestReply_FallbackUsesPicker(t *testing.T) {
	r := newTestResponder(Options{Pick: func(n int) int { return n - 1 }})
	got := r.Reply("bananas", "m", nil)
	assert.Equal(t, "fallback", got.Rule)
	assert.True(t, strings.HasPrefix(got.Content, "You mentioned 'bananas'"))
}

func TestReply_ContextMultiply(t *testing.T) {
	r := newTestResponder(Options{Math: true})
	history := []Exchange{{User: "100+50", Assistant: "100+50 = 150"}}

	got := r.Reply("multiply this result by 2", "gpt-5", history)
	assert.Equal(t, "context", got.Rule)
	assert.Contains(t, got.Content, "150 * 2 = 300")
}

func TestReply_ContextAddChinese(t *testing.T) {
	r := newTestResponder(Options{Math: true})
	history := []Exchange{{User: "100+50等于多少？", Assistant: "100+50 = 150"}}

	got := r.Reply("这个结果再加10是多少？", "gpt-5", history)
	assert.Contains(t, got.Content, "150 + 10 = 160")
}

func TestReply_ContextWithoutNumber(t *testing.T) {
	r := newTestResponder(Options{Math: true})
	history := []Exchange{{User: "hello", Assistant: "Hello! How can I assist you today?"}}

	got := r.Reply("multiply that by 3", "gpt-5", history)
	assert.Equal(t, "context", got.Rule)
	assert.True(t, strings.HasPrefix(got.Content, "Regarding what you said earlier ('hello')"))
}

func TestReply_ContextNeedsHistory(t *testing.T) {
	r := newTestResponder(Options{Math: true})
	got := r.Reply("multiply this result by 2", "gpt-5", nil)
	assert.NotEqual(t, "context", got.Rule)
	assert.NotContains(t, got.Content, "300")
}

func TestReply_TemplateStyle(t *testing.T) {
	caps := staticCapabilities{"gpt-5-codex": "GPT-5 tuned for programming"}
	r := newTestResponder(Options{Math: true, Style: StyleTemplate, Capabilities: caps})

	got := r.Reply("refactor my parser", "gpt-5-codex", nil)
	assert.Equal(t, "template", got.Rule)
	assert.True(t, strings.HasPrefix(got.Content, "[gpt-5-codex] GPT-5 tuned for programming. "))
	assert.Contains(t, got.Content, "refactor my parser")

	got = r.Reply("anything", "mystery-model", nil)
	assert.True(t, strings.HasPrefix(got.Content, "[mystery-model] mystery-model advanced AI capabilities. "))

	// math still wins over the template body
	assert.Equal(t, "2+2 = 4", r.Reply("2+2", "gpt-5", nil).Content)
}

func TestReply_Elaboration(t *testing.T) {
	r := newTestResponder(Options{Elaborate: true})

	assert.True(t, strings.HasSuffix(r.Reply("what is love?", "gpt-5", nil).Content, "let me explain in detail."))
	assert.True(t, strings.HasSuffix(r.Reply("write code", "gpt-5", nil).Content, "optimize code."))
	assert.True(t, strings.HasSuffix(r.Reply("hello", "gpt-5", nil).Content, "anything I can do for you?"))
	assert.Equal(t, "I understand what you need: 'bananas'. Let me help you with that.\n\nIf you have a more specific question, describe it in detail and I can give you a more precise answer.",
		r.Reply("bananas", "gpt-5", nil).Content)
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleRules, s)

	s, err = ParseStyle(" Template ")
	require.NoError(t, err)
	assert.Equal(t, StyleTemplate, s)

	_, err = ParseStyle("poetry")
	assert.Error(t, err)
}
