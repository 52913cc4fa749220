package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/mockai/internal/common"
	"github.com/suPer8Hu/mockai/internal/responder"
	"github.com/suPer8Hu/mockai/internal/session"
	"github.com/suPer8Hu/mockai/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultModel = "gpt-5"
	defaultText  = "Hello"
)

// Archiver records finished completions. Implemented by Repo (direct write)
// and by the rabbitmq publisher (queued write).
type Archiver interface {
	Archive(ctx context.Context, t *Transcript) error
}

type Deps struct {
	// Sessions nil disables conversation memory.
	Sessions  session.Store
	Responder *responder.Responder
	Archiver  Archiver
	Telemetry *telemetry.Providers
	Now       func() time.Time
}

type Service struct {
	sessions  session.Store
	responder *responder.Responder
	archiver  Archiver
	now       func() time.Time

	tracer      trace.Tracer
	completions metric.Int64Counter
	tokens      metric.Int64Histogram
}

func NewService(d Deps) (*Service, error) {
	if d.Responder == nil {
		d.Responder = responder.New(responder.Options{Math: true})
	}
	if d.Telemetry == nil {
		d.Telemetry = telemetry.Noop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	completions, err := d.Telemetry.Meter.Int64Counter("mockai.completions",
		metric.WithDescription("completions served, by rule and model"))
	if err != nil {
		return nil, fmt.Errorf("chat: completions counter: %w", err)
	}
	tokens, err := d.Telemetry.Meter.Int64Histogram("mockai.completion.tokens",
		metric.WithDescription("completion tokens per reply"))
	if err != nil {
		return nil, fmt.Errorf("chat: tokens histogram: %w", err)
	}

	return &Service{
		sessions:    d.Sessions,
		responder:   d.Responder,
		archiver:    d.Archiver,
		now:         d.Now,
		tracer:      d.Telemetry.Tracer,
		completions: completions,
		tokens:      tokens,
	}, nil
}

type Request struct {
	Model    string
	Messages []Message
	Stream   bool
	// SessionKey groups requests into one conversation; see session.DeriveKey.
	SessionKey string
	Client     string
}

type Completion struct {
	ID                string
	Created           int64
	Model             string
	SystemFingerprint string
	Content           string
	Rule              string
	PromptTokens      int
	CompletionTokens  int
}

func (c *Completion) TotalTokens() int { return c.PromptTokens + c.CompletionTokens }

// Complete composes a reply for the last user message and records the turn.
func (s *Service) Complete(ctx context.Context, req Request) (*Completion, error) {
	ctx, span := s.tracer.Start(ctx, "chat.Complete")
	defer span.End()

	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	text := LastUserText(req.Messages)
	span.SetAttributes(
		attribute.String("mockai.model", model),
		attribute.Bool("mockai.stream", req.Stream),
		attribute.Bool("mockai.memory", s.sessions != nil),
	)

	history, err := s.loadHistory(ctx, req.SessionKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	reply := s.responder.Reply(text, model, history)
	now := s.now()

	if s.sessions != nil {
		turn := session.Turn{UserText: text, AssistantText: reply.Content, Timestamp: now}
		if err := s.sessions.Append(ctx, req.SessionKey, turn); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("chat: append turn: %w", err)
		}
	}

	id, err := common.CompletionID()
	if err != nil {
		return nil, fmt.Errorf("chat: completion id: %w", err)
	}
	fp, err := common.RandomString(8)
	if err != nil {
		return nil, fmt.Errorf("chat: fingerprint: %w", err)
	}

	c := &Completion{
		ID:                id,
		Created:           now.Unix(),
		Model:             model,
		SystemFingerprint: "fp_" + fp,
		Content:           reply.Content,
		Rule:              reply.Rule,
		PromptTokens:      PromptTokens(req.Messages),
		CompletionTokens:  CountTokens(reply.Content),
	}

	span.SetAttributes(attribute.String("mockai.rule", c.Rule))
	attrs := metric.WithAttributes(
		attribute.String("rule", c.Rule),
		attribute.String("model", model),
	)
	s.completions.Add(ctx, 1, attrs)
	s.tokens.Record(ctx, int64(c.CompletionTokens), attrs)

	s.archive(ctx, req, text, c)
	return c, nil
}

// Stream composes the reply like Complete, then yields it word by word on the
// returned channel. The channel is closed after the last word or when ctx ends.
func (s *Service) Stream(ctx context.Context, req Request) (*Completion, <-chan string, error) {
	req.Stream = true
	c, err := s.Complete(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	words := SplitWords(c.Content)
	out := make(chan string)
	go func() {
		defer close(out)
		for _, w := range words {
			select {
			case out <- w:
			case <-ctx.Done():
				return
			}
		}
	}()
	return c, out, nil
}

// History returns the caller's remembered turns, oldest first.
func (s *Service) History(ctx context.Context, sessionKey string) ([]session.Turn, error) {
	if s.sessions == nil {
		return nil, nil
	}
	return s.sessions.History(ctx, sessionKey)
}

func (s *Service) MemoryEnabled() bool { return s.sessions != nil }

func (s *Service) loadHistory(ctx context.Context, key string) ([]responder.Exchange, error) {
	if s.sessions == nil {
		return nil, nil
	}
	// touch first so the sweep never removes the session serving this request
	if err := s.sessions.Touch(ctx, key); err != nil {
		return nil, fmt.Errorf("chat: touch session: %w", err)
	}
	removed, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: sweep sessions: %w", err)
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("expired sessions swept")
	}

	turns, err := s.sessions.History(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("chat: session history: %w", err)
	}
	out := make([]responder.Exchange, len(turns))
	for i, t := range turns {
		out[i] = responder.Exchange{User: t.UserText, Assistant: t.AssistantText}
	}
	return out, nil
}

// archive is best effort; failures are logged and never fail the request.
func (s *Service) archive(ctx context.Context, req Request, text string, c *Completion) {
	if s.archiver == nil {
		return
	}
	id, err := common.NewULID()
	if err != nil {
		log.Warn().Err(err).Msg("transcript id")
		return
	}
	t := &Transcript{
		ID:               id,
		SessionKey:       req.SessionKey,
		Client:           req.Client,
		Model:            c.Model,
		UserText:         text,
		AssistantText:    c.Content,
		Rule:             c.Rule,
		Stream:           req.Stream,
		PromptTokens:     c.PromptTokens,
		CompletionTokens: c.CompletionTokens,
		CreatedAt:        time.Unix(c.Created, 0).UTC(),
	}
	if err := s.archiver.Archive(context.WithoutCancel(ctx), t); err != nil {
		log.Warn().Err(err).
			Str("completion_id", c.ID).
			Str("session_key", req.SessionKey).
			Msg("archive transcript failed")
	}
}

// LastUserText returns the content of the last user message, or "Hello" when
// there is none.
func LastUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			if msgs[i].Content == "" {
				break
			}
			return msgs[i].Content
		}
	}
	return defaultText
}

// CountTokens approximates tokens as a quarter of the character count.
func CountTokens(s string) int {
	return utf8.RuneCountInString(s) / 4
}

func PromptTokens(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		n += utf8.RuneCountInString(m.Content)
	}
	return n / 4
}

// SplitWords cuts s on single spaces, keeping the separator on every word but
// the last, so the pieces concatenate back to s.
func SplitWords(s string) []string {
	parts := strings.Split(s, " ")
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += " "
	}
	return parts
}
