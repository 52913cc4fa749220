package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/mockai/internal/chat"
	"github.com/suPer8Hu/mockai/internal/common"
	"github.com/suPer8Hu/mockai/internal/httpapi/middleware"
	"github.com/suPer8Hu/mockai/internal/session"
)

type completionReq struct {
	Model    string         `json:"model"`
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
}

type choiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionChoice struct {
	Index        int           `json:"index"`
	Message      choiceMessage `json:"message"`
	Logprobs     any           `json:"logprobs"`
	FinishReason string        `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type completionResp struct {
	ID                string             `json:"id"`
	Object            string             `json:"object"`
	Created           int64              `json:"created"`
	Model             string             `json:"model"`
	SystemFingerprint string             `json:"system_fingerprint"`
	Choices           []completionChoice `json:"choices"`
	Usage             usage              `json:"usage"`
}

type chunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	Logprobs     any        `json:"logprobs"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkResp struct {
	ID                string        `json:"id"`
	Object            string        `json:"object"`
	Created           int64         `json:"created"`
	Model             string        `json:"model"`
	SystemFingerprint string        `json:"system_fingerprint"`
	Choices           []chunkChoice `json:"choices"`
}

func sessionKey(c *gin.Context) string {
	return session.DeriveKey(c.GetHeader("Authorization"), c.GetHeader("User-Agent"))
}

func (h *Handler) ChatCompletions(c *gin.Context) {
	var req completionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.InternalError(err))
		return
	}

	creq := chat.Request{
		Model:      req.Model,
		Messages:   req.Messages,
		Stream:     req.Stream,
		SessionKey: sessionKey(c),
		Client:     c.GetString(middleware.ClientKey),
	}

	if req.Stream {
		h.streamCompletion(c, creq)
		return
	}

	comp, err := h.ChatSvc.Complete(c.Request.Context(), creq)
	if err != nil {
		log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("completion failed")
		common.Fail(c, common.InternalError(err))
		return
	}

	c.JSON(http.StatusOK, completionResp{
		ID:                comp.ID,
		Object:            "chat.completion",
		Created:           comp.Created,
		Model:             comp.Model,
		SystemFingerprint: comp.SystemFingerprint,
		Choices: []completionChoice{{
			Index:        0,
			Message:      choiceMessage{Role: chat.RoleAssistant, Content: comp.Content},
			FinishReason: "stop",
		}},
		Usage: usage{
			PromptTokens:     comp.PromptTokens,
			CompletionTokens: comp.CompletionTokens,
			TotalTokens:      comp.TotalTokens(),
		},
	})
}

func (h *Handler) streamCompletion(c *gin.Context, creq chat.Request) {
	ctx := c.Request.Context()
	comp, words, err := h.ChatSvc.Stream(ctx, creq)
	if err != nil {
		log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("completion failed")
		common.Fail(c, common.InternalError(err))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		common.Fail(c, common.InternalError(fmt.Errorf("streaming unsupported")))
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	chunk := func(delta chunkDelta, finish *string) chunkResp {
		return chunkResp{
			ID:                comp.ID,
			Object:            "chat.completion.chunk",
			Created:           comp.Created,
			Model:             comp.Model,
			SystemFingerprint: comp.SystemFingerprint,
			Choices:           []chunkChoice{{Index: 0, Delta: delta, FinishReason: finish}},
		}
	}
	writeData := func(payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			// keep SSE framing intact
			fmt.Fprintf(c.Writer, "data: {\"error\":{\"message\":\"json marshal failed\"}}\n\n")
			flusher.Flush()
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	for {
		select {
		case w, ok := <-words:
			if !ok {
				stop := "stop"
				writeData(chunk(chunkDelta{}, &stop))
				fmt.Fprint(c.Writer, "data: [DONE]\n\n")
				flusher.Flush()
				return
			}
			writeData(chunk(chunkDelta{Content: w}, nil))

		case <-ctx.Done():
			return
		}
	}
}
