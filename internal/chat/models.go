package chat

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the request's messages array.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON also accepts the array form of content
// ([{"type":"text","text":"..."}]) and joins its text parts.
func (m *Message) UnmarshalJSON(b []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Content = ""
	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		return nil
	}
	if raw.Content[0] == '"' {
		return json.Unmarshal(raw.Content, &m.Content)
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw.Content, &parts); err != nil {
		return err
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Type == "text" {
			texts = append(texts, p.Text)
		}
	}
	m.Content = strings.Join(texts, "\n")
	return nil
}

// Transcript is the archived record of one completion.
type Transcript struct {
	ID               string    `gorm:"primaryKey;size:26" json:"id"` // ULID
	SessionKey       string    `gorm:"type:varchar(32);index:idx_transcript_session_created,priority:1;not null" json:"session_key"`
	Client           string    `gorm:"type:varchar(64)" json:"client"`
	Model            string    `gorm:"type:varchar(64);not null" json:"model"`
	UserText         string    `gorm:"type:text;not null" json:"user_text"`
	AssistantText    string    `gorm:"type:text;not null" json:"assistant_text"`
	Rule             string    `gorm:"type:varchar(16);index" json:"rule"`
	Stream           bool      `json:"stream"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CreatedAt        time.Time `gorm:"index:idx_transcript_session_created,priority:2;index" json:"created_at"`
}

func (Transcript) TableName() string { return "transcripts" }
