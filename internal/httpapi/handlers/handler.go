package handlers

import (
	"context"

	"github.com/suPer8Hu/mockai/internal/catalog"
	"github.com/suPer8Hu/mockai/internal/chat"
)

// TranscriptLister is satisfied by chat.Repo when an archive database is
// configured.
type TranscriptLister interface {
	ListTranscripts(ctx context.Context, sessionKey string, limit int, beforeID string) ([]chat.Transcript, error)
}

type Handler struct {
	ChatSvc     *chat.Service
	Catalog     *catalog.Catalog
	Transcripts TranscriptLister

	KeyConfigured bool
	Style         string
	Version       string
}

func NewHandler(svc *chat.Service, cat *catalog.Catalog) *Handler {
	return &Handler{ChatSvc: svc, Catalog: cat, Style: "rules", Version: "dev"}
}
