package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func seedTranscript(t *testing.T, repo *Repo, id, key string, created time.Time) {
	t.Helper()
	if err := repo.InsertTranscript(context.Background(), &Transcript{
		ID:            id,
		SessionKey:    key,
		Model:         "gpt-5",
		UserText:      "hi",
		AssistantText: "Hi there!",
		Rule:          "greeting",
		CreatedAt:     created,
	}); err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
}

func TestRepo_InsertIsIdempotent(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	now := time.Now()

	seedTranscript(t, repo, "01J00000000000000000000001", "k", now)
	seedTranscript(t, repo, "01J00000000000000000000001", "k", now)

	rows, err := repo.ListTranscripts(context.Background(), "k", 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected duplicate delivery to be ignored, got %d rows", len(rows))
	}
}

func TestRepo_ListTranscriptsPaging(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	now := time.Now()
	for i := 1; i <= 5; i++ {
		seedTranscript(t, repo, fmt.Sprintf("01J0000000000000000000000%d", i), "k", now)
	}
	seedTranscript(t, repo, "01J00000000000000000000009", "other", now)

	page, err := repo.ListTranscripts(context.Background(), "k", 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != "01J00000000000000000000005" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = repo.ListTranscripts(context.Background(), "k", 10, page[1].ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 3 || page[0].ID != "01J00000000000000000000003" {
		t.Fatalf("unexpected second page: %+v", page)
	}
}

func TestRepo_PurgeBefore(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	now := time.Now()
	seedTranscript(t, repo, "01J00000000000000000000001", "k", now.AddDate(0, 0, -40))
	seedTranscript(t, repo, "01J00000000000000000000002", "k", now.AddDate(0, 0, -31))
	seedTranscript(t, repo, "01J00000000000000000000003", "k", now.AddDate(0, 0, -1))

	n, err := repo.PurgeBefore(context.Background(), now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 purged, got %d", n)
	}
	if _, err := repo.GetTranscript(context.Background(), "01J00000000000000000000003"); err != nil {
		t.Fatalf("recent transcript should survive: %v", err)
	}
}

func TestDecodeJob(t *testing.T) {
	b, err := EncodeJob(ArchiveJob{Transcript: Transcript{ID: "x", SessionKey: "k"}, Attempt: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	j, err := DecodeJob(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if j.Attempt != 1 || !j.Retryable() {
		t.Fatalf("unexpected job %+v", j)
	}
	j.Attempt = MaxArchiveAttempts - 1
	if j.Retryable() {
		t.Fatalf("last attempt should not be retryable")
	}

	for _, raw := range []string{"not json", `{"transcript":{}}`} {
		if _, err := DecodeJob([]byte(raw)); !errors.Is(err, ErrBadJob) {
			t.Fatalf("%q: expected ErrBadJob, got %v", raw, err)
		}
	}
}

func TestMessage_UnmarshalContentParts(t *testing.T) {
	var m Message
	if err := m.UnmarshalJSON([]byte(`{"role":"user","content":[{"type":"text","text":"1+1"},{"type":"image_url"}]}`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Role != RoleUser || m.Content != "1+1" {
		t.Fatalf("unexpected message %+v", m)
	}
	if err := m.UnmarshalJSON([]byte(`{"role":"user","content":null}`)); err != nil || m.Content != "" {
		t.Fatalf("null content: %+v %v", m, err)
	}
	if err := m.UnmarshalJSON([]byte(`{"role":"user","content":42}`)); err == nil {
		t.Fatalf("expected error for numeric content")
	}
}
