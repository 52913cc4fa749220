package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/suPer8Hu/mockai/internal/responder"
	"github.com/suPer8Hu/mockai/internal/session"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Transcript{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, store session.Store, archiver Archiver) *Service {
	t.Helper()
	svc, err := NewService(Deps{
		Sessions:  store,
		Responder: responder.New(responder.Options{Math: true, Pick: func(int) int { return 0 }}),
		Archiver:  archiver,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func userMsg(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

type failingArchiver struct{ calls int }

func (a *failingArchiver) Archive(ctx context.Context, t *Transcript) error {
	a.calls++
	return errors.New("broker down")
}

func TestComplete_SessionContinuity(t *testing.T) {
	svc := newTestService(t, session.NewMemoryStore(10, time.Hour), nil)
	ctx := context.Background()
	key := session.DeriveKey("Bearer sk-test", "TestClient1")

	first, err := svc.Complete(ctx, Request{Messages: userMsg("100+50"), SessionKey: key})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if first.Content != "100+50 = 150" || first.Rule != "math" {
		t.Fatalf("unexpected first reply: %q (%s)", first.Content, first.Rule)
	}
	if first.Model != DefaultModel {
		t.Fatalf("expected default model, got %q", first.Model)
	}

	second, err := svc.Complete(ctx, Request{Messages: userMsg("multiply this result by 2"), SessionKey: key})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.Contains(second.Content, "150 * 2 = 300") {
		t.Fatalf("expected continuity, got %q", second.Content)
	}
	if second.Rule != "context" {
		t.Fatalf("expected context rule, got %q", second.Rule)
	}

	h, err := svc.History(ctx, key)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h) != 2 || h[0].UserText != "100+50" {
		t.Fatalf("unexpected history: %+v", h)
	}
}

func TestComplete_SessionIsolation(t *testing.T) {
	svc := newTestService(t, session.NewMemoryStore(10, time.Hour), nil)
	ctx := context.Background()
	a := session.DeriveKey("Bearer sk-test", "TestClient1")
	b := session.DeriveKey("Bearer sk-test", "TestClient2")

	if _, err := svc.Complete(ctx, Request{Messages: userMsg("Remember the number 888"), SessionKey: a}); err != nil {
		t.Fatalf("complete a: %v", err)
	}
	got, err := svc.Complete(ctx, Request{Messages: userMsg("What number did I just say?"), SessionKey: b})
	if err != nil {
		t.Fatalf("complete b: %v", err)
	}
	if strings.Contains(got.Content, "888") {
		t.Fatalf("session b leaked session a history: %q", got.Content)
	}

	hb, _ := svc.History(ctx, b)
	if len(hb) != 1 {
		t.Fatalf("expected one turn in session b, got %d", len(hb))
	}
}

func TestComplete_MemoryDisabled(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	if _, err := svc.Complete(ctx, Request{Messages: userMsg("100+50")}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := svc.Complete(ctx, Request{Messages: userMsg("multiply this result by 2")})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Rule == "context" {
		t.Fatalf("memory disabled but reply used context: %q", got.Content)
	}
	if svc.MemoryEnabled() {
		t.Fatalf("expected memory disabled")
	}
}

func TestComplete_UsageAndDefaults(t *testing.T) {
	svc := newTestService(t, nil, nil)

	msgs := []Message{
		{Role: RoleSystem, Content: "You are helpful"}, // 15 runes
		{Role: RoleUser, Content: "hello"},             // 5 runes
	}
	c, err := svc.Complete(context.Background(), Request{Model: "claude-4.1-opus", Messages: msgs})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.PromptTokens != 5 {
		t.Fatalf("prompt tokens: want 5, got %d", c.PromptTokens)
	}
	if c.CompletionTokens != CountTokens(c.Content) || c.TotalTokens() != c.PromptTokens+c.CompletionTokens {
		t.Fatalf("inconsistent usage: %+v", c)
	}
	if !strings.HasPrefix(c.ID, "chatcmpl-") || len(c.ID) != len("chatcmpl-")+16 {
		t.Fatalf("bad id %q", c.ID)
	}
	if !strings.HasPrefix(c.SystemFingerprint, "fp_") {
		t.Fatalf("bad fingerprint %q", c.SystemFingerprint)
	}

	c, err = svc.Complete(context.Background(), Request{Messages: nil})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.Rule != "greeting" {
		t.Fatalf("empty messages should be treated as Hello, got rule %q", c.Rule)
	}
}

func TestLastUserText(t *testing.T) {
	cases := []struct {
		name string
		msgs []Message
		want string
	}{
		{"none", nil, "Hello"},
		{"only system", []Message{{Role: RoleSystem, Content: "x"}}, "Hello"},
		{"last user wins", []Message{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}, {Role: RoleUser, Content: "c"}}, "c"},
		{"empty user", []Message{{Role: RoleUser, Content: "a"}, {Role: RoleUser, Content: ""}}, "Hello"},
	}
	for _, tc := range cases {
		if got := LastUserText(tc.msgs); got != tc.want {
			t.Errorf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestStream_ConcatenatesToContent(t *testing.T) {
	svc := newTestService(t, session.NewMemoryStore(10, time.Hour), nil)

	c, words, err := svc.Stream(context.Background(), Request{Messages: userMsg("who are you"), SessionKey: "k"})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	var b strings.Builder
	n := 0
	for w := range words {
		b.WriteString(w)
		n++
	}
	if b.String() != c.Content {
		t.Fatalf("stream != content:\n%q\n%q", b.String(), c.Content)
	}
	if n != len(strings.Split(c.Content, " ")) {
		t.Fatalf("expected one chunk per word, got %d", n)
	}
}

func TestStream_StopsOnCancel(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	_, words, err := svc.Stream(ctx, Request{Messages: userMsg("who are you")})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	<-words
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-words:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("stream did not stop after cancel")
		}
	}
}

func TestSplitWords(t *testing.T) {
	got := SplitWords("a b  c")
	want := []string{"a ", "b ", " ", "c"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("want %q, got %q", want, got)
	}
	if got := SplitWords("single"); len(got) != 1 || got[0] != "single" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestComplete_ArchivesToRepo(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	svc := newTestService(t, nil, repo)

	c, err := svc.Complete(context.Background(), Request{
		Model:      "gpt-4o",
		Messages:   userMsg("2*21"),
		SessionKey: "abc",
		Client:     "api-key",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	rows, err := repo.ListTranscripts(context.Background(), "abc", 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 transcript, got %d", len(rows))
	}
	got := rows[0]
	if got.AssistantText != c.Content || got.UserText != "2*21" || got.Rule != "math" || got.Model != "gpt-4o" {
		t.Fatalf("unexpected transcript: %+v", got)
	}
	if len(got.ID) != 26 {
		t.Fatalf("expected ULID id, got %q", got.ID)
	}
}

func TestComplete_ArchiveFailureIsNotFatal(t *testing.T) {
	a := &failingArchiver{}
	svc := newTestService(t, nil, a)

	c, err := svc.Complete(context.Background(), Request{Messages: userMsg("hello")})
	if err != nil {
		t.Fatalf("archive failure must not fail the request: %v", err)
	}
	if c.Content == "" || a.calls != 1 {
		t.Fatalf("unexpected result content=%q calls=%d", c.Content, a.calls)
	}
}
