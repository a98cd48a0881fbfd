package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

type fakeProvider struct {
	name     string
	err      error
	subjects []string
	messages []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Send(_ context.Context, subject, message string) error {
	f.subjects = append(f.subjects, subject)
	f.messages = append(f.messages, message)
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifySuccessReachesAllProviders(t *testing.T) {
	first := &fakeProvider{name: "first"}
	second := &fakeProvider{name: "second", err: errors.New("down")}
	mgr := NewManager(discardLogger(), first, second)

	mgr.NotifySuccess(context.Background(), domain.SuccessNotification{
		Filename:   "receipt.jpg",
		Excerpt:    "Total 12.50",
		OutputName: "[receipts]_grocery-run.txt",
		Tags:       []string{"receipts"},
		Source:     "local",
	})

	for _, p := range []*fakeProvider{first, second} {
		if len(p.messages) != 1 {
			t.Fatalf("provider %s got %d messages, want 1", p.name, len(p.messages))
		}
	}
	if !strings.Contains(first.messages[0], "[receipts]_grocery-run.txt") {
		t.Errorf("message missing output name: %q", first.messages[0])
	}
	if !strings.Contains(first.messages[0], "Tags: receipts") {
		t.Errorf("message missing tags: %q", first.messages[0])
	}
}

func TestNotifyErrorIncludesMessage(t *testing.T) {
	p := &fakeProvider{name: "only"}
	mgr := NewManager(discardLogger(), p)

	mgr.NotifyError(context.Background(), domain.ErrorNotification{
		Filename: "scan.png",
		Message:  "extraction timed out",
	})

	if len(p.messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(p.messages))
	}
	if !strings.Contains(p.messages[0], "extraction timed out") {
		t.Errorf("message missing error detail: %q", p.messages[0])
	}
	if !strings.Contains(p.subjects[0], "failed scan.png") {
		t.Errorf("unexpected subject %q", p.subjects[0])
	}
}

func TestTelegramSendPostsChatMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tg := NewTelegram("secret-token", "42")
	tg.baseURL = server.URL

	if err := tg.Send(context.Background(), "OCRBox: processed a.jpg", "done"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/botsecret-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["chat_id"] != "42" {
		t.Errorf("chat_id = %q", gotBody["chat_id"])
	}
	if !strings.Contains(gotBody["text"], "processed a.jpg") {
		t.Errorf("text = %q", gotBody["text"])
	}
}

func TestTelegramSendSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"description":"bot was blocked"}`))
	}))
	defer server.Close()

	tg := NewTelegram("token", "42")
	tg.baseURL = server.URL

	err := tg.Send(context.Background(), "subject", "body")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "bot was blocked") {
		t.Errorf("error missing API detail: %v", err)
	}
}
