package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"spendwise/internal/core"
)

type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
	chats []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		if !strings.HasPrefix(r.URL.Path, "/botgood-token/") {
			fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Spend","username":"spend_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.texts = append(f.texts, r.PostForm.Get("text"))
		f.chats = append(f.chats, r.PostForm.Get("chat_id"))
		id := 100 + len(f.texts)
		f.mu.Unlock()
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":-42,"type":"group"}}}`, id)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, token string) (*Client, *fakeBotAPI, error) {
	t.Helper()
	fake := &fakeBotAPI{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewWithEndpoint(token, -42, srv.URL+"/bot%s/%s", srv.Client())
	return c, fake, err
}

var (
	testUser = core.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	weekOf   = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
)

func TestNewWithEndpoint(t *testing.T) {
	c, _, err := newTestClient(t, "good-token")
	if err != nil {
		t.Fatalf("NewWithEndpoint: %v", err)
	}
	if c.BotName() != "spend_bot" {
		t.Errorf("bot name = %q", c.BotName())
	}

	if _, _, err := newTestClient(t, "bad-token"); err == nil {
		t.Error("expected getMe failure for a rejected token")
	}
	if _, err := NewWithEndpoint("", 1, "http://unused/bot%s/%s", http.DefaultClient); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := NewWithEndpoint("t", 0, "http://unused/bot%s/%s", http.DefaultClient); err == nil {
		t.Error("expected error for empty chat id")
	}
}

func TestClient_ExportDigestAndAlert(t *testing.T) {
	c, fake, err := newTestClient(t, "good-token")
	if err != nil {
		t.Fatalf("NewWithEndpoint: %v", err)
	}
	ctx := context.Background()

	ref, err := c.ExportDigest(ctx, testUser, core.WeeklyDigest{
		WeekStart:         weekOf,
		WeekEnd:           weekOf.AddDate(0, 0, 7),
		TotalSpent:        core.Money{Cents: 30000},
		CategoryBreakdown: map[string]core.Money{"Food": {Cents: 30000}},
		Message:           "You spent $300.00 this week.",
	})
	if err != nil {
		t.Fatalf("ExportDigest: %v", err)
	}
	if ref != "tg:101" {
		t.Errorf("digest ref = %q", ref)
	}

	ref, err = c.ExportAlert(ctx, testUser, core.BudgetAlert{
		Type:       core.AlertBudgetWarning,
		Message:    "You've used 90% of your monthly budget",
		Amount:     core.Money{Cents: 45000},
		Budget:     core.Money{Cents: 50000},
		Percentage: 90,
	})
	if err != nil {
		t.Fatalf("ExportAlert: %v", err)
	}
	if ref != "tg:102" {
		t.Errorf("alert ref = %q", ref)
	}

	if len(fake.texts) != 2 || fake.chats[0] != "-42" {
		t.Fatalf("sent = %v to %v", fake.texts, fake.chats)
	}
	if !strings.Contains(fake.texts[0], "Total: $300.00") || !strings.Contains(fake.texts[0], "Food: 300.00") {
		t.Errorf("digest text = %q", fake.texts[0])
	}
	if !strings.Contains(fake.texts[1], "$450.00 of $500.00 (90.0%)") {
		t.Errorf("alert text = %q", fake.texts[1])
	}
}

func TestClient_CanceledContext(t *testing.T) {
	c, fake, err := newTestClient(t, "good-token")
	if err != nil {
		t.Fatalf("NewWithEndpoint: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ExportAlert(ctx, testUser, core.BudgetAlert{}); err == nil {
		t.Error("expected context error")
	}
	if len(fake.texts) != 0 {
		t.Error("nothing should be sent after cancellation")
	}
}

func TestDigestText_NoBreakdown(t *testing.T) {
	got := DigestText(testUser, core.WeeklyDigest{
		WeekStart:  weekOf,
		WeekEnd:    weekOf.AddDate(0, 0, 7),
		TotalSpent: core.Money{Cents: 1230},
		Message:    "ok",
	})
	want := "Weekly digest for Ada (Mar 10 - Mar 17)\nTotal: $12.30\nok"
	if got != want {
		t.Errorf("DigestText = %q, want %q", got, want)
	}
}
