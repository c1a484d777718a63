package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"soulcare/internal/storage"
)

type fakeVerifier struct{ accept string }

func (f *fakeVerifier) Verify(ctx context.Context, password string) bool {
	_ = ctx
	return password == f.accept
}

type fakeSessions struct {
	tokens map[string]bool
}

func (f *fakeSessions) Create(ctx context.Context) (string, error) {
	_ = ctx
	if f.tokens == nil {
		f.tokens = map[string]bool{}
	}
	f.tokens["tok-1"] = true
	return "tok-1", nil
}

func (f *fakeSessions) Valid(ctx context.Context, token string) (bool, error) {
	_ = ctx
	return f.tokens[token], nil
}

func (f *fakeSessions) Delete(ctx context.Context, token string) error {
	_ = ctx
	delete(f.tokens, token)
	return nil
}

type fakeLimiter struct{ deny bool }

func (f *fakeLimiter) Allow(ctx context.Context, session string, now time.Time) (bool, int64, time.Time, error) {
	_ = ctx
	_ = session
	return !f.deny, 1, now.Add(time.Hour), nil
}

type fakeCore struct {
	list    []storage.Conversation
	deleted []string
}

func (f *fakeCore) List(ctx context.Context) []storage.Conversation {
	_ = ctx
	return append([]storage.Conversation{}, f.list...)
}

func (f *fakeCore) Delete(ctx context.Context, id string) {
	_ = ctx
	f.deleted = append(f.deleted, id)
}

func (f *fakeCore) Lookup(ctx context.Context, id string) (storage.Conversation, bool) {
	_ = ctx
	for _, c := range f.list {
		if c.ID == id {
			return c, true
		}
	}
	return storage.Conversation{}, false
}

func (f *fakeCore) Turn(ctx context.Context, conv storage.Conversation, text string, useSearch bool) storage.Conversation {
	_ = ctx
	_ = useSearch
	if conv.ID == "" {
		conv.ID = "new-conv"
	}
	conv.Messages = append(conv.Messages,
		storage.Message{Role: storage.RoleUser, Content: text},
		storage.Message{Role: storage.RoleModel, Content: "reply"},
	)
	return conv
}

func newTestServer(core *fakeCore, limiter Limiter) (*httptest.Server, *fakeSessions) {
	sessions := &fakeSessions{tokens: map[string]bool{"valid": true}}
	s := New(Config{
		Verifier:      &fakeVerifier{accept: "letmein"},
		Sessions:      sessions,
		Limiter:       limiter,
		Conversations: core,
		Turns:         core,
		Logger:        zerolog.Nop(),
	})
	return httptest.NewServer(s.Router()), sessions
}

func doRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(&fakeCore{}, nil)
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/login", "", `{"password":"letmein"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Token == "" {
		t.Fatalf("expected a session token")
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/login", "", `{"password":"wrong"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", resp.StatusCode)
	}
}

func TestAuthenticatedRoutesRejectMissingSession(t *testing.T) {
	srv, _ := newTestServer(&fakeCore{}, nil)
	defer srv.Close()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/conversations"},
		{http.MethodPost, "/api/chat"},
		{http.MethodPost, "/api/logout"},
	} {
		resp := doRequest(t, tc.method, srv.URL+tc.path, "", "{}")
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestListAndDeleteConversations(t *testing.T) {
	core := &fakeCore{list: []storage.Conversation{{ID: "c1", Title: "t"}}}
	srv, _ := newTestServer(core, nil)
	defer srv.Close()

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/conversations", "valid", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list []storage.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ID != "c1" {
		t.Fatalf("unexpected list %+v", list)
	}

	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/conversations/c1", "valid", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if len(core.deleted) != 1 || core.deleted[0] != "c1" {
		t.Fatalf("expected delete to reach the repository, got %+v", core.deleted)
	}
}

func TestChatTurn(t *testing.T) {
	core := &fakeCore{}
	srv, _ := newTestServer(core, &fakeLimiter{})
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/chat", "valid", `{"message":"hello"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var conv storage.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if conv.ID != "new-conv" || len(conv.Messages) != 2 {
		t.Fatalf("unexpected conversation %+v", conv)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv, _ := newTestServer(&fakeCore{}, nil)
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/chat", "valid", `{"message":"  "}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestChatRateLimited(t *testing.T) {
	srv, _ := newTestServer(&fakeCore{}, &fakeLimiter{deny: true})
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/chat", "valid", `{"message":"hello"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv, sessions := newTestServer(&fakeCore{}, nil)
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/logout", "valid", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if sessions.tokens["valid"] {
		t.Fatalf("expected session marker cleared on logout")
	}
}
