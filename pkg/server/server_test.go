package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lanternhq/lantern/pkg/core"
)

// stubSource is a channel-backed source for tests.
type stubSource struct {
	id    string
	name  string
	lines chan core.LogLine
}

func newStub(id string) *stubSource {
	return &stubSource{id: id, name: id, lines: make(chan core.LogLine, 16)}
}

func (s *stubSource) ID() string   { return s.id }
func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Tail(ctx context.Context) (<-chan core.LogLine, error) {
	out := make(chan core.LogLine, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case l, ok := <-s.lines:
				if !ok {
					return
				}
				out <- l
			}
		}
	}()
	return out, nil
}

func (s *stubSource) push(line string) {
	s.lines <- core.LogLine{SourceID: s.id, Line: line}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, srcs ...*stubSource) (*Server, *httptest.Server) {
	t.Helper()
	s := New("ignored", "hunter2", testLogger())
	for i, src := range srcs {
		s.AddSource(src, i == 0)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func wsURL(ts *httptest.Server, path, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path + "?" + query
}

func TestSourcesRequiresToken(t *testing.T) {
	_, ts := newTestServer(t, newStub("app"))

	resp, err := http.Get(ts.URL + "/api/sources")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/sources?token=wrong")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
}

func TestSourcesList(t *testing.T) {
	_, ts := newTestServer(t, newStub("app"), newStub("db"))

	resp, err := http.Get(ts.URL + "/api/sources?token=hunter2")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got []core.Source
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "app" || got[1].ID != "db" {
		t.Errorf("unexpected sources: %+v", got)
	}
}

func TestStreamDefaultSource(t *testing.T) {
	app := newStub("app")
	_, ts := newTestServer(t, app)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/stream", "token=hunter2&interval=25"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	app.push("hello from app")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello from app") {
		t.Errorf("unexpected frame: %q", data)
	}
}

func TestStreamNamedSourceAndBatching(t *testing.T) {
	app := newStub("app")
	db := newStub("db")
	_, ts := newTestServer(t, app, db)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/stream/db", "token=hunter2&interval=100"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Both lines land inside one 100ms tick and should share a frame.
	db.push("first")
	db.push("second")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	frame := string(data)
	if !strings.Contains(frame, "first") || !strings.Contains(frame, "second") {
		t.Errorf("expected batched frame with both lines, got %q", frame)
	}
}

func TestStreamUnknownSource(t *testing.T) {
	_, ts := newTestServer(t, newStub("app"))

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/stream/ghost", "token=hunter2"), nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown source")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %+v", resp)
	}
	if resp != nil {
		resp.Body.Close()
	}
}

func TestStreamRejectsBadToken(t *testing.T) {
	_, ts := newTestServer(t, newStub("app"))

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/stream", "token=nope"), nil)
	if err == nil {
		t.Fatal("expected dial to fail with bad token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %+v", resp)
	}
	if resp != nil {
		resp.Body.Close()
	}
}

func TestClampInterval(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", defaultInterval},
		{"abc", defaultInterval},
		{"-5", defaultInterval},
		{"1", minInterval},
		{"250", 250 * time.Millisecond},
		{"999999", maxInterval},
	}
	for _, tt := range tests {
		if got := clampInterval(tt.raw); got != tt.want {
			t.Errorf("clampInterval(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
