package wire

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combomirror/internal/engine"
	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/store"
	"github.com/roach88/combomirror/internal/testutil"
)

const waitFor = 2 * time.Second

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, string) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "upstream.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := NewServer(st, opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

// runClient runs c until the test ends.
func runClient(t *testing.T, c *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Error("client did not stop")
		}
	})
	require.Eventually(t, func() bool { return c.Session() != "" }, waitFor, 5*time.Millisecond)
}

// recorder collects notifications; safe across goroutines.
type recorder struct {
	mu    sync.Mutex
	notes []string
}

func (r *recorder) notify(table, key string, value ir.IRValue) {
	data, _ := ir.MarshalCanonical(value)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, table+"/"+key+"="+string(data))
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notes...)
}

func (r *recorder) waitLen(t *testing.T, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.get()) >= n }, waitFor, 5*time.Millisecond)
	return r.get()
}

func TestClientReceivesSnapshotThenChanges(t *testing.T) {
	srv, url := newTestServer(t, WithSessions(engine.NewFixedGenerator("session-1")))
	ctx := context.Background()

	_, err := srv.Publish(ctx, "static", "heroes", ir.IRString("invoker"))
	require.NoError(t, err)

	c := NewClient(url)
	rec := &recorder{}
	c.Subscribe("static", rec.notify)
	runClient(t, c)
	assert.Equal(t, "session-1", c.Session())

	assert.Equal(t, []string{`static/heroes="invoker"`}, rec.waitLen(t, 1))
	assert.Equal(t, ir.IRString("invoker"), c.Get("static", "heroes"))

	_, err = srv.Publish(ctx, "static", "combos", ir.IRObject{"1": ir.IRInt(7)})
	require.NoError(t, err)
	_, err = srv.Publish(ctx, "dynamic", "combos", ir.IRInt(1))
	require.NoError(t, err)
	_, err = srv.Delete(ctx, "static", "heroes")
	require.NoError(t, err)

	notes := rec.waitLen(t, 3)
	assert.Equal(t, []string{
		`static/heroes="invoker"`,
		`static/combos={"1":7}`,
		`static/heroes=null`,
	}, notes)

	done := make(chan struct{})
	c.Do(func() { close(done) })
	<-done
	assert.Nil(t, c.Get("static", "heroes"))
	assert.Equal(t, ir.IRObject{"1": ir.IRInt(7)}, c.Get("static", "combos"))
	assert.Nil(t, c.Get("dynamic", "combos"), "unsubscribed tables are not replicated")
	assert.Equal(t, int64(4), c.LastSeq())
}

func TestClientSubscribeAfterConnect(t *testing.T) {
	srv, url := newTestServer(t, WithSessions(testutil.NewFixedSessionGenerator("")))
	ctx := context.Background()
	_, err := srv.Publish(ctx, "dynamic", "state", ir.IRBool(true))
	require.NoError(t, err)

	c := NewClient(url)
	runClient(t, c)
	assert.Equal(t, "test-session", c.Session())

	rec := &recorder{}
	c.Subscribe("dynamic", rec.notify)
	assert.Equal(t, []string{"dynamic/state=true"}, rec.waitLen(t, 1))
}

func TestUnchangedPublishIsNotBroadcast(t *testing.T) {
	srv, url := newTestServer(t)
	ctx := context.Background()
	_, err := srv.Publish(ctx, "static", "ready", ir.IRBool(true))
	require.NoError(t, err)

	c := NewClient(url)
	rec := &recorder{}
	c.Subscribe("static", rec.notify)
	runClient(t, c)
	rec.waitLen(t, 1)

	for i := 0; i < 3; i++ {
		_, err := srv.Publish(ctx, "static", "combos", ir.IRInt(1))
		require.NoError(t, err)
	}
	_, err = srv.Publish(ctx, "static", "combos", ir.IRInt(2))
	require.NoError(t, err)

	notes := rec.waitLen(t, 3)
	assert.Equal(t, []string{"static/ready=true", "static/combos=1", "static/combos=2"}, notes)
}

func TestReloadFrameRunsReloadFunc(t *testing.T) {
	var srv *Server
	reloads := 0
	srv, url := newTestServer(t, WithReload(func(ctx context.Context) error {
		reloads++
		_, err := srv.Publish(ctx, "static", "combos", ir.IRInt(int64(reloads)))
		return err
	}))

	c := NewClient(url)
	rec := &recorder{}
	c.Subscribe("static", rec.notify)
	runClient(t, c)

	c.SendReloadRequest()
	assert.Equal(t, []string{"static/combos=1"}, rec.waitLen(t, 1))
}

func TestReloadWithoutFunc(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Error(t, srv.Reload(context.Background()))
}

func TestSendReloadWhileDisconnected(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1")
	assert.NotPanics(t, c.SendReloadRequest)
}

func TestRunDialFailure(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1")
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

func TestServerDropsBadFrames(t *testing.T) {
	srv, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Frame
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, FrameHello, hello.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(Frame{Type: "bogus"}))
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameSubscribe}))
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameSubscribe, Table: "static"}))

	var snap Frame
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, FrameSnapshot, snap.Type)
	assert.Equal(t, "static", snap.Table)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, 1, srv.Peers())
}

func TestClientHandleMessage(t *testing.T) {
	c := NewClient("ws://unused")

	tests := []struct {
		name string
		data string
		code ProtocolErrorCode
	}{
		{"malformed", `{`, ErrCodeMalformedFrame},
		{"no type", `{"table":"static"}`, ErrCodeMissingField},
		{"unknown", `{"type":"subscribe","table":"static"}`, ErrCodeUnknownFrame},
		{"change without table", `{"type":"change","key":"k","value":1}`, ErrCodeMissingField},
		{"float value", `{"type":"change","table":"static","key":"k","value":1.5}`, ErrCodeBadValue},
		{"float in snapshot", `{"type":"snapshot","table":"static","entries":{"k":2.5}}`, ErrCodeBadValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.handleMessage([]byte(tt.data))
			var pe *ProtocolError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.code, pe.Code)
		})
	}

	require.NoError(t, c.handleMessage([]byte(`{"type":"hello","session":"abc"}`)))
	assert.Equal(t, "abc", c.Session())
	assert.Equal(t, 0, c.loop.Pending())

	require.NoError(t, c.handleMessage([]byte(`{"type":"change","table":"static","key":"k","value":null,"seq":3}`)))
	assert.Equal(t, 1, c.loop.Pending())
}

func TestApplySnapshotDeletesMissingKeys(t *testing.T) {
	c := NewClient("ws://unused")
	rec := &recorder{}
	c.Subscribe("static", rec.notify)
	c.Subscribe("dynamic", func(string, string, ir.IRValue) { t.Error("other table notified") })
	ctx := context.Background()

	require.NoError(t, c.apply(ctx, engine.Event{Type: engine.EventTypeSnapshot, Table: "static",
		Entries: map[string]ir.IRValue{"a": ir.IRInt(1), "b": ir.IRInt(2)}}))
	require.NoError(t, c.apply(ctx, engine.Event{Type: engine.EventTypeSnapshot, Table: "static",
		Entries: map[string]ir.IRValue{"b": ir.IRInt(3)}}))

	assert.Equal(t, []string{
		"static/a=1", "static/b=2",
		"static/a=null", "static/b=3",
	}, rec.get())
	assert.Nil(t, c.Get("static", "a"))
}

func TestProtocolErrorMessage(t *testing.T) {
	err := &ProtocolError{Code: ErrCodeUnknownFrame, Frame: "bogus", Message: "unexpected frame type"}
	assert.Equal(t, "UNKNOWN_FRAME: unexpected frame type (frame=bogus)", err.Error())
}
