package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/roach88/combomirror/internal/engine"
	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/mirror"
)

// Client is a mirror.Host backed by a WebSocket connection to an upstream
// Server.
//
// Frames are read on a network goroutine and enqueued on an engine.Loop; the
// replica is updated and subscribers are notified only from the goroutine
// running Run. Subscribe, Get and SendReloadRequest are safe from any
// goroutine.
type Client struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *slog.Logger
	loop   *engine.Loop

	// upstream tracks the highest change seq applied.
	upstream *engine.Clock

	mu      sync.Mutex
	replica map[string]map[string]ir.IRValue
	tables  []string // subscription order
	subs    []clientSub
	conn    *websocket.Conn
	session string

	writeMu sync.Mutex
}

type clientSub struct {
	table  string
	handle mirror.Handle
	fn     mirror.NotifyFunc
}

var _ mirror.Host = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger. Default: slog.Default().
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHeader sets extra headers sent with the upgrade request.
func WithHeader(h http.Header) ClientOption {
	return func(c *Client) {
		c.header = h
	}
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = d
	}
}

// NewClient creates a client for the upstream at url (ws:// or wss://).
// Nothing is dialed until Run.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:      url,
		dialer:   websocket.DefaultDialer,
		logger:   slog.Default(),
		upstream: engine.NewClock(),
		replica:  make(map[string]map[string]ir.IRValue),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.loop = engine.New(c.apply, engine.WithLogger(c.logger))
	return c
}

// Subscribe implements mirror.Host. The first subscription to a table sends
// a subscribe frame; the upstream answers with a snapshot.
func (c *Client) Subscribe(table string, fn mirror.NotifyFunc) mirror.Handle {
	c.mu.Lock()
	handle := mirror.Handle(fmt.Sprintf("ws-%d", len(c.subs)+1))
	c.subs = append(c.subs, clientSub{table: table, handle: handle, fn: fn})
	first := !slices.Contains(c.tables, table)
	if first {
		c.tables = append(c.tables, table)
	}
	conn := c.conn
	c.mu.Unlock()

	if first && conn != nil {
		if err := c.write(conn, Frame{Type: FrameSubscribe, Table: table}); err != nil {
			c.logger.Warn("subscribe failed", "table", table, "error", err)
		}
	}
	return handle
}

// Get implements mirror.Host. It returns nil for keys the replica lacks.
func (c *Client) Get(table, key string) ir.IRValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replica[table][key]
}

// SendReloadRequest implements mirror.Host. The request is dropped with a
// warning while disconnected.
func (c *Client) SendReloadRequest() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		c.logger.Warn("reload requested while disconnected")
		return
	}
	if err := c.write(conn, Frame{Type: FrameReload}); err != nil {
		c.logger.Warn("reload request failed", "error", err)
	}
}

// Session returns the id the upstream assigned, or "" before the hello frame.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// LastSeq returns the highest upstream change seq applied to the replica.
func (c *Client) LastSeq() int64 {
	return c.upstream.Current()
}

// Do runs fn on the dispatch goroutine, after every frame received so far.
// Returns false once the client has stopped.
func (c *Client) Do(fn func()) bool {
	return c.loop.Do(fn)
}

// Run dials the upstream, subscribes every table registered so far and
// dispatches frames until ctx is cancelled or the connection drops.
//
// Run returns nil when ctx is cancelled and the read error otherwise. A
// Client runs once; create a new Client to reconnect.
func (c *Client) Run(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	tables := slices.Clone(c.tables)
	c.mu.Unlock()

	c.logger.Info("connected to upstream", "url", c.url)

	for _, table := range tables {
		if err := c.write(conn, Frame{Type: FrameSubscribe, Table: table}); err != nil {
			conn.Close()
			return fmt.Errorf("subscribe %s: %w", table, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.listen(conn)
		c.loop.Stop()
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	loopErr := c.loop.Run(ctx)
	conn.Close()
	err = <-readErr

	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()

	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		return loopErr
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// listen reads frames until the connection fails.
func (c *Client) listen(conn *websocket.Conn) error {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if err := c.handleMessage(message); err != nil {
			c.logger.Warn("dropping frame", "error", err)
		}
	}
}

// handleMessage decodes one frame and enqueues its effect.
func (c *Client) handleMessage(data []byte) error {
	f, err := decodeFrame(data)
	if err != nil {
		return err
	}

	switch f.Type {
	case FrameHello:
		c.mu.Lock()
		c.session = f.Session
		c.mu.Unlock()
		c.logger.Debug("upstream session", "session", f.Session)
		return nil

	case FrameSnapshot:
		if err := requireTable(f); err != nil {
			return err
		}
		entries := make(map[string]ir.IRValue, len(f.Entries))
		for k, raw := range f.Entries {
			v, err := decodeValue(f, raw)
			if err != nil {
				return err
			}
			entries[k] = v
		}
		c.loop.Enqueue(engine.Event{Type: engine.EventTypeSnapshot, Table: f.Table, Entries: entries})
		return nil

	case FrameChange:
		if err := requireTable(f); err != nil {
			return err
		}
		v, err := decodeValue(f, f.Value)
		if err != nil {
			return err
		}
		c.loop.Enqueue(engine.Event{Type: engine.EventTypeChange, Table: f.Table, Key: f.Key, Value: v, Seq: f.Seq})
		return nil

	default:
		return unknownFrame(f)
	}
}

// apply is the loop handler. It mutates the replica and then notifies
// subscribers of the table in subscription order.
func (c *Client) apply(_ context.Context, ev engine.Event) error {
	type notification struct {
		key   string
		value ir.IRValue
	}
	var notes []notification

	c.mu.Lock()
	switch ev.Type {
	case engine.EventTypeSnapshot:
		old := c.replica[ev.Table]
		c.replica[ev.Table] = ev.Entries
		keys := make([]string, 0, len(ev.Entries)+len(old))
		for k := range ev.Entries {
			keys = append(keys, k)
		}
		for k := range old {
			if _, ok := ev.Entries[k]; !ok {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			v, ok := ev.Entries[k]
			if !ok {
				v = ir.IRNull{}
			}
			notes = append(notes, notification{key: k, value: v})
		}

	case engine.EventTypeChange:
		t, ok := c.replica[ev.Table]
		if !ok {
			t = make(map[string]ir.IRValue)
			c.replica[ev.Table] = t
		}
		if ir.IsNull(ev.Value) {
			delete(t, ev.Key)
		} else {
			t[ev.Key] = ev.Value
		}
		c.upstream.Advance(ev.Seq)
		notes = append(notes, notification{key: ev.Key, value: ev.Value})
	}
	var subs []clientSub
	for _, s := range c.subs {
		if s.table == ev.Table {
			subs = append(subs, s)
		}
	}
	c.mu.Unlock()

	for _, n := range notes {
		for _, s := range subs {
			s.fn(ev.Table, n.key, n.value)
		}
	}
	return nil
}

func (c *Client) write(conn *websocket.Conn, f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(f)
}
