package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/roach88/combomirror/internal/engine"
	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/store"
)

// ReloadFunc republishes the upstream's content, typically by recompiling
// definitions and calling Server.Publish.
type ReloadFunc func(ctx context.Context) error

// Server publishes the tables of a store.Store to WebSocket clients.
//
// Writes go through Publish and Delete, which persist first and then
// broadcast. Writes and subscriptions are serialized, so every peer sees
// changes in seq order and never misses a change between its snapshot and
// the next broadcast.
type Server struct {
	store    *store.Store
	reload   ReloadFunc
	sessions engine.SessionGenerator
	upgrader websocket.Upgrader
	logger   *slog.Logger

	publishMu sync.Mutex // serializes writes, subscriptions and broadcasts

	mu    sync.Mutex
	peers map[*peer]struct{}
}

type peer struct {
	session string
	conn    *websocket.Conn
	writeMu sync.Mutex
	tables  map[string]bool // guarded by Server.publishMu
}

func (p *peer) write(f Frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(f)
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithReload sets the function run for reload frames.
func WithReload(fn ReloadFunc) ServerOption {
	return func(s *Server) {
		s.reload = fn
	}
}

// WithSessions sets the session id generator. Default: engine.UUIDv7Generator.
func WithSessions(g engine.SessionGenerator) ServerOption {
	return func(s *Server) {
		s.sessions = g
	}
}

// WithServerLogger sets the logger. Default: slog.Default().
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithCheckOrigin overrides the upgrader's origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// NewServer creates a server over st.
func NewServer(st *store.Store, opts ...ServerOption) *Server {
	s := &Server{
		store:    st,
		sessions: engine.UUIDv7Generator{},
		logger:   slog.Default(),
		peers:    make(map[*peer]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish stores value under (table, key) and broadcasts the change. An
// unchanged value is neither logged nor broadcast.
func (s *Server) Publish(ctx context.Context, table, key string, value ir.IRValue) (store.Change, error) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	ch, changed, err := s.store.Put(ctx, table, key, value)
	if err != nil {
		return store.Change{}, err
	}
	if !changed {
		s.logger.Debug("publish skipped, value unchanged", "table", table, "key", key, "seq", ch.Seq)
		return ch, nil
	}
	s.broadcast(ch)
	return ch, nil
}

// Delete removes (table, key) and broadcasts a null change.
func (s *Server) Delete(ctx context.Context, table, key string) (store.Change, error) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	ch, changed, err := s.store.Delete(ctx, table, key)
	if err != nil {
		return store.Change{}, err
	}
	if changed {
		s.broadcast(ch)
	}
	return ch, nil
}

// Reload runs the configured ReloadFunc.
func (s *Server) Reload(ctx context.Context) error {
	if s.reload == nil {
		return errors.New("reload not configured")
	}
	return s.reload(ctx)
}

// Peers returns the number of connected clients.
func (s *Server) Peers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.peers {
		p.conn.Close()
	}
}

// ServeHTTP upgrades the request and serves one client until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	p := &peer{session: s.sessions.Generate(), conn: conn, tables: make(map[string]bool)}
	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.peers, p)
		s.mu.Unlock()
		conn.Close()
		s.logger.Info("client disconnected", "session", p.session)
	}()

	s.logger.Info("client connected", "session", p.session, "remote", r.RemoteAddr)
	if err := p.write(Frame{Type: FrameHello, Session: p.session}); err != nil {
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := s.handleMessage(r.Context(), p, message); err != nil {
			s.logger.Warn("dropping frame", "session", p.session, "error", err)
		}
	}
}

// handleMessage processes one client frame.
func (s *Server) handleMessage(ctx context.Context, p *peer, data []byte) error {
	f, err := decodeFrame(data)
	if err != nil {
		return err
	}

	switch f.Type {
	case FrameSubscribe:
		if err := requireTable(f); err != nil {
			return err
		}
		return s.subscribe(ctx, p, f.Table)

	case FrameReload:
		s.logger.Info("reload requested", "session", p.session)
		if err := s.Reload(ctx); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		return nil

	default:
		return unknownFrame(f)
	}
}

// subscribe sends the table snapshot and registers p for later changes.
// Repeated subscriptions resend the snapshot.
func (s *Server) subscribe(ctx context.Context, p *peer, table string) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	entries, err := s.store.Snapshot(ctx, table)
	if err != nil {
		return err
	}
	f, err := snapshotFrame(table, entries)
	if err != nil {
		return err
	}
	p.tables[table] = true
	s.logger.Debug("client subscribed", "session", p.session, "table", table, "entries", len(entries))
	return p.write(f)
}

// broadcast sends ch to every peer subscribed to its table. Called with
// publishMu held.
func (s *Server) broadcast(ch store.Change) {
	f, err := changeFrame(ch.Table, ch.Key, ch.Value, ch.Seq)
	if err != nil {
		s.logger.Error("encode change failed", "table", ch.Table, "key", ch.Key, "error", err)
		return
	}

	s.mu.Lock()
	var targets []*peer
	for p := range s.peers {
		if p.tables[ch.Table] {
			targets = append(targets, p)
		}
	}
	s.mu.Unlock()

	for _, p := range targets {
		if err := p.write(f); err != nil {
			s.logger.Warn("broadcast failed", "session", p.session, "error", err)
			p.conn.Close()
		}
	}
}
