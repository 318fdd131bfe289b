package tunnel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/blimu-dev/rpc-proxygen/pkg/jsonrpc"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 16 * 1024 * 1024
)

// socketConn is one WebSocket connection and the calls awaiting replies on it.
type socketConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]Callback
	dead    bool
}

// socketLoop writes queued calls one at a time so dispatch order over the
// socket follows call order.
func (t *Tunnel) socketLoop() {
	defer close(t.socketDone)
	for {
		c, ok := t.socketQueue.Pop()
		if !ok {
			return
		}
		if t.closed.Load() {
			t.complete(c.cb, nil, ErrClosed)
			continue
		}
		t.sendSocket(c.id, c.req, c.cb)
	}
}

// sendSocket writes req over the persistent connection, dialling it first if
// needed. Replies are matched to cb by id on the read loop.
func (t *Tunnel) sendSocket(id uint64, req Request, cb Callback) {
	sock, err := t.socketConn()
	if err != nil {
		t.complete(cb, nil, err)
		return
	}

	msg, err := jsonrpc.NewRequest(req.Method, req.Params, id)
	if err != nil {
		t.complete(cb, nil, err)
		return
	}
	data, err := jsonrpc.Serialize(msg)
	if err != nil {
		t.complete(cb, nil, fmt.Errorf("failed to encode request: %w", err))
		return
	}

	if req.ExpectReturn && !sock.await(id, cb) {
		t.complete(cb, nil, ErrConnectionLost)
		return
	}

	sock.writeMu.Lock()
	_ = sock.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = sock.conn.WriteMessage(websocket.TextMessage, data)
	sock.writeMu.Unlock()

	if err != nil {
		t.logger.Debug("socket write failed", zap.Uint64("id", id), zap.String("method", req.Method), zap.Error(err))
		if req.ExpectReturn {
			sock.take(id)
		}
		t.complete(cb, nil, fmt.Errorf("socket write: %w", err))
		t.dropSocket(sock, fmt.Errorf("%w: %v", ErrConnectionLost, err))
		return
	}
	if !req.ExpectReturn {
		t.complete(cb, nil, nil)
	}
}

// socketConn returns the live connection, dialling a new one when there is none.
func (t *Tunnel) socketConn() (*socketConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return nil, ErrClosed
	}
	if t.socket != nil {
		return t.socket, nil
	}

	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: t.opts.Timeout,
		TLSClientConfig:  t.opts.TLS,
	}
	header := make(http.Header)
	t.setHeaders(header)
	conn, _, err := dialer.DialContext(t.ctx, t.socketURL, header)
	if err != nil {
		return nil, fmt.Errorf("socket dial: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	sock := &socketConn{conn: conn, pending: make(map[uint64]Callback)}
	t.socket = sock
	t.logger.Debug("socket connected", zap.String("url", t.socketURL))
	go t.readLoop(sock)
	return sock, nil
}

// readLoop resolves replies and forwards events until the connection fails.
func (t *Tunnel) readLoop(sock *socketConn) {
	for {
		_, data, err := sock.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !t.closed.Load() {
				t.logger.Warn("socket read failed", zap.Error(err))
			}
			t.dropSocket(sock, fmt.Errorf("%w: %v", ErrConnectionLost, err))
			return
		}

		frame, err := jsonrpc.ParseFrame(data)
		if err != nil {
			t.logger.Debug("dropping malformed frame", zap.Error(err))
			continue
		}
		switch frame.Type() {
		case jsonrpc.TypeEvent:
			t.notify(Notification{Name: frame.Event.Name, Data: frame.Event.Data})
		case jsonrpc.TypeResponse:
			id, err := frame.Message.IntID()
			if err != nil {
				t.logger.Debug("dropping response", zap.Error(err))
				continue
			}
			cb, ok := sock.take(id)
			if !ok {
				continue
			}
			if frame.Message.Error != nil {
				t.complete(cb, nil, frame.Message.Error)
			} else {
				t.complete(cb, nullToNil(frame.Message.Result), nil)
			}
		default:
			t.logger.Debug("ignoring frame", zap.Stringer("type", frame.Type()))
		}
	}
}

// dropSocket forgets sock and fails everything still waiting on it.
func (t *Tunnel) dropSocket(sock *socketConn, reason error) {
	t.mu.Lock()
	if t.socket == sock {
		t.socket = nil
	}
	t.mu.Unlock()

	if t.closed.Load() {
		reason = ErrClosed
	}
	for _, cb := range sock.close(reason) {
		t.complete(cb, nil, reason)
	}
}

func (s *socketConn) await(id uint64, cb Callback) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return false
	}
	s.pending[id] = cb
	return true
}

func (s *socketConn) take(id uint64) (Callback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.pending[id]
	delete(s.pending, id)
	return cb, ok
}

// close shuts the connection and returns the callbacks still pending, in no
// particular order. Later calls return nothing.
func (s *socketConn) close(reason error) []Callback {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return nil
	}
	s.dead = true
	pending := make([]Callback, 0, len(s.pending))
	for id, cb := range s.pending {
		pending = append(pending, cb)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason.Error()))
	s.writeMu.Unlock()
	_ = s.conn.Close()
	return pending
}

func nullToNil(raw json.RawMessage) json.RawMessage {
	if string(raw) == "null" {
		return nil
	}
	return raw
}
