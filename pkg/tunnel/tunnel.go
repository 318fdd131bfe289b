// Package tunnel carries proxy calls to the service. It owns request ids,
// connection management and event delivery for the two transports a proxy
// can select: "http" (one POST per call) and "socket" (a persistent
// WebSocket that also carries server-pushed events).
package tunnel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blimu-dev/rpc-proxygen/internal/fifo"
)

// Transport names accepted in Request.Transport.
const (
	TransportHTTP   = "http"
	TransportSocket = "socket"
)

// SessionHeader carries the tunnel's session id on every HTTP request and on
// the socket handshake so the service can correlate calls from one proxy.
const SessionHeader = "X-Proxygen-Session"

// DefaultTimeout bounds a single HTTP call and the socket handshake.
const DefaultTimeout = 30 * time.Second

var (
	// ErrClosed is delivered to callbacks of calls made after, or pending at, Close.
	ErrClosed = errors.New("tunnel: closed")
	// ErrInvalidURL is returned by New for an unusable base URL.
	ErrInvalidURL = errors.New("tunnel: invalid base url")
	// ErrUnknownTransport is delivered for a Request naming no known transport.
	ErrUnknownTransport = errors.New("tunnel: unknown transport")
	// ErrConnectionLost is delivered to socket calls pending when the connection drops.
	ErrConnectionLost = errors.New("tunnel: connection lost")
)

// Callback receives the raw result of a call, or the error that ended it.
type Callback func(result json.RawMessage, err error)

// Request is one call handed to the tunnel.
type Request struct {
	Method       string
	Params       []any
	ExpectReturn bool
	Transport    string
}

// Notification is a server-pushed event.
type Notification struct {
	Name string
	Data json.RawMessage
}

// Options configure a Tunnel.
type Options struct {
	// TLS is used for https and wss endpoints
	TLS *tls.Config
	// Timeout bounds each HTTP call and the socket handshake (default 30s)
	Timeout time.Duration
	// Header is added to every HTTP request and the socket handshake
	Header http.Header
	// HTTPClient overrides the client built from TLS and Timeout
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Tunnel multiplexes calls from one proxy over HTTP and WebSocket.
type Tunnel struct {
	httpURL   string
	socketURL string
	session   string
	opts      Options
	logger    *zap.Logger
	client    *http.Client

	ctx    context.Context
	cancel context.CancelFunc

	nextID      atomic.Uint64
	closed      atomic.Bool
	httpQueue   *fifo.Queue[call]
	socketQueue *fifo.Queue[call]
	completions *fifo.Queue[func()]
	httpDone    chan struct{}
	socketDone  chan struct{}

	mu       sync.Mutex
	socket   *socketConn
	handlers []func(Notification)
}

// New validates baseURL and starts the tunnel's dispatcher goroutines. The
// socket connection is dialled lazily on the first socket call.
func New(baseURL string, opts Options) (*Tunnel, error) {
	httpURL, socketURL, err := endpoints(baseURL)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   opts.Timeout,
			Transport: &http.Transport{TLSClientConfig: opts.TLS, Proxy: http.ProxyFromEnvironment},
		}
	}

	session := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tunnel{
		httpURL:     httpURL,
		socketURL:   socketURL,
		session:     session,
		opts:        opts,
		logger:      logger.With(zap.String("session", session)),
		client:      client,
		ctx:         ctx,
		cancel:      cancel,
		httpQueue:   fifo.New[call](),
		socketQueue: fifo.New[call](),
		completions: fifo.New[func()](),
		httpDone:    make(chan struct{}),
		socketDone:  make(chan struct{}),
	}
	go t.httpLoop()
	go t.socketLoop()
	go t.completionLoop()
	return t, nil
}

// endpoints derives the HTTP and WebSocket URLs from a base URL of any of
// the four schemes.
func endpoints(baseURL string) (string, string, error) {
	if baseURL == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("%w: %q has no host", ErrInvalidURL, baseURL)
	}

	httpU, socketU := *u, *u
	switch u.Scheme {
	case "http", "ws":
		httpU.Scheme, socketU.Scheme = "http", "ws"
	case "https", "wss":
		httpU.Scheme, socketU.Scheme = "https", "wss"
	default:
		return "", "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	return httpU.String(), socketU.String(), nil
}

// Session returns the id sent in SessionHeader.
func (t *Tunnel) Session() string {
	return t.session
}

// setHeaders copies the configured headers into h and stamps the session id.
func (t *Tunnel) setHeaders(h http.Header) {
	for k, vs := range t.opts.Header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	h.Set(SessionHeader, t.session)
}

// OnNotification registers fn for every inbound event. fn runs on the socket
// read loop and must hand work off rather than block.
func (t *Tunnel) OnNotification(fn func(Notification)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, fn)
}

// Send queues req on its transport's dispatcher. Every outcome, including
// send failures, reaches cb asynchronously; Send never blocks on the network.
func (t *Tunnel) Send(req Request, cb Callback) {
	if t.closed.Load() {
		t.complete(cb, nil, ErrClosed)
		return
	}
	id := t.nextID.Add(1)
	t.logger.Debug("rpc call",
		zap.Uint64("id", id),
		zap.String("method", req.Method),
		zap.String("transport", req.Transport),
		zap.Bool("expectReturn", req.ExpectReturn),
	)

	var queue *fifo.Queue[call]
	switch req.Transport {
	case TransportHTTP:
		queue = t.httpQueue
	case TransportSocket:
		queue = t.socketQueue
	default:
		t.complete(cb, nil, fmt.Errorf("%w: %q", ErrUnknownTransport, req.Transport))
		return
	}
	if !queue.Push(call{id: id, req: req, cb: cb}) {
		t.complete(cb, nil, ErrClosed)
	}
}

// call is one queued request with its tunnel-assigned id.
type call struct {
	id  uint64
	req Request
	cb  Callback
}

// complete queues cb for the completion goroutine so slow callbacks never
// stall the HTTP dispatcher or the socket read loop.
func (t *Tunnel) complete(cb Callback, result json.RawMessage, err error) {
	if cb == nil {
		if err != nil {
			t.logger.Debug("rpc call failed without callback", zap.Error(err))
		}
		return
	}
	if !t.completions.Push(func() { cb(result, err) }) {
		go cb(result, err)
	}
}

func (t *Tunnel) completionLoop() {
	for {
		fn, ok := t.completions.Pop()
		if !ok {
			return
		}
		fn()
	}
}

func (t *Tunnel) notify(n Notification) {
	t.mu.Lock()
	handlers := append([]func(Notification){}, t.handlers...)
	t.mu.Unlock()
	for _, fn := range handlers {
		fn(n)
	}
}

// Close releases the socket and stops the dispatchers. Pending calls complete
// with ErrClosed. Calling Close more than once is a no-op.
func (t *Tunnel) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.cancel()
	t.httpQueue.Close()
	t.socketQueue.Close()
	<-t.httpDone
	<-t.socketDone

	t.mu.Lock()
	sock := t.socket
	t.mu.Unlock()
	if sock != nil {
		t.dropSocket(sock, ErrClosed)
	}

	t.completions.Close()
	t.logger.Debug("tunnel closed")
	return nil
}
