// Package proxy is the runtime behind generated Go proxies. A Proxy owns one
// tunnel, a tree of bound method stubs, and per-event listener bookkeeping
// that drives rpc.on / rpc.off subscription calls.
package proxy

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blimu-dev/rpc-proxygen/internal/fifo"
	"github.com/blimu-dev/rpc-proxygen/pkg/tunnel"
)

// ErrInvalidArgument is returned by New for a missing or unusable base URL.
var ErrInvalidArgument = errors.New("proxy: invalid argument")

// controlTransport carries rpc.on / rpc.off whatever the default transport is.
const controlTransport = tunnel.TransportSocket

// Callback receives the outcome of one call.
type Callback = tunnel.Callback

// Tunnel is the transport collaborator a Proxy drives.
type Tunnel interface {
	Send(req tunnel.Request, cb tunnel.Callback)
	OnNotification(fn func(tunnel.Notification))
	Close() error
}

// TunnelFactory builds the single tunnel a Proxy uses.
type TunnelFactory func(baseURL string, opts tunnel.Options) (Tunnel, error)

type options struct {
	tunnel  tunnel.Options
	factory TunnelFactory
}

// Option configures New.
type Option func(*options)

// WithTLS sets the TLS configuration for https and wss endpoints.
func WithTLS(cfg *tls.Config) Option {
	return func(o *options) { o.tunnel.TLS = cfg }
}

// WithTimeout bounds each HTTP call and the socket handshake.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.tunnel.Timeout = d }
}

// WithHeader adds headers to every HTTP request and the socket handshake.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.tunnel.Header = h.Clone() }
}

// WithLogger sets the logger shared by the proxy and its tunnel.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.tunnel.Logger = l }
}

// WithTunnelFactory replaces the default tunnel.
func WithTunnelFactory(f TunnelFactory) Option {
	return func(o *options) { o.factory = f }
}

func defaultTunnelFactory(baseURL string, opts tunnel.Options) (Tunnel, error) {
	return tunnel.New(baseURL, opts)
}

// Proxy is a client for one service instance.
type Proxy struct {
	tunnel Tunnel
	logger *zap.Logger

	mu           sync.Mutex
	transport    string
	closed       bool
	listeners    map[string][]listener
	nextListener ListenerID
	root         *NamespaceNode

	events       *fifo.Queue[tunnel.Notification]
	dispatchDone chan struct{}
}

// New creates a proxy bound to baseURL. It fails with ErrInvalidArgument
// when baseURL is empty or not an absolute URL, and creates exactly one tunnel.
func New(baseURL string, opts ...Option) (*Proxy, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidArgument)
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", ErrInvalidArgument, baseURL)
	}

	o := options{factory: defaultTunnelFactory}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.tunnel.Logger
	if logger == nil {
		logger = zap.NewNop()
		o.tunnel.Logger = logger
	}

	t, err := o.factory(baseURL, o.tunnel)
	if err != nil {
		if errors.Is(err, tunnel.ErrInvalidURL) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return nil, err
	}

	p := &Proxy{
		tunnel:       t,
		logger:       logger,
		transport:    tunnel.TransportHTTP,
		listeners:    make(map[string][]listener),
		root:         newNamespace(""),
		events:       fifo.New[tunnel.Notification](),
		dispatchDone: make(chan struct{}),
	}
	t.OnNotification(p.enqueue)
	go p.dispatchLoop()
	return p, nil
}

// UseHTTP makes the request/response channel the default transport.
func (p *Proxy) UseHTTP() *Proxy {
	return p.setTransport(tunnel.TransportHTTP)
}

// UseSocket makes the persistent channel the default transport.
func (p *Proxy) UseSocket() *Proxy {
	return p.setTransport(tunnel.TransportSocket)
}

func (p *Proxy) setTransport(name string) *Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transport = name
	return p
}

// Transport returns the current default transport.
func (p *Proxy) Transport() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transport
}

// Call is the body of every method stub. A trailing callable argument is
// taken as the completion callback; the remaining arguments are truncated to
// paramCount and never padded.
func (p *Proxy) Call(method string, paramCount int, expectReturn bool, args ...any) {
	var cb Callback
	if n := len(args); n > 0 {
		if fn, ok := p.asCallback(args[n-1]); ok {
			cb = fn
			args = args[:n-1]
		}
	}
	if paramCount < 0 {
		paramCount = 0
	}
	if len(args) > paramCount {
		args = args[:paramCount]
	}
	params := make([]any, len(args))
	copy(params, args)

	p.tunnel.Send(tunnel.Request{
		Method:       method,
		Params:       params,
		ExpectReturn: expectReturn,
		Transport:    p.Transport(),
	}, cb)
}

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	rawType   = reflect.TypeOf(json.RawMessage(nil))
)

// asCallback recognises a trailing callable. Besides Callback it accepts
// func(error) and func(T, error), decoding the result into T. Any other
// function is still consumed as the callback slot but never invoked.
func (p *Proxy) asCallback(v any) (Callback, bool) {
	switch fn := v.(type) {
	case nil:
		return nil, false
	case Callback:
		return fn, true
	case func(json.RawMessage, error):
		return fn, true
	case func(error):
		return func(_ json.RawMessage, err error) { fn(err) }, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return nil, false
	}
	ft := rv.Type()
	if ft.NumIn() != 2 || ft.NumOut() != 0 || ft.In(1) != errorType || ft.IsVariadic() {
		p.logger.Warn("unsupported callback signature, result will be dropped", zap.Stringer("type", ft))
		return func(json.RawMessage, error) {}, true
	}
	resultType := ft.In(0)
	return func(raw json.RawMessage, err error) {
		out := reflect.New(resultType)
		if err == nil && len(raw) > 0 && resultType != rawType {
			if uerr := json.Unmarshal(raw, out.Interface()); uerr != nil {
				err = fmt.Errorf("proxy: decode result into %s: %w", resultType, uerr)
			}
		} else if resultType == rawType {
			out.Elem().Set(reflect.ValueOf(raw))
		}
		errValue := reflect.Zero(errorType)
		if err != nil {
			errValue = reflect.ValueOf(&err).Elem()
		}
		rv.Call([]reflect.Value{out.Elem(), errValue})
	}, true
}

// Close releases the tunnel and stops event dispatch. Only the first call
// has any effect.
func (p *Proxy) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.tunnel.Close()
	p.events.Close()
	return err
}

// Done is closed once the event dispatcher has drained after Close.
func (p *Proxy) Done() <-chan struct{} {
	return p.dispatchDone
}
