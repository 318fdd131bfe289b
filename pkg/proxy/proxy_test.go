package proxy

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/rpc-proxygen/pkg/jsonrpc"
	"github.com/blimu-dev/rpc-proxygen/pkg/tunnel"
)

// fakeTunnel records requests and lets tests complete them by hand.
type fakeTunnel struct {
	mu        sync.Mutex
	baseURL   string
	requests  []tunnel.Request
	callbacks []tunnel.Callback
	handlers  []func(tunnel.Notification)
	closed    int
}

func (f *fakeTunnel) Send(req tunnel.Request, cb tunnel.Callback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.callbacks = append(f.callbacks, cb)
}

func (f *fakeTunnel) OnNotification(fn func(tunnel.Notification)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
}

func (f *fakeTunnel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeTunnel) sent() []tunnel.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tunnel.Request(nil), f.requests...)
}

func (f *fakeTunnel) complete(i int, result json.RawMessage, err error) {
	f.mu.Lock()
	cb := f.callbacks[i]
	f.mu.Unlock()
	if cb != nil {
		cb(result, err)
	}
}

func (f *fakeTunnel) push(n tunnel.Notification) {
	f.mu.Lock()
	handlers := append([]func(tunnel.Notification){}, f.handlers...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(n)
	}
}

func newFakeProxy(t *testing.T) (*Proxy, *fakeTunnel) {
	t.Helper()
	ft := &fakeTunnel{}
	p, err := New("http://localhost:9000/api", WithTunnelFactory(func(baseURL string, _ tunnel.Options) (Tunnel, error) {
		ft.baseURL = baseURL
		return ft, nil
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, ft
}

func TestNew_InvalidArgument(t *testing.T) {
	created := 0
	factory := WithTunnelFactory(func(string, tunnel.Options) (Tunnel, error) {
		created++
		return &fakeTunnel{}, nil
	})
	for _, raw := range []string{"", "not a url", "/relative/path", "http://"} {
		_, err := New(raw, factory)
		assert.ErrorIs(t, err, ErrInvalidArgument, raw)
	}
	assert.Zero(t, created)
}

func TestNew_TunnelErrors(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	boom := errors.New("boom")
	_, err = New("http://example.com", WithTunnelFactory(func(string, tunnel.Options) (Tunnel, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestNew_CreatesOneTunnel(t *testing.T) {
	created := 0
	ft := &fakeTunnel{}
	p, err := New("https://render.example.com", WithTunnelFactory(func(baseURL string, opts tunnel.Options) (Tunnel, error) {
		created++
		assert.NotNil(t, opts.Logger)
		return ft, nil
	}))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 1, created)
	assert.Equal(t, tunnel.TransportHTTP, p.Transport())
	assert.Len(t, ft.handlers, 1)
}

func TestNew_DefaultTunnel(t *testing.T) {
	p, err := New("http://127.0.0.1:1")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestTransportSelection(t *testing.T) {
	p, ft := newFakeProxy(t)

	assert.Same(t, p, p.UseSocket())
	p.Call("a", 0, false)
	assert.Same(t, p, p.UseHTTP())
	p.Call("b", 0, false)
	p.UseSocket().UseHTTP().UseSocket()
	p.Call("c", 0, false)

	sent := ft.sent()
	require.Len(t, sent, 3)
	assert.Equal(t, tunnel.TransportSocket, sent[0].Transport)
	assert.Equal(t, tunnel.TransportHTTP, sent[1].Transport)
	assert.Equal(t, tunnel.TransportSocket, sent[2].Transport)
}

func TestCall_TruncatesAndCapturesCallback(t *testing.T) {
	p, ft := newFakeProxy(t)

	var got json.RawMessage
	p.Call("scene.load", 2, true, "a.vrscene", 1, "extra", func(result json.RawMessage, err error) {
		got = result
	})

	sent := ft.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "scene.load", sent[0].Method)
	assert.Equal(t, []any{"a.vrscene", 1}, sent[0].Params)
	assert.True(t, sent[0].ExpectReturn)

	ft.complete(0, json.RawMessage(`true`), nil)
	assert.Equal(t, json.RawMessage(`true`), got)
}

func TestCall_NeverSynthesizesArguments(t *testing.T) {
	p, ft := newFakeProxy(t)

	p.Call("scene.load", 3, false, "only")
	p.Call("scene.load", 3, false)

	sent := ft.sent()
	assert.Equal(t, []any{"only"}, sent[0].Params)
	assert.Empty(t, sent[1].Params)
	assert.False(t, sent[1].ExpectReturn)
}

func TestCall_CallbackOnlyArgument(t *testing.T) {
	p, ft := newFakeProxy(t)

	called := false
	p.Call("vray.start", 0, true, Callback(func(json.RawMessage, error) { called = true }))

	sent := ft.sent()
	assert.Empty(t, sent[0].Params)
	ft.complete(0, nil, nil)
	assert.True(t, called)
}

func TestCall_TypedCallbacks(t *testing.T) {
	p, ft := newFakeProxy(t)

	type progress struct {
		Frames int `json:"frames"`
	}
	var decoded progress
	var decodeErr error
	p.Call("status", 0, true, func(v progress, err error) {
		decoded, decodeErr = v, err
	})
	ft.complete(0, json.RawMessage(`{"frames":12}`), nil)
	require.NoError(t, decodeErr)
	assert.Equal(t, 12, decoded.Frames)

	var failure error
	p.Call("status", 0, true, func(err error) { failure = err })
	ft.complete(1, nil, &jsonrpc.Error{Code: jsonrpc.InternalError, Message: "boom"})
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, failure, &rpcErr)
	assert.Equal(t, jsonrpc.InternalError, rpcErr.Code)

	p.Call("status", 0, true, func(v progress, err error) { decodeErr = err })
	ft.complete(2, json.RawMessage(`"not an object"`), nil)
	assert.Error(t, decodeErr)

	// an unsupported signature still occupies the callback slot
	p.Call("status", 1, true, func(int) {})
	assert.Empty(t, ft.sent()[3].Params)
	ft.complete(3, json.RawMessage(`1`), nil)
}

func TestCall_ErrorsLeaveProxyUsable(t *testing.T) {
	p, ft := newFakeProxy(t)

	var errs []error
	cb := func(_ json.RawMessage, err error) { errs = append(errs, err) }
	p.Call("a", 0, true, cb)
	ft.complete(0, nil, tunnel.ErrConnectionLost)
	p.Call("a", 0, true, cb)
	ft.complete(1, json.RawMessage(`1`), nil)

	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], tunnel.ErrConnectionLost)
	assert.NoError(t, errs[1])
}

func TestClose_Idempotent(t *testing.T) {
	p, ft := newFakeProxy(t)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, ft.closed)
	<-p.Done()
}

func TestTesterScenario(t *testing.T) {
	mode := MustEnum("Mode", EnumMember{Label: "A", Value: 0}, EnumMember{Label: "B", Value: 1})
	v, ok := mode.Code("A")
	require.True(t, ok)
	assert.Equal(t, 0, v)
	l, ok := mode.Code(0)
	require.True(t, ok)
	assert.Equal(t, "A", l)

	tree := NewTree()
	require.NoError(t, tree.AddNamespace("vray"))
	require.NoError(t, tree.AddMethod("vray.start", 0, true))

	p, ft := newFakeProxy(t)
	p.Mount(tree)

	done := make(chan struct{})
	p.Namespace("vray").Method("start")(func(json.RawMessage, error) { close(done) })

	sent := ft.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, tunnel.Request{Method: "vray.start", Params: []any{}, ExpectReturn: true, Transport: tunnel.TransportHTTP}, sent[0])

	ft.complete(0, nil, nil)
	<-done
}

func TestCallProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("excess arguments are dropped and a trailing callback is always captured", prop.ForAll(
		func(paramCount, argCount int, withCallback bool) bool {
			ft := &fakeTunnel{}
			p, err := New("http://localhost", WithTunnelFactory(func(string, tunnel.Options) (Tunnel, error) { return ft, nil }))
			if err != nil {
				return false
			}
			defer p.Close()

			args := make([]any, 0, argCount+1)
			for i := 0; i < argCount; i++ {
				args = append(args, i)
			}
			if withCallback {
				args = append(args, func(json.RawMessage, error) {})
			}
			p.Call("m", paramCount, true, args...)

			sent := ft.sent()
			want := argCount
			if paramCount < want {
				want = paramCount
			}
			if len(sent) != 1 || len(sent[0].Params) != want {
				return false
			}
			for i, v := range sent[0].Params {
				if v != i {
					return false
				}
			}
			return (ft.callbacks[0] != nil) == withCallback
		},
		gen.IntRange(0, 5),
		gen.IntRange(0, 8),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
