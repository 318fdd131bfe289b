package proxy

import (
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/blimu-dev/rpc-proxygen/pkg/jsonrpc"
	"github.com/blimu-dev/rpc-proxygen/pkg/tunnel"
)

// ListenerID identifies one registration so it can be removed later.
type ListenerID uint64

// Listener receives the data of one event.
type Listener func(data json.RawMessage)

type listener struct {
	id ListenerID
	fn Listener
}

// On is AddListener.
func (p *Proxy) On(name string, fn Listener) ListenerID {
	return p.AddListener(name, fn)
}

// AddListener registers fn for name. The first listener for a name sends
// rpc.on over the socket whatever the default transport is.
func (p *Proxy) AddListener(name string, fn Listener) ListenerID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextListener++
	id := p.nextListener
	p.listeners[name] = append(p.listeners[name], listener{id: id, fn: fn})
	if len(p.listeners[name]) == 1 {
		p.control(jsonrpc.MethodSubscribe, name)
	}
	return id
}

// RemoveListener unregisters id. Removing the last listener for a name sends
// rpc.off. It reports whether id was registered under name.
func (p *Proxy) RemoveListener(name string, id ListenerID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.listeners[name]
	for i, l := range list {
		if l.id != id {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if len(list) == 0 {
			delete(p.listeners, name)
			p.control(jsonrpc.MethodUnsubscribe, name)
		} else {
			p.listeners[name] = list
		}
		return true
	}
	return false
}

// RemoveAllListeners drops every listener for name and always sends rpc.off,
// even when none were registered.
func (p *Proxy) RemoveAllListeners(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.listeners, name)
	p.control(jsonrpc.MethodUnsubscribe, name)
}

// ListenerCount returns the number of listeners registered for name.
func (p *Proxy) ListenerCount(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners[name])
}

// EventNames lists the names with at least one listener, sorted.
func (p *Proxy) EventNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.listeners))
	for name := range p.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Emit invokes the listeners for name synchronously with data and reports
// whether there were any.
func (p *Proxy) Emit(name string, data json.RawMessage) bool {
	p.mu.Lock()
	list := append([]listener(nil), p.listeners[name]...)
	p.mu.Unlock()
	for _, l := range list {
		l.fn(data)
	}
	return len(list) > 0
}

// control sends a subscription call. Callers hold p.mu; tunnel.Send only
// queues, so the lock is never held across network I/O.
func (p *Proxy) control(method, name string) {
	p.tunnel.Send(tunnel.Request{
		Method:       method,
		Params:       []any{name},
		ExpectReturn: true,
		Transport:    controlTransport,
	}, func(_ json.RawMessage, err error) {
		if err != nil {
			p.logger.Warn("subscription call failed", zap.String("method", method), zap.String("event", name), zap.Error(err))
		}
	})
}

// enqueue runs on the tunnel's read loop and only queues.
func (p *Proxy) enqueue(n tunnel.Notification) {
	if !p.events.Push(n) {
		p.logger.Debug("event after close dropped", zap.String("event", n.Name))
	}
}

func (p *Proxy) dispatchLoop() {
	defer close(p.dispatchDone)
	for {
		n, ok := p.events.Pop()
		if !ok {
			return
		}
		p.Emit(n.Name, n.Data)
	}
}
