package tunnel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"

	"github.com/gorilla/rpc/v2/json2"
	"go.uber.org/zap"

	"github.com/blimu-dev/rpc-proxygen/pkg/jsonrpc"
)

// httpLoop starts queued calls one at a time: each request is written to the
// wire before the next one starts, so dispatch order over HTTP follows call
// order. Responses are awaited concurrently.
func (t *Tunnel) httpLoop() {
	var inflight sync.WaitGroup
	defer func() {
		inflight.Wait()
		close(t.httpDone)
	}()
	for {
		c, ok := t.httpQueue.Pop()
		if !ok {
			return
		}
		if t.closed.Load() {
			t.complete(c.cb, nil, ErrClosed)
			continue
		}

		written := make(chan struct{})
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			result, err := t.post(c, sync.OnceFunc(func() { close(written) }))
			if err != nil {
				t.logger.Debug("http call failed", zap.Uint64("id", c.id), zap.String("method", c.req.Method), zap.Error(err))
				if t.closed.Load() {
					err = ErrClosed
				}
			}
			t.complete(c.cb, result, err)
		}()
		<-written
	}
}

// post issues one call. sent is invoked once the request has been written,
// or as soon as the call fails before that.
func (t *Tunnel) post(c call, sent func()) (json.RawMessage, error) {
	defer sent()

	msg, err := jsonrpc.NewRequest(c.req.Method, c.req.Params, c.id)
	if err != nil {
		return nil, err
	}
	body, err := jsonrpc.Serialize(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx := httptrace.WithClientTrace(t.ctx, &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) { sent() },
	})
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, t.httpURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	t.setHeaders(request.Header)
	request.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to issue request: %w", err)
	}
	defer cleanlyCloseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("received status code: %d", resp.StatusCode)
	}
	if !c.req.ExpectReturn {
		return nil, nil
	}
	return decodeResponse(resp.Body)
}

// decodeResponse reads a JSON-RPC response body into its raw result. Error
// objects come back as *jsonrpc.Error; a null result is not an error.
func decodeResponse(r io.Reader) (json.RawMessage, error) {
	var result json.RawMessage
	err := json2.DecodeClientResponse(r, &result)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, json2.ErrNullResult) {
		return nil, nil
	}
	var rpcErr *json2.Error
	if errors.As(err, &rpcErr) {
		out := &jsonrpc.Error{Code: int(rpcErr.Code), Message: rpcErr.Message}
		if rpcErr.Data != nil {
			out.Data, _ = json.Marshal(rpcErr.Data)
		}
		return nil, out
	}
	return nil, fmt.Errorf("failed to decode response: %w", err)
}

// cleanlyCloseBody drains and closes an HTTP response body so the connection
// can be reused.
func cleanlyCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
