package lspclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal in-process stand-in for a language server: it
// reads Content-Length-framed JSON-RPC requests off serverIn and lets the
// test script write framed responses to serverOut, without spawning a real
// process.
type fakeServer struct {
	reader *bufio.Reader
	writer io.Writer
}

func newFakeServer(serverIn io.Reader, serverOut io.Writer) *fakeServer {
	return &fakeServer{reader: bufio.NewReader(serverIn), writer: serverOut}
}

func (f *fakeServer) readRequest(t *testing.T) request {
	t.Helper()
	headers := map[string]string{}
	for {
		line, err := f.reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		k, v, ok := strings.Cut(line, ":")
		require.True(t, ok)
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	n, err := strconv.Atoi(headers["Content-Length"])
	require.NoError(t, err)
	body := make([]byte, n)
	_, err = io.ReadFull(f.reader, body)
	require.NoError(t, err)

	var req request
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

func (f *fakeServer) writeResponse(t *testing.T, resp response) {
	t.Helper()
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	_, err = fmt.Fprintf(f.writer, "Content-Length: %d\r\n\r\n%s", len(data), data)
	require.NoError(t, err)
}

func newTestClientPair(t *testing.T) (*Client, *fakeServer) {
	t.Helper()
	clientToServer, serverReadsFromClient := io.Pipe()
	serverToClient, clientReadsFromServer := io.Pipe()

	client := newClient(clientToServer, clientReadsFromServer)
	server := newFakeServer(serverReadsFromClient, serverToClient)
	t.Cleanup(func() { client.Close() })
	return client, server
}

func TestCall_RoundTrip(t *testing.T) {
	client, server := newTestClientPair(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := server.readRequest(t)
		assert.Equal(t, "textDocument/documentSymbol", req.Method)
		server.writeResponse(t, response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"ok":true}`)})
	}()

	var result struct {
		OK bool `json:"ok"`
	}
	err := client.Call(context.Background(), "textDocument/documentSymbol", map[string]string{"uri": "file:///a.go"}, &result)
	require.NoError(t, err)
	assert.True(t, result.OK)
	<-done
}

func TestCall_ServerErrorTranslatesToRequestError(t *testing.T) {
	client, server := newTestClientPair(t)

	go func() {
		req := server.readRequest(t)
		server.writeResponse(t, response{JSONRPC: "2.0", ID: req.ID, Error: &responseError{Code: -32000, Message: "boom"}})
	}()

	err := client.Call(context.Background(), "some/method", nil, nil)
	require.Error(t, err)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, FailureServerError, reqErr.Kind)
}

func TestCall_MethodNotFoundTranslatesToUnsupported(t *testing.T) {
	client, server := newTestClientPair(t)

	go func() {
		req := server.readRequest(t)
		server.writeResponse(t, response{JSONRPC: "2.0", ID: req.ID, Error: &responseError{Code: -32601, Message: "not found"}})
	}()

	err := client.Call(context.Background(), "workspace/symbol", nil, nil)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, FailureUnsupported, reqErr.Kind)
}

func TestCall_ContextDeadlineTranslatesToTimeout(t *testing.T) {
	client, _ := newTestClientPair(t)
	// No server response is ever written; the call must time out.

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.Call(ctx, "textDocument/definition", nil, nil)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, FailureTimeout, reqErr.Kind)
}

func TestCall_AfterCloseReturnsTransportClosed(t *testing.T) {
	client, _ := newTestClientPair(t)
	require.NoError(t, client.Close())

	err := client.Call(context.Background(), "any", nil, nil)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, FailureTransportClosed, reqErr.Kind)
}
