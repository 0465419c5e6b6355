package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcTestServer serves JSON-RPC requests from handlers keyed by method name.
// A handler returns either a result or an rpcError.
func rpcTestServer(t *testing.T, handlers map[string]func(params []any) (any, *rpcError)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler, ok := handlers[req.Method]
		if !ok {
			t.Errorf("unexpected RPC method: %s", req.Method)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		result, rpcErr := handler(req.Params)
		resp := rpcResponse{ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			resp.Result, _ = json.Marshal(result)
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRPCClientCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "testuser", user)
		assert.Equal(t, "testpass", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "get_block_height", req.Method)
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.NotNil(t, req.Params)

		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`100`)})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL, User: "testuser", Password: "testpass"})
	var height int
	require.NoError(t, client.Call(context.Background(), "get_block_height", nil, &height))
	assert.Equal(t, 100, height)
}

func TestRPCClientNoAuthWithoutUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`0`)})
	}))
	defer server.Close()

	require.NoError(t, NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "get_block_height", nil, nil))
}

func TestRPCClientRPCError(t *testing.T) {
	server := rpcTestServer(t, map[string]func([]any) (any, *rpcError){
		"submit_tx": func([]any) (any, *rpcError) {
			return nil, &rpcError{Code: -32602, Message: "invalid tx encoding"}
		},
	})

	client := NewRPCClient(RPCConfig{URL: server.URL})
	err := client.Call(context.Background(), "submit_tx", []any{"zz"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tx encoding")
	assert.Contains(t, err.Error(), "-32602")
}

func TestRPCClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "get_block_height", nil, nil)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "502")
}

func TestRPCClientConnectionError(t *testing.T) {
	client := NewRPCClient(RPCConfig{URL: "http://localhost:1"})
	var result int
	err := client.Call(context.Background(), "get_block_height", nil, &result)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestRPCClientContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var result int
	err := NewRPCClient(RPCConfig{URL: server.URL}).Call(ctx, "get_block_height", nil, &result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRPCClientInvalidResponse(t *testing.T) {
	t.Run("garbage body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()
		err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "get_block_height", nil, nil)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("id mismatch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(rpcResponse{ID: 999, Result: json.RawMessage(`1`)})
		}))
		defer server.Close()
		err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "get_block_height", nil, nil)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("wrong result type", func(t *testing.T) {
		server := rpcTestServer(t, map[string]func([]any) (any, *rpcError){
			"get_block_height": func([]any) (any, *rpcError) { return "tall", nil },
		})
		var height uint64
		err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "get_block_height", nil, &height)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestRPCClientSequentialIDs(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []int64
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		ids = append(ids, req.ID)
		mu.Unlock()
		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`0`)})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	for i := 0; i < 3; i++ {
		var n int
		require.NoError(t, client.Call(context.Background(), "get_block_height", nil, &n))
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}
