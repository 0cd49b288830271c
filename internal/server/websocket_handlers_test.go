package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(srv.streamHandler))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/decode/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendStream(t *testing.T, conn *websocket.Conn, req StreamRequest) StreamResponse {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var resp StreamResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestStream_DecodeFlow(t *testing.T) {
	srv := newTestServer(t)
	conn := dialStream(t, srv)

	resp := sendStream(t, conn, StreamRequest{Type: "start", BeamWidth: 4})
	assert.Equal(t, "started", resp.Type)

	resp = sendStream(t, conn, StreamRequest{
		Type:          "chunk",
		Probabilities: [][]float64{{0.85, 0.05, 0.05, 0.05}},
	})
	require.Equal(t, "interim", resp.Type)
	require.NotEmpty(t, resp.Hypotheses)
	assert.Equal(t, "a", resp.Hypotheses[0].Text)
	assert.Equal(t, 1, resp.Timesteps)

	resp = sendStream(t, conn, StreamRequest{
		Type:          "chunk",
		Probabilities: [][]float64{{0.05, 0.85, 0.05, 0.05}},
	})
	require.Equal(t, "interim", resp.Type)
	assert.Equal(t, "ab", resp.Hypotheses[0].Text)
	assert.Equal(t, 2, resp.Timesteps)

	resp = sendStream(t, conn, StreamRequest{Type: "finish"})
	require.Equal(t, "final", resp.Type)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "ab", resp.Hypotheses[0].Text)
}

func TestStream_ChunkWithoutStart(t *testing.T) {
	srv := newTestServer(t)
	conn := dialStream(t, srv)

	resp := sendStream(t, conn, StreamRequest{
		Type:          "chunk",
		Probabilities: [][]float64{{0.85, 0.05, 0.05, 0.05}},
	})
	assert.Equal(t, "error", resp.Type)
	assert.Equal(t, "invalid_request", resp.ErrorType)
}

func TestStream_BadShape(t *testing.T) {
	srv := newTestServer(t)
	conn := dialStream(t, srv)

	resp := sendStream(t, conn, StreamRequest{Type: "start"})
	require.Equal(t, "started", resp.Type)

	resp = sendStream(t, conn, StreamRequest{
		Type:          "chunk",
		Probabilities: [][]float64{{0.5, 0.5}},
	})
	assert.Equal(t, "error", resp.Type)
}

func TestStream_UnknownMessageType(t *testing.T) {
	srv := newTestServer(t)
	conn := dialStream(t, srv)

	resp := sendStream(t, conn, StreamRequest{Type: "bogus"})
	assert.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Error, "Unsupported request type")
}

func TestStream_RestartAfterFinish(t *testing.T) {
	srv := newTestServer(t)
	conn := dialStream(t, srv)

	sendStream(t, conn, StreamRequest{Type: "start"})
	sendStream(t, conn, StreamRequest{
		Type:          "chunk",
		Probabilities: [][]float64{{0.85, 0.05, 0.05, 0.05}},
	})
	resp := sendStream(t, conn, StreamRequest{Type: "finish"})
	require.Equal(t, "final", resp.Type)

	// A new utterance on the same connection starts from scratch.
	resp = sendStream(t, conn, StreamRequest{Type: "start"})
	require.Equal(t, "started", resp.Type)
	resp = sendStream(t, conn, StreamRequest{
		Type:          "chunk",
		Probabilities: [][]float64{{0.05, 0.85, 0.05, 0.05}},
	})
	require.Equal(t, "interim", resp.Type)
	assert.Equal(t, "b", resp.Hypotheses[0].Text)
	assert.Equal(t, 1, resp.Timesteps)
}
