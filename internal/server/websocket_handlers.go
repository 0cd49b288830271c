package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/beamdec/internal/decoder"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// StreamRequest is one client message on the streaming endpoint. A "start"
// message opens an utterance, "chunk" appends timesteps, "finish" closes
// the utterance and yields the final hypotheses.
type StreamRequest struct {
	Type          string      `json:"type"` // "start", "chunk", or "finish"
	BeamWidth     int         `json:"beam_width,omitempty"`
	NumResults    int         `json:"num_results,omitempty"`
	Probabilities [][]float64 `json:"probabilities,omitempty"`
}

// StreamResponse is one server message on the streaming endpoint.
type StreamResponse struct {
	Type       string             `json:"type"`   // "started", "interim", "final", "error"
	Status     string             `json:"status"` // "streaming", "completed", "error"
	Hypotheses []HypothesisResult `json:"hypotheses,omitempty"`
	Timesteps  int                `json:"timesteps,omitempty"`
	Error      string             `json:"error,omitempty"`
	ErrorType  string             `json:"error_type,omitempty"`
}

// wsConnWriter is the subset of the WebSocket connection the senders need.
type wsConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// streamSession holds the per-connection decoding state.
type streamSession struct {
	state      *decoder.DecoderState
	numResults int
	timesteps  int
}

// streamHandler handles WebSocket connections for streaming decode.
func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleStreamConnection(conn)
}

// handleStreamConnection processes messages from a WebSocket connection.
func (s *Server) handleStreamConnection(conn *websocket.Conn) {
	// Read deadline prevents hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Ping messages keep the connection alive
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	session := &streamSession{}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleStreamMessage(conn, session, data)
		}
	}
}

// handleStreamMessage dispatches a parsed client message.
func (s *Server) handleStreamMessage(conn *websocket.Conn, session *streamSession, data []byte) {
	var req StreamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendStreamError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	switch req.Type {
	case "start":
		s.startStream(conn, session, req)
	case "chunk":
		s.feedStream(conn, session, req)
	case "finish":
		s.finishStream(conn, session)
	default:
		s.sendStreamError(conn, "invalid_request", "Unsupported request type: "+req.Type)
	}
}

// startStream creates a fresh decoder state for a new utterance.
func (s *Server) startStream(conn *websocket.Conn, session *streamSession, req StreamRequest) {
	beamWidth := req.BeamWidth
	if beamWidth <= 0 {
		beamWidth = s.decoderCfg.BeamWidth
	}

	state, err := decoder.New(s.ab, beamWidth, s.decoderCfg.CutoffProb, s.decoderCfg.CutoffTopN, s.sc)
	if err != nil {
		s.sendStreamError(conn, "invalid_request", fmt.Sprintf("Failed to start stream: %v", err))
		return
	}

	session.state = state
	session.numResults = req.NumResults
	session.timesteps = 0

	s.sendStreamResponse(conn, StreamResponse{
		Type:   "started",
		Status: "streaming",
	})
}

// feedStream appends probability rows to the open utterance and returns an
// interim transcription snapshot.
func (s *Server) feedStream(conn *websocket.Conn, session *streamSession, req StreamRequest) {
	if session.state == nil {
		s.sendStreamError(conn, "invalid_request", "No active stream, send a start message first")
		return
	}

	probs, timeDim, err := s.flattenMatrix(req.Probabilities)
	if err != nil {
		s.sendStreamError(conn, "invalid_request", err.Error())
		return
	}

	if err := session.state.Next(probs, timeDim, s.ab.ClassCount()); err != nil {
		decodeRequestsTotal.WithLabelValues("stream", "error").Inc()
		s.sendStreamError(conn, "processing_error", fmt.Sprintf("Decoding failed: %v", err))
		return
	}
	session.timesteps += timeDim

	s.sendStreamResponse(conn, StreamResponse{
		Type:       "interim",
		Status:     "streaming",
		Hypotheses: toResults(session.state.Decode(), session.numResults),
		Timesteps:  session.timesteps,
	})
}

// finishStream closes the utterance and sends the final hypotheses.
func (s *Server) finishStream(conn *websocket.Conn, session *streamSession) {
	if session.state == nil {
		s.sendStreamError(conn, "invalid_request", "No active stream, send a start message first")
		return
	}

	start := time.Now()
	hyps := session.state.Decode()
	duration := time.Since(start)

	decodeRequestsTotal.WithLabelValues("stream", "success").Inc()
	decodeDuration.WithLabelValues("stream").Observe(duration.Seconds())
	decodeTimesteps.WithLabelValues("stream").Observe(float64(session.timesteps))
	if len(hyps) > 0 {
		transcriptLength.WithLabelValues("stream").Observe(float64(len(hyps[0].Text)))
	}

	s.sendStreamResponse(conn, StreamResponse{
		Type:       "final",
		Status:     "completed",
		Hypotheses: toResults(hyps, session.numResults),
		Timesteps:  session.timesteps,
	})

	session.state = nil
	session.timesteps = 0
}

// sendStreamResponse sends a response message over WebSocket.
func (s *Server) sendStreamResponse(conn wsConnWriter, response StreamResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendStreamError sends an error message over WebSocket.
func (s *Server) sendStreamError(conn wsConnWriter, errorType, message string) {
	s.sendStreamResponse(conn, StreamResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
