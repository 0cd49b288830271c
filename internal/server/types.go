// Package server exposes beam search decoding over HTTP and WebSocket.
package server

import (
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/MeKo-Tech/beamdec/internal/config"
	"github.com/MeKo-Tech/beamdec/internal/scorer"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	ab          *alphabet.Alphabet
	sc          scorer.Scorer
	decoderCfg  config.DecoderConfig
	batchCfg    config.BatchConfig
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	CORSOrigin   string
	MaxUploadMB  int64
	TimeoutSec   int
	AlphabetPath string
	Decoder      config.DecoderConfig
	LM           config.LMConfig
	Batch        config.BatchConfig
	RateLimiter  *RateLimiter
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// AlphabetResponse describes the symbol table the server decodes against.
type AlphabetResponse struct {
	Labels  []string `json:"labels"`
	BlankID int      `json:"blank_id"`
	SpaceID int      `json:"space_id"`
}

// DecodeRequest is the body of a single decode call. Probabilities is a
// time-major matrix, one row per timestep, one column per class including
// the blank.
type DecodeRequest struct {
	Probabilities [][]float64 `json:"probabilities"`
	BeamWidth     int         `json:"beam_width,omitempty"`
	NumResults    int         `json:"num_results,omitempty"`
}

// BatchDecodeRequest carries several utterances in one call.
type BatchDecodeRequest struct {
	Batch      [][][]float64 `json:"batch"`
	BeamWidth  int           `json:"beam_width,omitempty"`
	NumResults int           `json:"num_results,omitempty"`
	Workers    int           `json:"workers,omitempty"`
}

// HypothesisResult is one ranked transcription in a response.
type HypothesisResult struct {
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	Tokens    []int   `json:"tokens,omitempty"`
	Timesteps []int   `json:"timesteps,omitempty"`
}

// DecodeResponse is returned by the decode endpoints.
type DecodeResponse struct {
	Success    bool               `json:"success"`
	Hypotheses []HypothesisResult `json:"hypotheses,omitempty"`
	Error      string             `json:"error,omitempty"`
	TimeMs     int64              `json:"time_ms,omitempty"`
}

// BatchDecodeResponse is returned by the batch endpoint, one hypothesis
// list per input utterance, in input order.
type BatchDecodeResponse struct {
	Success bool                 `json:"success"`
	Results [][]HypothesisResult `json:"results,omitempty"`
	Error   string               `json:"error,omitempty"`
	TimeMs  int64                `json:"time_ms,omitempty"`
}

// NewServer creates a decode server, loading the alphabet and, when
// configured, the language model.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AlphabetPath == "" {
		return nil, fmt.Errorf("alphabet path is required")
	}
	ab, err := alphabet.Load(cfg.AlphabetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load alphabet: %w", err)
	}

	var sc scorer.Scorer
	if cfg.LM.Path != "" {
		ngram, err := scorer.NewNGramScorer(cfg.LM.Path, ab, scorer.Config{
			Alpha:          cfg.LM.Alpha,
			Beta:           cfg.LM.Beta,
			CharacterBased: cfg.LM.CharacterBased,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load language model: %w", err)
		}
		sc = ngram
	}

	return &Server{
		ab:          ab,
		sc:          sc,
		decoderCfg:  cfg.Decoder,
		batchCfg:    cfg.Batch,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeoutSec:  cfg.TimeoutSec,
		rateLimiter: cfg.RateLimiter,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/alphabet", s.corsMiddleware(s.alphabetHandler))
	mux.HandleFunc("/decode", s.corsMiddleware(s.rateLimitMiddleware(s.decodeHandler)))
	mux.HandleFunc("/decode/batch", s.corsMiddleware(s.rateLimitMiddleware(s.decodeBatchHandler)))
	mux.HandleFunc("/decode/stream", s.streamHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
