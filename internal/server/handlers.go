package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/beamdec/internal/decoder"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}

// alphabetHandler returns the loaded symbol table.
func (s *Server) alphabetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	labels := make([]string, s.ab.Size())
	for i := range labels {
		labels[i] = s.ab.Label(i)
	}
	response := AlphabetResponse{
		Labels:  labels,
		BlankID: s.ab.BlankID(),
		SpaceID: s.ab.SpaceID(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode alphabet response", "error", err)
	}
}

// decodeHandler decodes a single probability matrix.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	probs, timeDim, err := s.flattenMatrix(req.Probabilities)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	beamWidth := req.BeamWidth
	if beamWidth <= 0 {
		beamWidth = s.decoderCfg.BeamWidth
	}

	start := time.Now()
	hyps, err := decoder.DecodeOne(probs, timeDim, s.ab.ClassCount(), s.ab, decoder.BatchConfig{
		BeamSize:   beamWidth,
		CutoffProb: s.decoderCfg.CutoffProb,
		CutoffTopN: s.decoderCfg.CutoffTopN,
	}, s.sc)
	duration := time.Since(start)

	if err != nil {
		decodeRequestsTotal.WithLabelValues("single", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Decoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	decodeRequestsTotal.WithLabelValues("single", "success").Inc()
	decodeDuration.WithLabelValues("single").Observe(duration.Seconds())
	decodeTimesteps.WithLabelValues("single").Observe(float64(timeDim))
	if len(hyps) > 0 {
		transcriptLength.WithLabelValues("single").Observe(float64(len(hyps[0].Text)))
	}

	response := DecodeResponse{
		Success:    true,
		Hypotheses: toResults(hyps, req.NumResults),
		TimeMs:     duration.Milliseconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode decode response", "error", err)
	}
}

// decodeBatchHandler decodes several matrices in one request.
func (s *Server) decodeBatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	var req BatchDecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Batch) == 0 {
		s.writeErrorResponse(w, "Empty batch", http.StatusBadRequest)
		return
	}

	probsBatch := make([][]float64, len(req.Batch))
	seqLengths := make([]int, len(req.Batch))
	for i, rows := range req.Batch {
		probs, timeDim, err := s.flattenMatrix(rows)
		if err != nil {
			s.writeErrorResponse(w, fmt.Sprintf("Utterance %d: %v", i, err), http.StatusBadRequest)
			return
		}
		probsBatch[i] = probs
		seqLengths[i] = timeDim
	}

	beamWidth := req.BeamWidth
	if beamWidth <= 0 {
		beamWidth = s.decoderCfg.BeamWidth
	}
	workers := req.Workers
	if workers <= 0 {
		workers = s.batchCfg.Workers
	}

	start := time.Now()
	results, err := decoder.DecodeBatch(probsBatch, seqLengths, s.ab.ClassCount(), s.ab, decoder.BatchConfig{
		BeamSize:   beamWidth,
		CutoffProb: s.decoderCfg.CutoffProb,
		CutoffTopN: s.decoderCfg.CutoffTopN,
		NumWorkers: workers,
	}, s.sc)
	duration := time.Since(start)

	if err != nil {
		decodeRequestsTotal.WithLabelValues("batch", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Decoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	decodeRequestsTotal.WithLabelValues("batch", "success").Inc()
	decodeDuration.WithLabelValues("batch").Observe(duration.Seconds())
	batchSize.Observe(float64(len(req.Batch)))

	response := BatchDecodeResponse{
		Success: true,
		Results: make([][]HypothesisResult, len(results)),
		TimeMs:  duration.Milliseconds(),
	}
	for i, hyps := range results {
		response.Results[i] = toResults(hyps, req.NumResults)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode batch response", "error", err)
	}
}

// flattenMatrix validates row shapes against the alphabet and returns the
// row-contiguous buffer with its time dimension.
func (s *Server) flattenMatrix(rows [][]float64) ([]float64, int, error) {
	classDim := s.ab.ClassCount()
	probs := make([]float64, 0, len(rows)*classDim)
	for i, row := range rows {
		if len(row) != classDim {
			return nil, 0, fmt.Errorf("row %d has %d classes, expected %d", i, len(row), classDim)
		}
		probs = append(probs, row...)
	}
	return probs, len(rows), nil
}

// toResults converts hypotheses into response entries, capped at n when
// n is positive.
func toResults(hyps []decoder.Hypothesis, n int) []HypothesisResult {
	if n > 0 && n < len(hyps) {
		hyps = hyps[:n]
	}
	out := make([]HypothesisResult, len(hyps))
	for i, h := range hyps {
		out[i] = HypothesisResult{
			Text:      h.Text,
			Score:     h.Score,
			Tokens:    h.Tokens,
			Timesteps: h.Timesteps,
		}
	}
	return out
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := DecodeResponse{
		Success: false,
		Error:   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
