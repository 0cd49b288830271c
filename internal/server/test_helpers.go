package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/beamdec/internal/config"
	"github.com/stretchr/testify/require"
)

// writeTestAlphabet writes a small label file with "a", "b" and a space.
func writeTestAlphabet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n \n"), 0o644))
	return path
}

// newTestServer builds a server over the test alphabet with no language
// model and no rate limiting.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(Config{
		Host:         "localhost",
		Port:         8080,
		CORSOrigin:   "*",
		MaxUploadMB:  10,
		TimeoutSec:   30,
		AlphabetPath: writeTestAlphabet(t),
		Decoder: config.DecoderConfig{
			BeamWidth:  8,
			CutoffProb: 1.0,
			CutoffTopN: 40,
		},
		Batch: config.BatchConfig{Workers: 2},
	})
	require.NoError(t, err)
	return srv
}
