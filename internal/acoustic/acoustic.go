// Package acoustic runs an ONNX sequence model over feature matrices to
// produce the class posteriors consumed by the beam search decoder.
package acoustic

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/beamdec/internal/config"
	"github.com/MeKo-Tech/beamdec/internal/matrix"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// Model wraps an ONNX session that maps a feature sequence [T, F] to class
// scores [T, C]. Outputs that are not probability distributions are passed
// through a softmax.
type Model struct {
	session    *onnxrt.DynamicAdvancedSession
	inputInfo  onnxrt.InputOutputInfo
	outputInfo onnxrt.InputOutputInfo
	classDim   int
	mu         sync.RWMutex
}

// New loads an acoustic model from cfg.ModelPath.
func New(cfg config.AcousticConfig) (*Model, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path cannot be empty")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	if err := setONNXLibraryPath(); err != nil {
		return nil, fmt.Errorf("failed to set ONNX Runtime library path: %w", err)
	}
	if !onnxrt.IsInitialized() {
		if err := onnxrt.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("expected 1 output, got %d", len(outputs))
	}

	inputInfo := inputs[0]
	outputInfo := outputs[0]

	// Output is [N, T, C] or [T, C]; a fixed trailing dimension tells us the
	// class count up front.
	classDim := 0
	if n := len(outputInfo.Dimensions); n > 0 {
		if c := outputInfo.Dimensions[n-1]; c > 0 {
			classDim = int(c)
		}
	}
	slog.Debug("Acoustic model loaded",
		"path", cfg.ModelPath,
		"input", inputInfo.Name,
		"output", outputInfo.Name,
		"class_dim", classDim)

	sessionOptions, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := sessionOptions.Destroy(); err != nil {
			slog.Warn("Error destroying session options", "error", err)
		}
	}()

	if cfg.NumThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxrt.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{inputInfo.Name},
		[]string{outputInfo.Name},
		sessionOptions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Model{
		session:    session,
		inputInfo:  inputInfo,
		outputInfo: outputInfo,
		classDim:   classDim,
	}, nil
}

// Close releases the underlying session.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		m.session = nil
	}
	return nil
}

// Infer runs the model over one feature sequence and returns the time-major
// probability matrix.
func (m *Model) Infer(features []float64, timeDim, featDim int) (*matrix.Matrix, error) {
	if timeDim <= 0 || featDim <= 0 {
		return nil, fmt.Errorf("invalid feature shape %dx%d", timeDim, featDim)
	}
	if len(features) != timeDim*featDim {
		return nil, fmt.Errorf("feature buffer has %d values, expected %d", len(features), timeDim*featDim)
	}

	m.mu.RLock()
	session := m.session
	m.mu.RUnlock()
	if session == nil {
		return nil, errors.New("acoustic session is closed")
	}

	data := make([]float32, len(features))
	for i, v := range features {
		data[i] = float32(v)
	}
	inputTensor, err := onnxrt.NewTensor(onnxrt.NewShape(1, int64(timeDim), int64(featDim)), data)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := session.Run([]onnxrt.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	floatTensor, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("expected float32 tensor, got %T", outputs[0])
	}

	return buildMatrix(floatTensor.GetData(), floatTensor.GetShape())
}

// buildMatrix converts raw model output into a normalized probability
// matrix. Accepts [T, C] and [1, T, C] shapes.
func buildMatrix(data []float32, shape []int64) (*matrix.Matrix, error) {
	dims := shape
	for len(dims) > 2 && dims[0] == 1 {
		dims = dims[1:]
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	timeDim := int(dims[0])
	classDim := int(dims[1])
	if timeDim*classDim != len(data) {
		return nil, fmt.Errorf("output shape %v does not match %d values", shape, len(data))
	}

	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	for t := 0; t < timeDim; t++ {
		row := out[t*classDim : (t+1)*classDim]
		if !isDistribution(row) {
			softmax(row)
		}
	}
	return &matrix.Matrix{Data: out, TimeDim: timeDim, ClassDim: classDim}, nil
}

// isDistribution reports whether the row already holds probabilities.
func isDistribution(row []float64) bool {
	sum := 0.0
	for _, v := range row {
		if v < 0 || v > 1 {
			return false
		}
		sum += v
	}
	return math.Abs(sum-1) <= 1e-3
}

// softmax normalizes logits in place, shifted by the max for stability.
func softmax(row []float64) {
	maxV := row[0]
	for _, v := range row[1:] {
		if v > maxV {
			maxV = v
		}
	}
	sum := 0.0
	for i, v := range row {
		row[i] = math.Exp(v - maxV)
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}
}

// setONNXLibraryPath sets the onnxruntime shared library path from common
// locations.
func setONNXLibraryPath() error {
	if p := os.Getenv("BEAMDEC_ONNX_LIB"); p != "" {
		onnxrt.SetSharedLibraryPath(p)
		return nil
	}
	if path := findSystemLibraryPath(); path != "" {
		onnxrt.SetSharedLibraryPath(path)
		return nil
	}

	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	libPath, err := getProjectLibraryPath(root)
	if err != nil {
		return err
	}
	onnxrt.SetSharedLibraryPath(libPath)
	return nil
}

// findSystemLibraryPath checks common system locations for the ONNX Runtime
// library.
func findSystemLibraryPath() string {
	systemPaths := []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
	for _, p := range systemPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	root := cwd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root, nil
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", errors.New("could not find project root")
		}
		root = parent
	}
}

// getProjectLibraryPath constructs the project-relative library path.
func getProjectLibraryPath(root string) (string, error) {
	libName, err := getLibraryName()
	if err != nil {
		return "", err
	}
	libPath := filepath.Join(root, "onnxruntime", "lib", libName)
	if _, err := os.Stat(libPath); err != nil {
		return "", fmt.Errorf("ONNX Runtime library not found at %s", libPath)
	}
	return libPath, nil
}

// getLibraryName returns the appropriate library name for the current OS.
func getLibraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}
