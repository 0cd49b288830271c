package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/beamdec/internal/acoustic"
	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/MeKo-Tech/beamdec/internal/batch"
	"github.com/MeKo-Tech/beamdec/internal/common"
	"github.com/MeKo-Tech/beamdec/internal/config"
	"github.com/MeKo-Tech/beamdec/internal/decoder"
	"github.com/MeKo-Tech/beamdec/internal/matrix"
	"github.com/MeKo-Tech/beamdec/internal/scorer"
)

const (
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// decodeCmd represents the decode command.
var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode probability matrix files with beam search",
	Long: `Decode one or more probability matrix files (JSON or CSV) into text.

Each matrix holds one row per timestep and one column per class, with the
blank class last. With --model the files are treated as feature matrices
and run through an ONNX acoustic model first.

Examples:
  beamdec decode matrix.json --alphabet labels.txt
  beamdec decode matrix.json --alphabet labels.txt --lm model.arpa --alpha 0.9
  beamdec decode *.csv --alphabet labels.txt --format json --output results.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()

		format := cfg.Output.Format
		outputFile := cfg.Output.File
		numResults := cfg.Output.NumResults
		precision := cfg.Output.ScorePrecision
		greedy, _ := cmd.Flags().GetBool("greedy")

		validFormats := []string{outputFormatText, outputFormatJSON, outputFormatYAML, outputFormatCSV}
		isValidFormat := false
		for _, f := range validFormats {
			if format == f {
				isValidFormat = true
				break
			}
		}
		if !isValidFormat {
			return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
		}

		if cfg.AlphabetPath == "" {
			return errors.New("no alphabet file provided (use --alphabet)")
		}
		ab, err := alphabet.Load(cfg.AlphabetPath)
		if err != nil {
			return fmt.Errorf("failed to load alphabet: %w", err)
		}

		var sc scorer.Scorer
		if cfg.LM.Path != "" {
			if greedy {
				return errors.New("--greedy cannot be combined with a language model")
			}
			ngram, err := scorer.NewNGramScorer(cfg.LM.Path, ab, scorer.Config{
				Alpha:          cfg.LM.Alpha,
				Beta:           cfg.LM.Beta,
				CharacterBased: cfg.LM.CharacterBased,
			})
			if err != nil {
				return fmt.Errorf("failed to load language model: %w", err)
			}
			sc = ngram
		}

		var model *acoustic.Model
		if cfg.Acoustic.ModelPath != "" {
			model, err = acoustic.New(cfg.Acoustic)
			if err != nil {
				return fmt.Errorf("failed to load acoustic model: %w", err)
			}
			defer func() { _ = model.Close() }()
		}

		timer := common.NewNamedTimer("decode")
		results := make([]batch.FileResult, 0, len(args))
		for _, path := range args {
			hyps, err := decodeFile(path, ab, model, sc, cfg.Decoder, greedy, numResults)
			if err != nil {
				return err
			}
			results = append(results, batch.FileResult{File: path, Hypotheses: hyps})
		}
		timer.StopAndLog(slog.Default())

		res := batch.Result{Results: results, Duration: timer.Duration(), ScorePrecision: precision}
		return res.SaveResults(format, outputFile, false)
	},
}

// decodeFile loads one matrix file and decodes it.
func decodeFile(path string, ab *alphabet.Alphabet, model *acoustic.Model,
	sc scorer.Scorer, dc config.DecoderConfig, greedy bool, numResults int) ([]decoder.Hypothesis, error) {
	var m *matrix.Matrix
	var err error
	if model != nil {
		m, err = matrix.LoadFeatures(path)
	} else {
		m, err = matrix.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if m.TimeDim == 0 {
		return nil, fmt.Errorf("%s contains no time steps", path)
	}

	if model != nil {
		m, err = model.Infer(m.Data, m.TimeDim, m.ClassDim)
		if err != nil {
			return nil, fmt.Errorf("acoustic inference failed for %s: %w", path, err)
		}
	}

	if m.ClassDim != ab.ClassCount() {
		return nil, fmt.Errorf("%s has %d classes, alphabet expects %d", path, m.ClassDim, ab.ClassCount())
	}
	m.CheckDistributions(slog.Default())

	if greedy {
		hyp, err := decoder.DecodeGreedy(m.Data, m.TimeDim, m.ClassDim, ab)
		if err != nil {
			return nil, fmt.Errorf("decode failed for %s: %w", path, err)
		}
		return []decoder.Hypothesis{hyp}, nil
	}

	hyps, err := decoder.DecodeOne(m.Data, m.TimeDim, m.ClassDim, ab, decoder.BatchConfig{
		BeamSize:   dc.BeamWidth,
		CutoffProb: dc.CutoffProb,
		CutoffTopN: dc.CutoffTopN,
	}, sc)
	if err != nil {
		return nil, fmt.Errorf("decode failed for %s: %w", path, err)
	}
	if numResults > 0 && len(hyps) > numResults {
		hyps = hyps[:numResults]
	}
	return hyps, nil
}

func addDecodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntP("beam-width", "b", 100, "beam width for the prefix search")
	cmd.Flags().Float64("cutoff-prob", 1.0, "cumulative probability cutoff for pruning (0..1]")
	cmd.Flags().Int("cutoff-top-n", 40, "maximum classes considered per timestep")
	cmd.Flags().IntP("num-results", "n", 1, "number of hypotheses to report per file")
	cmd.Flags().Int("score-precision", 4, "decimal places for scores in text/csv output")
	cmd.Flags().Bool("greedy", false, "use greedy best-path decoding instead of beam search")
	cmd.Flags().String("lm", "", "ARPA n-gram language model file")
	cmd.Flags().Float64("alpha", 0.93, "language model weight")
	cmd.Flags().Float64("beta", 1.18, "word insertion bonus")
	cmd.Flags().Bool("char-lm", false, "score the language model per character instead of per word")
	cmd.Flags().String("model", "", "ONNX acoustic model; inputs are treated as feature matrices")
	cmd.Flags().Int("threads", 0, "intra-op threads for acoustic inference (0=default)")
}

// bindDecodeFlags binds all flags to viper configuration keys.
func bindDecodeFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"output.num_results", "num-results"},
		{"output.score_precision", "score-precision"},
		{"decoder.beam_width", "beam-width"},
		{"decoder.cutoff_prob", "cutoff-prob"},
		{"decoder.cutoff_top_n", "cutoff-top-n"},
		{"lm.path", "lm"},
		{"lm.alpha", "alpha"},
		{"lm.beta", "beta"},
		{"lm.character_based", "char-lm"},
		{"acoustic.model_path", "model"},
		{"acoustic.num_threads", "threads"},
	}

	for _, fb := range flagBindings {
		_ = viper.BindPFlag(fb.key, cmd.Flags().Lookup(fb.flag))
	}
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	addDecodeFlags(decodeCmd)
	bindDecodeFlags(decodeCmd)
}
