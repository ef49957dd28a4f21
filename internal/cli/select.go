package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hyperjump/domainsel/internal/config"
	"github.com/hyperjump/domainsel/internal/metrics"
	"github.com/hyperjump/domainsel/internal/selection"
	"github.com/hyperjump/domainsel/internal/selector"
)

// selectFlags holds the per-mode flags. Only flags that were set on the
// command line override the config file.
type selectFlags struct {
	pct           float64
	nDocs         int
	threshold     float64
	seed          uint64
	invert        bool
	noLowercase   bool
	vocabFile     string
	tokenizer     string
	useTFIDF      bool
	tknChunkSize  int
	compChunkSize int
	fineTuneText  string
	simFunc       string
	divFunc       string
	fuseBy        string
	weights       []float64
}

func newSelectCmds(opts *rootOptions) []*cobra.Command {
	return []*cobra.Command{
		newModeCmd(opts, config.ModeRandom, "Randomly select data"),
		newModeCmd(opts, config.ModeSimilar, "Select data based on token similarity to a fine-tune text"),
		newModeCmd(opts, config.ModeDiverse, "Select data based on token diversity"),
		newModeCmd(opts, config.ModeSimilarDiverse, "Select data based on fused similarity and diversity"),
	}
}

func newModeCmd(opts *rootOptions, mode, short string) *cobra.Command {
	sf := &selectFlags{}
	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSelect(cmd, opts, sf, mode)
		},
	}
	f := cmd.Flags()
	f.Float64VarP(&sf.pct, "pct", "p", 0, "fraction of the corpus to select, in (0, 1]")
	if mode == config.ModeRandom {
		f.Uint64VarP(&sf.seed, "seed", "s", 0, "random seed for reproducibility")
		return cmd
	}

	f.IntVarP(&sf.nDocs, "n-docs", "n", 0, "number of documents to select")
	f.Float64VarP(&sf.threshold, "threshold", "t", 0, "select documents scoring at least this (at most, with --invert)")
	cmd.MarkFlagsMutuallyExclusive("pct", "n-docs", "threshold")
	f.BoolVarP(&sf.invert, "invert", "i", false, "pick documents with the lowest scores instead")
	f.BoolVar(&sf.noLowercase, "no-lowercase", false, "do not lowercase during tokenization")
	f.StringVarP(&sf.vocabFile, "vocab-file", "v", config.DefaultVocabFile, "vocabulary for tokenization")
	f.StringVar(&sf.tokenizer, "tokenizer", config.TokenizerWordPiece, "tokenizer: wordpiece or words")
	f.BoolVar(&sf.useTFIDF, "use-tfidf", false, "compare TF-IDF vectors instead of count distributions")
	f.IntVar(&sf.tknChunkSize, "tkn-chunk-size", 0, "tokenization chunk size (default 8192)")
	f.IntVar(&sf.compChunkSize, "comp-chunk-size", 0, "metric computation chunk size (default 128)")

	if mode == config.ModeSimilar || mode == config.ModeSimilarDiverse {
		f.StringVar(&sf.fineTuneText, "fine-tune-text", "", "fine-tune text that documents are compared against")
		f.StringVar(&sf.simFunc, "sim-func", string(metrics.JensenShannon), "similarity function: "+joinNames(metrics.Similarities()))
	}
	if mode == config.ModeDiverse || mode == config.ModeSimilarDiverse {
		f.StringVar(&sf.divFunc, "div-func", string(metrics.Entropy), "diversity function: "+joinNames(metrics.Diversities()))
	}
	if mode == config.ModeSimilarDiverse {
		f.StringVar(&sf.fuseBy, "fuse-by", string(selection.LinearCombination), "linear_combination or union")
		f.Float64SliceVarP(&sf.weights, "sim-div-weights", "w", []float64{1, 1}, "similarity,diversity weights for linear_combination")
	}
	return cmd
}

func runSelect(cmd *cobra.Command, opts *rootOptions, sf *selectFlags, mode string) error {
	cfg, configPath, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	sf.apply(cmd.Flags(), cfg, mode)

	logger, err := opts.newLogger(cfg, configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sel, err := selector.New(cfg, selector.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sel.Close()

	res, err := sel.Run(cmd.Context())
	if err != nil {
		logger.Error("selection failed", zap.Error(err))
		return err
	}
	return WriteResult(cmd.OutOrStdout(), res, outputFormat(opts.json))
}

// apply copies explicitly set flags into cfg. Size flags replace each other
// so a config file's n_docs does not clash with a --pct given on the command line.
func (sf *selectFlags) apply(f *pflag.FlagSet, cfg *config.Config, mode string) {
	sel := &cfg.Selection
	sel.Mode = mode
	switch {
	case f.Changed("pct"):
		sel.Pct, sel.NDocs, sel.Threshold = &sf.pct, nil, nil
	case f.Changed("n-docs"):
		sel.Pct, sel.NDocs, sel.Threshold = nil, &sf.nDocs, nil
	case f.Changed("threshold"):
		sel.Pct, sel.NDocs, sel.Threshold = nil, nil, &sf.threshold
	}
	if f.Changed("seed") {
		sel.Seed = &sf.seed
	}
	if f.Changed("invert") {
		sel.Invert = sf.invert
	}
	if f.Changed("no-lowercase") {
		lower := !sf.noLowercase
		cfg.Tokenizer.Lowercase = &lower
	}
	if f.Changed("vocab-file") {
		cfg.Tokenizer.VocabFile = sf.vocabFile
	}
	if f.Changed("tokenizer") {
		cfg.Tokenizer.Kind = sf.tokenizer
	}
	if f.Changed("use-tfidf") {
		sel.UseTFIDF = sf.useTFIDF
	}
	if f.Changed("tkn-chunk-size") {
		cfg.Tokenizer.TknChunkSize = sf.tknChunkSize
	}
	if f.Changed("comp-chunk-size") {
		cfg.Tokenizer.CompChunkSize = sf.compChunkSize
	}
	if f.Changed("fine-tune-text") {
		sel.FineTuneText = sf.fineTuneText
	}
	if f.Changed("sim-func") {
		sel.SimFunc = sf.simFunc
	}
	if f.Changed("div-func") {
		sel.DivFunc = sf.divFunc
	}
	if f.Changed("fuse-by") {
		sel.FuseBy = sf.fuseBy
	}
	if f.Changed("sim-div-weights") {
		sel.Weights = sf.weights
	}
}

func joinNames[T ~string](names []T) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return strings.Join(out, ", ")
}
