package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/domainsel/internal/config"
	"github.com/hyperjump/domainsel/pkg/utils"
)

// localConfigNames are looked up in the working directory when --config is not given.
var localConfigNames = []string{"domainsel.yaml", "domainsel.yml", "domainsel.toml"}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	version     string
	configPath  string
	corpus      string
	dst         string
	filename    string
	format      string
	textFields  []string
	cacheDir    string
	noManifest  bool
	ignoreCache bool
	debug       bool
	json        bool
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{version: version}
	root := &cobra.Command{
		Use:   "domainsel",
		Short: "Select a subset of a corpus for domain-adaptation pretraining",
		Long: `domainsel picks documents from a large line-delimited corpus, either at random
or by term-distribution similarity to a fine-tune text and/or lexical diversity,
and writes them to a new file with the original bytes and order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (.yaml or .toml); defaults to ./domainsel.{yaml,yml,toml} if present")
	pf.StringVar(&opts.corpus, "corpus", "", "corpus file")
	pf.StringVar(&opts.dst, "dst", "", "directory to save the corpus subset")
	pf.StringVar(&opts.filename, "filename", "", "filename for the corpus subset (derived from the parameters if empty)")
	pf.StringVar(&opts.format, "format", "", "corpus line format: text or jsonl")
	pf.StringSliceVar(&opts.textFields, "text-fields", nil, "JSONL fields joined into the document text")
	pf.StringVar(&opts.cacheDir, "cache-dir", "", "cache directory (default <dst>/cache)")
	pf.BoolVar(&opts.noManifest, "no-manifest", false, "do not record cache entries in the SQLite manifest")
	pf.BoolVar(&opts.ignoreCache, "ignore-cache", false, "recompute score series even when cached")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&opts.json, "json", false, "print the summary as JSON")

	for _, cmd := range newSelectCmds(opts) {
		root.AddCommand(cmd)
	}
	root.AddCommand(newCacheCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd(opts))
	return root
}

// Execute runs the command line with args, honoring ctx cancellation.
func Execute(ctx context.Context, version string, args []string) error {
	root := NewRootCmd(version)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// loadConfig loads the file named by --config, or a domainsel config in the
// working directory, or starts from defaults. Persistent flags that were set
// explicitly override file values.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path := o.configPath
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			for _, name := range localConfigNames {
				candidate := filepath.Join(cwd, name)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
					break
				}
			}
		}
	}

	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	} else {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("corpus") {
		cfg.Corpus.Path = o.corpus
	}
	if flags.Changed("dst") {
		cfg.Output.Dst = o.dst
	}
	if flags.Changed("filename") {
		cfg.Output.Filename = o.filename
	}
	if flags.Changed("format") {
		cfg.Corpus.Format = o.format
	}
	if flags.Changed("text-fields") {
		cfg.Corpus.TextFields = o.textFields
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = o.cacheDir
	}
	if flags.Changed("no-manifest") {
		keep := !o.noManifest
		cfg.Cache.Manifest = &keep
	}
	if flags.Changed("ignore-cache") {
		cfg.Selection.IgnoreCache = o.ignoreCache
	}
	if o.debug {
		cfg.Debug = true
	}
	return cfg, path, nil
}

func (o *rootOptions) newLogger(cfg *config.Config, configPath string) (*zap.Logger, error) {
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if configPath != "" {
		logger.Info("config loaded", zap.String("config_path", configPath), zap.Bool("debug", cfg.Debug))
	}
	return logger, nil
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("domainsel version %s\n", opts.version)
		},
	}
}
