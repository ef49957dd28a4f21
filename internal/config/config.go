// Package config provides configuration loading and structs for domainsel runs.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrCorpusMissing is returned when the corpus path does not exist.
	ErrCorpusMissing = errors.New("corpus does not exist")
	// ErrCorpusEmpty is returned when the corpus file has zero bytes.
	ErrCorpusEmpty = errors.New("corpus is empty")
)

// Selection modes.
const (
	ModeRandom         = "random"
	ModeSimilar        = "similar"
	ModeDiverse        = "diverse"
	ModeSimilarDiverse = "similar+diverse"
)

// Modes lists every selection mode in CLI order.
func Modes() []string {
	return []string{ModeRandom, ModeSimilar, ModeDiverse, ModeSimilarDiverse}
}

// Config holds all configuration for a selection run.
type Config struct {
	Debug     bool            `yaml:"debug" toml:"debug"`
	Corpus    CorpusConfig    `yaml:"corpus" toml:"corpus"`
	Output    OutputConfig    `yaml:"output" toml:"output"`
	Tokenizer TokenizerConfig `yaml:"tokenizer" toml:"tokenizer"`
	Selection Selection       `yaml:"selection" toml:"selection"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
}

// CorpusConfig describes the input corpus.
type CorpusConfig struct {
	Path       string   `yaml:"path" toml:"path"`
	Format     string   `yaml:"format" toml:"format"`
	TextFields []string `yaml:"text_fields" toml:"text_fields"`
}

// OutputConfig says where the selected subset is written.
type OutputConfig struct {
	Dst      string `yaml:"dst" toml:"dst"`
	Filename string `yaml:"filename" toml:"filename"`
}

// TokenizerConfig holds vocabulary and batching settings.
type TokenizerConfig struct {
	VocabFile     string   `yaml:"vocab_file" toml:"vocab_file"`
	Kind          string   `yaml:"kind" toml:"kind"`
	Lowercase     *bool    `yaml:"lowercase,omitempty" toml:"lowercase,omitempty"`
	SpecialTokens []string `yaml:"special_tokens" toml:"special_tokens"`
	TknChunkSize  int      `yaml:"tkn_chunk_size" toml:"tkn_chunk_size"`
	CompChunkSize int      `yaml:"comp_chunk_size" toml:"comp_chunk_size"`
}

// LowercaseOrDefault returns whether to lowercase; defaults to true when unset.
func (t *TokenizerConfig) LowercaseOrDefault() bool {
	if t.Lowercase != nil {
		return *t.Lowercase
	}
	return true
}

// Tokenizer kinds.
const (
	TokenizerWordPiece = "wordpiece"
	TokenizerWords     = "words"
)

// CacheConfig holds cache directory settings.
type CacheConfig struct {
	Dir      string `yaml:"dir" toml:"dir"`
	Manifest *bool  `yaml:"manifest,omitempty" toml:"manifest,omitempty"`
}

// ManifestOrDefault returns whether the SQLite manifest is kept; defaults to true.
func (c *CacheConfig) ManifestOrDefault() bool {
	if c.Manifest != nil {
		return *c.Manifest
	}
	return true
}

// CacheDir returns the cache directory, <dst>/cache unless overridden.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.Output.Dst, "cache")
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.Path = expandPath(cfg.Corpus.Path, configDir)
	cfg.Output.Dst = expandPath(cfg.Output.Dst, configDir)
	cfg.Tokenizer.VocabFile = expandPath(cfg.Tokenizer.VocabFile, configDir)
	cfg.Selection.FineTuneText = expandPath(cfg.Selection.FineTuneText, configDir)
	cfg.Cache.Dir = expandPath(cfg.Cache.Dir, configDir)

	return &cfg, nil
}

// Marshal renders cfg as TOML when format is "toml", YAML otherwise.
func Marshal(cfg *Config, format string) ([]byte, error) {
	if strings.EqualFold(format, "toml") {
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// expandPath resolves "./" paths against configDir and "~/" against the home
// directory. Other paths are returned unchanged.
func expandPath(path string, configDir string) string {
	switch {
	case path == "" || filepath.IsAbs(path):
		return path
	case strings.HasPrefix(path, "./") || path == ".":
		return filepath.Join(configDir, path)
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
