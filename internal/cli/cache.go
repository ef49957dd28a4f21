package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperjump/domainsel/internal/cache"
)

// ErrCacheDrift is returned by "cache verify" when any entry is missing or modified.
var ErrCacheDrift = errors.New("cache entries drifted from manifest")

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the score and model cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cache entries recorded in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.openManifest(cmd)
			if err != nil {
				return err
			}
			defer m.Close()
			entries, err := m.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list cache entries: %w", err)
			}
			return WriteEntries(cmd.OutOrStdout(), entries, outputFormat(opts.json))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Re-hash cache files and report entries that are missing or modified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.openManifest(cmd)
			if err != nil {
				return err
			}
			defer m.Close()
			dir, _ := opts.cacheDirectory(cmd)
			results, err := m.Verify(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("failed to verify cache: %w", err)
			}
			drift, err := WriteVerification(cmd.OutOrStdout(), results, outputFormat(opts.json))
			if err != nil {
				return err
			}
			if drift > 0 {
				return fmt.Errorf("%w: %d of %d", ErrCacheDrift, drift, len(results))
			}
			return nil
		},
	})
	return cmd
}

// cacheDirectory resolves the cache directory from flags and config.
func (o *rootOptions) cacheDirectory(cmd *cobra.Command) (string, error) {
	cfg, _, err := o.loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Cache.Dir == "" && cfg.Output.Dst == "" {
		return "", errors.New("--dst or --cache-dir is required")
	}
	return cfg.CacheDir(), nil
}

// openManifest opens an existing manifest; it never creates one.
func (o *rootOptions) openManifest(cmd *cobra.Command) (*cache.Manifest, error) {
	dir, err := o.cacheDirectory(cmd)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, cache.ManifestFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no cache manifest in %s: %w", dir, err)
	}
	return cache.OpenManifest(path)
}
