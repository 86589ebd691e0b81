package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"autoembed/internal/cache"
	"autoembed/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the cache of fetched pages",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(s *cache.Store) (string, error) {
			n, err := s.Clear(cmd.Context())
			return fmt.Sprintf("Removed %d cached pages.", n), err
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(s *cache.Store) (string, error) {
			n, err := s.Prune(cmd.Context())
			return fmt.Sprintf("Removed %d expired pages.", n), err
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
}

// withCache opens the page cache, runs fn and prints its message.
func withCache(cmd *cobra.Command, fn func(*cache.Store) (string, error)) error {
	path, err := config.CachePath()
	if err != nil {
		return fmt.Errorf("locating page cache: %w", err)
	}
	debugf("page cache: %s", path)

	s, err := cache.Open(cmd.Context(), path, cfg.CacheTTL.Duration)
	if err != nil {
		return err
	}
	defer s.Close()

	msg, err := fn(s)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
