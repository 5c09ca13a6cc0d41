package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"folio-cli/internal/cache"
	"folio-cli/internal/format"
	"folio-cli/internal/model"
	"folio-cli/internal/reconcile"
	"folio-cli/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local normalized cache",
	}

	cmd.AddCommand(newCacheShowCmd(app))
	cmd.AddCommand(newCacheEvictCmd(app))
	cmd.AddCommand(newCacheGCCmd(app))
	cmd.AddCommand(newCacheClearCmd(app))
	return cmd
}

// parseCacheKey accepts ROOT_QUERY, "<typename>:<id>" or a bare doc-/fld- id.
func parseCacheKey(s string) (cache.Key, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == string(cache.RootQuery):
		return cache.RootQuery, nil
	case strings.HasPrefix(s, store.PrefixDocument+"-"):
		return cache.KeyOf(model.TypeBlocks, s), nil
	case strings.HasPrefix(s, store.PrefixFolder+"-"):
		return cache.KeyOf(model.TypeFolders, s), nil
	}
	if k := cache.Key(s); k.Typename() != "" && k.ID() != "" {
		return k, nil
	}
	return "", fmt.Errorf("invalid cache key: %q (expected ROOT_QUERY, <typename>:<id>, doc-… or fld-…)", s)
}

func loadCache(cmd *cobra.Command) (*cache.Store, store.CacheFile, error) {
	cf, err := store.DefaultCacheFile()
	if err != nil {
		return nil, cf, err
	}
	snap, err := cf.Load(cmdContext(cmd))
	if err != nil {
		return nil, cf, fmt.Errorf("load cache: %w", err)
	}
	c := cache.New()
	c.Restore(snap)
	return c, cf, nil
}

func lookupFolder(cmd *cobra.Command, id string) (model.Folder, error) {
	c, _, err := loadCache(cmd)
	if err != nil {
		return model.Folder{}, err
	}
	rec, err := c.Lookup(model.TypeFolders, id)
	if err != nil {
		return model.Folder{}, err
	}
	return reconcile.FolderFromRecord(rec), nil
}

func cacheStats(c *cache.Store, cf store.CacheFile) map[string]any {
	stats := map[string]any{
		"path":        cf.Path,
		"records":     len(c.Keys("")),
		"folders":     len(c.Keys(model.TypeFolders)),
		"documents":   len(c.Keys(model.TypeBlocks)),
		"fingerprint": c.Fingerprint(),
	}
	if fi, err := os.Stat(cf.Path); err == nil {
		stats["size"] = humanize.Bytes(uint64(fi.Size()))
		stats["modified"] = humanize.Time(fi.ModTime())
	}
	return stats
}

func newCacheShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Show one cached record, or cache stats when no key is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cf, err := loadCache(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(args) == 0 {
				return writeOut(cmd, app, format.Envelope{Data: cacheStats(c, cf)})
			}

			k, err := parseCacheKey(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			rec, err := c.Read(k)
			if err != nil {
				if errors.Is(err, cache.ErrNotFound) {
					return writeErr(cmd, errNotFound("cache record", string(k)))
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{
				Data: rec,
				Meta: map[string]any{"key": string(k)},
			})
		},
	}
}

func newCacheEvictCmd(app *App) *cobra.Command {
	var gc bool

	cmd := &cobra.Command{
		Use:   "evict <key>",
		Short: "Evict a record (references to it dangle until the next sync)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseCacheKey(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, cf, err := loadCache(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			evicted := false
			var collected []cache.Key
			_ = c.Batch(func(tx *cache.Tx) error {
				evicted = tx.Evict(k)
				if gc {
					collected = tx.GC()
				}
				return nil
			})
			if !evicted {
				return writeErr(cmd, errNotFound("cache record", string(k)))
			}
			if err := cf.Save(cmdContext(cmd), c.Extract(false)); err != nil {
				return writeErr(cmd, fmt.Errorf("save cache: %w", err))
			}
			return writeOut(cmd, app, format.Envelope{
				Data: map[string]any{"evicted": string(k), "collected": keyStrings(collected)},
			})
		},
	}

	cmd.Flags().BoolVar(&gc, "gc", false, "Also collect records that became unreachable")
	return cmd
}

func newCacheGCCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Remove records not reachable from ROOT_QUERY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cf, err := loadCache(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			var collected []cache.Key
			_ = c.Batch(func(tx *cache.Tx) error {
				collected = tx.GC()
				return nil
			})
			if len(collected) > 0 {
				if err := cf.Save(cmdContext(cmd), c.Extract(false)); err != nil {
					return writeErr(cmd, fmt.Errorf("save cache: %w", err))
				}
			}
			return writeOut(cmd, app, format.Envelope{
				Data: map[string]any{"collected": keyStrings(collected)},
				Meta: map[string]any{"remaining": humanize.Comma(int64(len(c.Keys(""))))},
			})
		},
	}
}

func newCacheClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the cache file (the next sync refills it)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := store.DefaultCacheFile()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := cf.Clear(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{
				Data:  map[string]any{"cleared": cf.Path},
				Hints: []string{"folio sync"},
			})
		},
	}
}

func keyStrings(keys []cache.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, string(k))
	}
	return out
}
