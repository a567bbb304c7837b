package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/target/ticketgate/internal/data"
)

type clearCacheOptions struct {
	DryRun bool
}

const clearBatchSize = 100

func runClearStatsCache(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearCacheFlags(args)
	if err != nil {
		return err
	}

	client, err := connectRedis(cmdCtx)
	if errors.Is(err, errRedisNotConfigured) {
		return writeln(cmdCtx.Out, "Redis is disabled; nothing to clear")
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	pattern := data.KeyPrefix + "stats:*"
	cmdCtx.Logger.Info("scanning redis", "pattern", pattern)

	var (
		batch   []string
		matched int
		deleted int64
	)
	flush := func() error {
		if len(batch) == 0 || opts.DryRun {
			batch = batch[:0]
			return nil
		}
		n, delErr := client.Del(ctx, batch...).Result()
		if delErr != nil {
			return fmt.Errorf("redis del: %w", delErr)
		}
		deleted += n
		batch = batch[:0]
		return nil
	}

	iter := client.Scan(ctx, 0, pattern, clearBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		matched++
		if opts.DryRun {
			if err := writeln(cmdCtx.Out, key); err != nil {
				return err
			}
			continue
		}
		batch = append(batch, key)
		if len(batch) >= clearBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	if opts.DryRun {
		return writef(cmdCtx.Out, "\n%d keys would be deleted\n", matched)
	}
	return writef(cmdCtx.Out, "Deleted %d of %d matched keys\n", deleted, matched)
}

func parseClearCacheFlags(args []string) (clearCacheOptions, error) {
	fs := flag.NewFlagSet("clear-stats-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearCacheOptions{}
	fs.BoolVar(&opts.DryRun, "dry-run", false, "List matching keys without deleting them")

	if err := fs.Parse(args); err != nil {
		return clearCacheOptions{}, err
	}
	return opts, nil
}
