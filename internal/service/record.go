package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/ticketgate/internal/core"
	"github.com/target/ticketgate/internal/domain/dispatch"
	"github.com/target/ticketgate/internal/domain/model"
)

const (
	defaultStatsTTL    = 30 * time.Second
	overviewRecentSize = 10
)

// RecordServiceOptions groups dependencies for RecordService.
type RecordServiceOptions struct {
	Records  core.RecordRepository         // Required: dispatch log reads
	Configs  core.DispatchConfigRepository // Required: gate row reads for the overview
	Cache    core.CacheRepository          // Optional: stats cache
	StatsTTL time.Duration                 // Optional: cached stats lifetime (default 30s)
	Feed     *dispatch.ChangeFeed          // Optional: committed-dispatch change feed
	Logger   *slog.Logger                  // Optional: structured logger
}

// RecordService serves the read side of the dispatch log.
type RecordService struct {
	records  core.RecordRepository
	configs  core.DispatchConfigRepository
	cache    core.CacheRepository
	statsTTL time.Duration
	feed     *dispatch.ChangeFeed
	logger   *slog.Logger
}

// ErrChangeFeedDisabled is returned by Subscribe when no change feed is configured.
var ErrChangeFeedDisabled = errors.New("change feed is not configured")

// NewRecordService constructs a new RecordService.
func NewRecordService(opts RecordServiceOptions) (*RecordService, error) {
	if opts.Records == nil {
		return nil, errors.New("RecordRepository is required")
	}
	if opts.Configs == nil {
		return nil, errors.New("DispatchConfigRepository is required")
	}
	ttl := opts.StatsTTL
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService{
		records:  opts.Records,
		configs:  opts.Configs,
		cache:    opts.Cache,
		statsTTL: ttl,
		feed:     opts.Feed,
		logger:   logger.With("component", "record_service"),
	}, nil
}

// List returns records matching opts, newest first.
func (s *RecordService) List(ctx context.Context, opts model.RecordListOptions) ([]*model.DispatchRecord, error) {
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}
	recs, err := s.records.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// DailyTotals returns per-day revenue and counts, oldest first.
func (s *RecordService) DailyTotals(ctx context.Context, filter model.RecordFilter) ([]model.DailyTotal, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	days, err := s.records.DailyTotals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	return days, nil
}

// Stats summarizes records matching filter. Results are cached per filter until the next
// committed dispatch or the TTL, whichever comes first. Cache errors fall through to the database.
func (s *RecordService) Stats(ctx context.Context, filter model.RecordFilter) (*model.RecordStats, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	key := ""
	if s.cache != nil {
		key = s.statsKey(ctx, filter)
		if cached := s.cachedStats(ctx, key); cached != nil {
			return cached, nil
		}
	}

	stats, err := s.records.Stats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("record stats: %w", err)
	}

	if key != "" {
		if b, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, b, s.statsTTL); err != nil {
				s.logger.WarnContext(ctx, "failed to cache stats", "key", key, "error", err)
			}
		}
	}
	return stats, nil
}

func (s *RecordService) statsKey(ctx context.Context, filter model.RecordFilter) string {
	version := "0"
	b, err := s.cache.Get(ctx, StatsVersionKey)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "failed to read stats cache version", "error", err)
		return ""
	case len(b) > 0:
		version = string(b)
	}
	return "stats:" + version + ":" + filter.CacheKey()
}

func (s *RecordService) cachedStats(ctx context.Context, key string) *model.RecordStats {
	if key == "" {
		return nil
	}
	b, err := s.cache.Get(ctx, key)
	if err != nil || b == nil {
		return nil
	}
	var stats model.RecordStats
	if err := json.Unmarshal(b, &stats); err != nil {
		s.logger.WarnContext(ctx, "discarding undecodable cached stats", "key", key, "error", err)
		return nil
	}
	return &stats
}

// Overview loads the gate, the newest records and all-time stats concurrently.
func (s *RecordService) Overview(ctx context.Context) (*model.DispatchOverview, error) {
	var (
		out    model.DispatchOverview
		cfg    *model.DispatchConfig
		stats  *model.RecordStats
		recent []*model.DispatchRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.configs.Get(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.Stats(gctx, model.RecordFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.records.List(gctx, model.RecordListOptions{Limit: overviewRecentSize})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dispatch overview: %w", err)
	}

	out.Config = *cfg
	out.Stats = *stats
	out.Recent = recent
	if len(recent) > 0 {
		out.Latest = recent[0]
	}
	return &out, nil
}

// Latest returns the newest record, or nil when none exist.
func (s *RecordService) Latest(ctx context.Context) (*model.DispatchRecord, error) {
	rec, err := s.records.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest record: %w", err)
	}
	return rec, nil
}

// Subscribe returns a channel signalled after each committed dispatch and an unsubscribe func.
func (s *RecordService) Subscribe() (func(), <-chan struct{}, error) {
	if s.feed == nil {
		return nil, nil, ErrChangeFeedDisabled
	}
	unsub, ch := s.feed.Subscribe()
	return unsub, ch, nil
}

// Close stops the change feed listener.
func (s *RecordService) Close() {
	if s.feed != nil {
		s.feed.StopAll()
	}
}
