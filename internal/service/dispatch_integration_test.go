package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/target/ticketgate/internal/data"
	"github.com/target/ticketgate/internal/domain/dispatch"
	"github.com/target/ticketgate/internal/domain/model"
	"github.com/target/ticketgate/internal/observability/notify/pushcut"
	"github.com/target/ticketgate/internal/testutil"
)

// unreachableHook refuses connections immediately.
const unreachableHook = "http://127.0.0.1:1/hook"

func newIntegrationService(t *testing.T, db *sql.DB) (*DispatchService, *data.DispatchConfigRepo) {
	t.Helper()
	catalog, err := dispatch.NewCatalog(dispatch.DefaultVariants(unreachableHook))
	require.NoError(t, err)
	repo := data.NewDispatchConfigRepo(db)
	svc, err := NewDispatchService(DispatchServiceOptions{
		Configs:       repo,
		Notifier:      pushcut.NewClient(pushcut.Config{Timeout: time.Second}),
		Catalog:       catalog,
		NotifyTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return svc, repo
}

func TestDispatchService_Integration_UnreachableNotifierThenIneligible(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		testutil.SetLastSent(t, db, nil, 10)
		svc, repo := newIntegrationService(t, db)

		first, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		require.True(t, first.Dispatched())
		require.NotNil(t, first.Record)
		assert.Equal(t, model.NotifyStatusFailed, first.Record.NotifyStatus)
		require.NotNil(t, first.Record.NotifyError)
		assert.Equal(t, unreachableHook, first.Record.Destination)

		var status string
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT notify_status FROM dispatch_records WHERE id = $1`, first.Record.ID,
		).Scan(&status))
		assert.Equal(t, string(model.NotifyStatusFailed), status)

		cfg, err := repo.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg.LastSentAt)
		assert.WithinDuration(t, first.Record.SentAt, *cfg.LastSentAt, time.Millisecond)
		assert.Equal(t, first.NextIntervalMinutes, cfg.IntervalMinutes)
		assert.GreaterOrEqual(t, cfg.IntervalMinutes, dispatch.MinIntervalMinutes)
		assert.LessOrEqual(t, cfg.IntervalMinutes, dispatch.MaxIntervalMinutes)

		second, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.DispatchStatusIneligible, second.Status)
		assert.Nil(t, second.Record)
		assert.Greater(t, second.MinutesRemaining, float64(dispatch.MinIntervalMinutes-1))

		assert.Equal(t, 1, testutil.CountRecords(t, db))
	})
}

func TestDispatchService_Integration_ConcurrentInvocationsDispatchOnce(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		testutil.SetLastSent(t, db, nil, 10)
		svc, _ := newIntegrationService(t, db)

		const callers = 4
		var (
			mu       sync.Mutex
			outcomes []*model.DispatchOutcome
		)
		g, ctx := errgroup.WithContext(context.Background())
		for range callers {
			g.Go(func() error {
				out, err := svc.Dispatch(ctx)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				outcomes = append(outcomes, out)
				return nil
			})
		}
		require.NoError(t, g.Wait())

		dispatched := 0
		for _, out := range outcomes {
			if out.Dispatched() {
				dispatched++
			} else {
				assert.Equal(t, model.DispatchStatusIneligible, out.Status)
			}
		}
		assert.Equal(t, 1, dispatched)
		assert.Equal(t, 1, testutil.CountRecords(t, db))
	})
}
