package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/ticketgate/internal/domain/dispatch"
	"github.com/target/ticketgate/internal/domain/model"
	"github.com/target/ticketgate/internal/mocks"
)

type recordFixture struct {
	records *mocks.MockRecordRepository
	configs *mocks.MockDispatchConfigRepository
	cache   *mocks.MockCacheRepository
	svc     *RecordService
}

func newRecordFixture(t *testing.T, withCache bool) *recordFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &recordFixture{
		records: mocks.NewMockRecordRepository(ctrl),
		configs: mocks.NewMockDispatchConfigRepository(ctrl),
		cache:   mocks.NewMockCacheRepository(ctrl),
	}
	opts := RecordServiceOptions{Records: f.records, Configs: f.configs, StatsTTL: time.Minute}
	if withCache {
		opts.Cache = f.cache
	}
	var err error
	f.svc, err = NewRecordService(opts)
	require.NoError(t, err)
	return f
}

func TestNewRecordService_RequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := NewRecordService(RecordServiceOptions{})
	require.Error(t, err)
	_, err = NewRecordService(RecordServiceOptions{Records: mocks.NewMockRecordRepository(ctrl)})
	require.Error(t, err)
}

func TestRecordService_ListRejectsInvalidFilter(t *testing.T) {
	f := newRecordFixture(t, false)
	from := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := f.svc.List(context.Background(), model.RecordListOptions{Filter: model.RecordFilter{From: &from, To: &to}})
	require.ErrorIs(t, err, model.ErrInvalidFilter)

	_, err = f.svc.DailyTotals(context.Background(), model.RecordFilter{From: &from, To: &to})
	require.ErrorIs(t, err, model.ErrInvalidFilter)
}

func TestRecordService_ListPassesOptions(t *testing.T) {
	f := newRecordFixture(t, false)
	lo := model.Amount(4000)
	opts := model.RecordListOptions{Filter: model.RecordFilter{MinValue: &lo}, Limit: 5, Offset: 10}
	want := []*model.DispatchRecord{{ID: "a"}, {ID: "b"}}
	f.records.EXPECT().List(gomock.Any(), opts).Return(want, nil)

	got, err := f.svc.List(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecordService_StatsWithoutCache(t *testing.T) {
	f := newRecordFixture(t, false)
	want := &model.RecordStats{TotalRevenue: 15588, TotalCount: 2, AverageValue: 7794, AverageDeliveryRate: 76}
	f.records.EXPECT().Stats(gomock.Any(), model.RecordFilter{}).Return(want, nil)

	got, err := f.svc.Stats(context.Background(), model.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecordService_StatsCacheMissThenHit(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()
	want := &model.RecordStats{TotalRevenue: 9690, TotalCount: 2, AverageValue: 4845, AverageDeliveryRate: 58.1}
	key := "stats:rec-9:" + model.RecordFilter{}.CacheKey()

	var stored []byte
	gomock.InOrder(
		f.cache.EXPECT().Get(gomock.Any(), StatsVersionKey).Return([]byte("rec-9"), nil),
		f.cache.EXPECT().Get(gomock.Any(), key).Return(nil, nil),
		f.records.EXPECT().Stats(gomock.Any(), model.RecordFilter{}).Return(want, nil),
		f.cache.EXPECT().Set(gomock.Any(), key, gomock.Any(), time.Minute).DoAndReturn(
			func(_ context.Context, _ string, b []byte, _ time.Duration) error {
				stored = b
				return nil
			}),
	)
	got, err := f.svc.Stats(ctx, model.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	f.cache.EXPECT().Get(gomock.Any(), StatsVersionKey).Return([]byte("rec-9"), nil)
	f.cache.EXPECT().Get(gomock.Any(), key).DoAndReturn(func(context.Context, string) ([]byte, error) {
		return stored, nil
	})
	got, err = f.svc.Stats(ctx, model.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecordService_StatsCacheUnavailableFallsThrough(t *testing.T) {
	f := newRecordFixture(t, true)
	want := &model.RecordStats{TotalCount: 1}
	f.cache.EXPECT().Get(gomock.Any(), StatsVersionKey).Return(nil, errors.New("redis down"))
	f.records.EXPECT().Stats(gomock.Any(), gomock.Any()).Return(want, nil)

	got, err := f.svc.Stats(context.Background(), model.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecordService_StatsDiscardsCorruptEntry(t *testing.T) {
	f := newRecordFixture(t, true)
	want := &model.RecordStats{TotalCount: 3}
	key := "stats:0:" + model.RecordFilter{}.CacheKey()
	f.cache.EXPECT().Get(gomock.Any(), StatsVersionKey).Return(nil, nil)
	f.cache.EXPECT().Get(gomock.Any(), key).Return([]byte("{not json"), nil)
	f.records.EXPECT().Stats(gomock.Any(), gomock.Any()).Return(want, nil)
	f.cache.EXPECT().Set(gomock.Any(), key, gomock.Any(), gomock.Any()).Return(nil)

	got, err := f.svc.Stats(context.Background(), model.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecordService_StatsCachedValueRoundTrips(t *testing.T) {
	in := model.RecordStats{TotalRevenue: 25278, TotalCount: 4, AverageValue: 6320, AverageDeliveryRate: 67.05}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	var out model.RecordStats
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestRecordService_Overview(t *testing.T) {
	f := newRecordFixture(t, false)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := []*model.DispatchRecord{{ID: "new", SentAt: now}, {ID: "old", SentAt: now.Add(-time.Hour)}}

	f.configs.EXPECT().Get(gomock.Any()).Return(&model.DispatchConfig{ID: "cfg", LastSentAt: &now, IntervalMinutes: 7}, nil)
	f.records.EXPECT().Stats(gomock.Any(), model.RecordFilter{}).Return(&model.RecordStats{TotalCount: 2}, nil)
	f.records.EXPECT().List(gomock.Any(), model.RecordListOptions{Limit: overviewRecentSize}).Return(recent, nil)

	ov, err := f.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, ov.Config.IntervalMinutes)
	assert.Equal(t, int64(2), ov.Stats.TotalCount)
	require.NotNil(t, ov.Latest)
	assert.Equal(t, "new", ov.Latest.ID)
	assert.Len(t, ov.Recent, 2)
}

func TestRecordService_OverviewPropagatesErrors(t *testing.T) {
	f := newRecordFixture(t, false)
	f.configs.EXPECT().Get(gomock.Any()).Return(nil, model.ErrConfigUnavailable)
	f.records.EXPECT().Stats(gomock.Any(), gomock.Any()).Return(&model.RecordStats{}, nil).AnyTimes()
	f.records.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	_, err := f.svc.Overview(context.Background())
	require.ErrorIs(t, err, model.ErrConfigUnavailable)
}

func TestRecordService_Subscribe(t *testing.T) {
	f := newRecordFixture(t, false)
	_, _, err := f.svc.Subscribe()
	require.ErrorIs(t, err, ErrChangeFeedDisabled)

	ctrl := gomock.NewController(t)
	waiter := mocks.NewMockChangeWaiter(ctrl)
	fired := make(chan struct{})
	waiter.EXPECT().WaitForChange(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		select {
		case <-fired:
			<-ctx.Done()
			return ctx.Err()
		default:
			close(fired)
			return nil
		}
	}).MinTimes(1)

	feed, err := dispatch.NewChangeFeed(dispatch.ChangeFeedOptions{Waiter: waiter, Backoff: time.Millisecond})
	require.NoError(t, err)
	svc, err := NewRecordService(RecordServiceOptions{Records: f.records, Configs: f.configs, Feed: feed})
	require.NoError(t, err)

	unsub, ch, err := svc.Subscribe()
	require.NoError(t, err)
	defer unsub()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
	svc.Close()
}
