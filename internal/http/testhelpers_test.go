package httpx

import (
	"context"

	"github.com/target/ticketgate/internal/domain/model"
)

type fakeDispatch struct {
	outcome *model.DispatchOutcome
	status  *model.GateStatus
	err     error
	calls   int
}

func (f *fakeDispatch) Dispatch(context.Context) (*model.DispatchOutcome, error) {
	f.calls++
	return f.outcome, f.err
}

func (f *fakeDispatch) Status(context.Context) (*model.GateStatus, error) {
	return f.status, f.err
}

type fakeRecords struct {
	records  []*model.DispatchRecord
	stats    *model.RecordStats
	days     []model.DailyTotal
	overview *model.DispatchOverview
	latest   *model.DispatchRecord
	err      error
	subErr   error
	changes  chan struct{}

	gotList   model.RecordListOptions
	gotFilter model.RecordFilter
}

func (f *fakeRecords) List(_ context.Context, opts model.RecordListOptions) ([]*model.DispatchRecord, error) {
	f.gotList = opts
	return f.records, f.err
}

func (f *fakeRecords) Stats(_ context.Context, filter model.RecordFilter) (*model.RecordStats, error) {
	f.gotFilter = filter
	return f.stats, f.err
}

func (f *fakeRecords) DailyTotals(_ context.Context, filter model.RecordFilter) ([]model.DailyTotal, error) {
	f.gotFilter = filter
	return f.days, f.err
}

func (f *fakeRecords) Overview(context.Context) (*model.DispatchOverview, error) {
	return f.overview, f.err
}

func (f *fakeRecords) Latest(context.Context) (*model.DispatchRecord, error) {
	return f.latest, f.err
}

func (f *fakeRecords) Subscribe() (func(), <-chan struct{}, error) {
	if f.subErr != nil {
		return nil, nil, f.subErr
	}
	return func() {}, f.changes, nil
}
