package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/ticketgate/internal/core"
	"github.com/target/ticketgate/internal/data/pgxutil"
	"github.com/target/ticketgate/internal/domain/model"
	apperrors "github.com/target/ticketgate/internal/errors"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 1000
)

// DispatchRecordRepo provides read access to dispatch_records.
type DispatchRecordRepo struct {
	DB *sql.DB
}

// NewDispatchRecordRepo creates a new DispatchRecordRepo.
func NewDispatchRecordRepo(db *sql.DB) *DispatchRecordRepo {
	return &DispatchRecordRepo{DB: db}
}

// recordRow matches the projection in recordReturning for pgx.RowToStructByName.
type recordRow struct {
	ID           string         `db:"id"`
	Value        int64          `db:"value"`
	DeliveryRate int32          `db:"delivery_rate"`
	Destination  string         `db:"destination"`
	NotifyStatus string         `db:"notify_status"`
	NotifyError  sql.NullString `db:"notify_error"`
	SentAt       time.Time      `db:"sent_at"`
}

func (r recordRow) toModel() *model.DispatchRecord {
	rec := &model.DispatchRecord{
		ID:           r.ID,
		Value:        model.Amount(r.Value),
		DeliveryRate: model.DeliveryRate(r.DeliveryRate),
		Destination:  r.Destination,
		NotifyStatus: model.NotifyStatus(r.NotifyStatus),
		SentAt:       r.SentAt,
	}
	if r.NotifyError.Valid {
		rec.NotifyError = &r.NotifyError.String
	}
	return rec
}

// buildRecordWhere renders the inclusive filter bounds as a WHERE clause starting at placeholder $1.
func buildRecordWhere(f model.RecordFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}
	if f.From != nil {
		add("sent_at >= $%d", f.From.UTC())
	}
	if f.To != nil {
		add("sent_at <= $%d", f.To.UTC())
	}
	if f.MinValue != nil {
		add("value >= $%d::numeric / 100", int64(*f.MinValue))
	}
	if f.MaxValue != nil {
		add("value <= $%d::numeric / 100", int64(*f.MaxValue))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecordLimit
	case limit > maxRecordLimit:
		return maxRecordLimit
	default:
		return limit
	}
}

// List returns records matching opts, newest first.
func (r *DispatchRecordRepo) List(ctx context.Context, opts model.RecordListOptions) ([]*model.DispatchRecord, error) {
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}
	where, args := buildRecordWhere(opts.Filter)
	args = append(args, clampLimit(opts.Limit), max(opts.Offset, 0))
	query := `SELECT ` + recordReturning + ` FROM dispatch_records` + where +
		fmt.Sprintf(` ORDER BY sent_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var out []*model.DispatchRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		recs, err := pgx.CollectRows(rows, pgx.RowToStructByName[recordRow])
		if err != nil {
			return err
		}
		out = make([]*model.DispatchRecord, 0, len(recs))
		for _, rec := range recs {
			out = append(out, rec.toModel())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list dispatch records: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// Latest returns the most recent record, or nil when none exist.
func (r *DispatchRecordRepo) Latest(ctx context.Context) (*model.DispatchRecord, error) {
	var out *model.DispatchRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+recordReturning+` FROM dispatch_records ORDER BY sent_at DESC, id DESC LIMIT 1`)
		if err != nil {
			return err
		}
		rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[recordRow])
		if err != nil {
			return err
		}
		out = rec.toModel()
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest dispatch record: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// Stats summarizes records matching filter.
func (r *DispatchRecordRepo) Stats(ctx context.Context, filter model.RecordFilter) (*model.RecordStats, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	where, args := buildRecordWhere(filter)

	var (
		s       model.RecordStats
		revenue int64
		avg     int64
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT
		  COALESCE(SUM(value * 100), 0)::bigint,
		  count(*),
		  COALESCE(ROUND(AVG(value) * 100), 0)::bigint,
		  COALESCE(AVG(delivery_rate), 0)::float8
		FROM dispatch_records`+where, args...,
	).Scan(&revenue, &s.TotalCount, &avg, &s.AverageDeliveryRate)
	if err != nil {
		return nil, fmt.Errorf("dispatch record stats: %w", apperrors.MapDBError(err))
	}
	s.TotalRevenue = model.Amount(revenue)
	s.AverageValue = model.Amount(avg)
	return &s, nil
}

// DailyTotals groups records matching filter by UTC day, oldest first.
func (r *DispatchRecordRepo) DailyTotals(ctx context.Context, filter model.RecordFilter) ([]model.DailyTotal, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	where, args := buildRecordWhere(filter)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT
		  date_trunc('day', sent_at AT TIME ZONE 'UTC') AS day,
		  SUM(value * 100)::bigint AS revenue,
		  count(*) AS n
		FROM dispatch_records`+where+`
		GROUP BY 1
		ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", apperrors.MapDBError(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []model.DailyTotal
	for rows.Next() {
		var (
			d       model.DailyTotal
			revenue int64
		)
		if err := rows.Scan(&d.Day, &revenue, &d.Count); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		d.Day = time.Date(d.Day.Year(), d.Day.Month(), d.Day.Day(), 0, 0, 0, 0, time.UTC)
		d.Revenue = model.Amount(revenue)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}

var _ core.RecordRepository = (*DispatchRecordRepo)(nil)
