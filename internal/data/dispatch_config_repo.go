package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/target/ticketgate/internal/core"
	"github.com/target/ticketgate/internal/data/pgxutil"
	"github.com/target/ticketgate/internal/domain/model"
	apperrors "github.com/target/ticketgate/internal/errors"
)

// ChangesChannel is the LISTEN/NOTIFY channel announcing committed dispatches.
const ChangesChannel = "dispatch_changes"

const unlistenTimeout = 2 * time.Second

// DispatchConfigRepo owns the single dispatch_config row and the transactional writes made under its lock.
type DispatchConfigRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider

	listenMu sync.Mutex
	listener *sql.Conn
}

// NewDispatchConfigRepo creates a DispatchConfigRepo with the given database connection.
func NewDispatchConfigRepo(db *sql.DB) *DispatchConfigRepo {
	return &DispatchConfigRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewDispatchConfigRepoWithTimeProvider creates a DispatchConfigRepo with a custom TimeProvider (useful for testing).
func NewDispatchConfigRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *DispatchConfigRepo {
	return &DispatchConfigRepo{DB: db, timeProvider: tp}
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const configSelect = `SELECT id, last_sent_at, interval_minutes, updated_at FROM dispatch_config LIMIT 1`

// Get returns the effective gate state without locking.
// LastSentAt is the later of the stored value and the newest record's sent_at.
func (r *DispatchConfigRepo) Get(ctx context.Context) (*model.DispatchConfig, error) {
	return readConfig(ctx, r.DB, configSelect)
}

func readConfig(ctx context.Context, q rowQueryer, query string) (*model.DispatchConfig, error) {
	var (
		cfg      model.DispatchConfig
		lastSent sql.NullTime
	)
	err := q.QueryRowContext(ctx, query).Scan(&cfg.ID, &lastSent, &cfg.IntervalMinutes, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no dispatch_config row", model.ErrConfigUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read dispatch_config: %w", model.ErrConfigUnavailable, apperrors.MapDBError(err))
	}

	var newest sql.NullTime
	if err := q.QueryRowContext(ctx, `SELECT max(sent_at) FROM dispatch_records`).Scan(&newest); err != nil {
		return nil, fmt.Errorf("%w: read newest record: %w", model.ErrConfigUnavailable, apperrors.MapDBError(err))
	}

	cfg.LastSentAt = latest(lastSent, newest)
	return &cfg, nil
}

func latest(a, b sql.NullTime) *time.Time {
	switch {
	case a.Valid && b.Valid:
		if b.Time.After(a.Time) {
			return &b.Time
		}
		return &a.Time
	case a.Valid:
		return &a.Time
	case b.Valid:
		return &b.Time
	default:
		return nil
	}
}

// WithConfigLock locks the gate row with SELECT ... FOR UPDATE and runs fn inside the same transaction.
// Concurrent callers block until the holder commits or rolls back. When fn wrote a record the change
// is announced on ChangesChannel, which Postgres delivers only after commit.
//
// Errors: failing to begin or read maps to model.ErrConfigUnavailable; a commit failure maps to
// model.ErrPersistenceFailure; errors from fn are returned unchanged.
func (r *DispatchConfigRepo) WithConfigLock(ctx context.Context, fn core.LockedDispatchFunc) error {
	var (
		started bool
		fnDone  bool
		fnErr   error
	)
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			started = true
			cfg, err := readConfig(ctx, tx, configSelect+` FOR UPDATE`)
			if err != nil {
				return err
			}
			dtx := &sqlDispatchTx{tx: tx, configID: cfg.ID, now: r.timeProvider.Now}
			fnErr = fn(ctx, *cfg, dtx)
			fnDone = true
			if fnErr != nil {
				return fnErr
			}
			if dtx.recordID == "" {
				return nil
			}
			if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1::text, $2::text)`, ChangesChannel, dtx.recordID); err != nil {
				return fmt.Errorf("%w: notify %s: %w", model.ErrPersistenceFailure, ChangesChannel, err)
			}
			return nil
		},
	})
	switch {
	case err == nil:
		return nil
	case !started:
		return fmt.Errorf("%w: %w", model.ErrConfigUnavailable, apperrors.MapDBError(err))
	case fnDone && fnErr == nil && !errors.Is(err, model.ErrPersistenceFailure):
		return fmt.Errorf("%w: %w", model.ErrPersistenceFailure, apperrors.MapDBError(err))
	default:
		return err
	}
}

// WaitForChange waits for a notification on ChangesChannel.
//
// The LISTEN connection is kept between calls, so announcements committed while nobody is
// waiting are delivered by the next call. Concurrent callers take turns on that connection.
func (r *DispatchConfigRepo) WaitForChange(ctx context.Context) error {
	r.listenMu.Lock()
	defer r.listenMu.Unlock()

	conn, err := r.listenConn(ctx)
	if err != nil {
		return err
	}

	broken := false
	err = conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			broken = true
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, notifyErr := sc.Conn().WaitForNotification(ctx)
		broken = sc.Conn().IsClosed()
		return notifyErr
	})
	if err != nil && (broken || ctx.Err() == nil) {
		r.releaseListener()
	}
	return err
}

// StopListening releases the connection held between WaitForChange calls.
func (r *DispatchConfigRepo) StopListening() {
	r.listenMu.Lock()
	defer r.listenMu.Unlock()
	r.releaseListener()
}

func (r *DispatchConfigRepo) listenConn(ctx context.Context) (*sql.Conn, error) {
	if r.listener != nil {
		return r.listener, nil
	}
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get conn from pool: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "LISTEN "+pgx.Identifier{ChangesChannel}.Sanitize()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("listen %s: %w", ChangesChannel, err)
	}
	r.listener = conn
	return conn, nil
}

// releaseListener returns the listening connection to the pool. Callers hold listenMu.
func (r *DispatchConfigRepo) releaseListener() {
	if r.listener == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
	defer cancel()
	_, _ = r.listener.ExecContext(ctx, "UNLISTEN "+pgx.Identifier{ChangesChannel}.Sanitize())
	_ = r.listener.Close()
	r.listener = nil
}

// sqlDispatchTx implements core.DispatchTx over the transaction holding the gate lock.
type sqlDispatchTx struct {
	tx       *sql.Tx
	configID string
	now      func() time.Time
	recordID string
}

const recordReturning = `
  id,
  (value * 100)::bigint AS value,
  (delivery_rate * 10)::integer AS delivery_rate,
  destination,
  notify_status,
  notify_error,
  sent_at
`

func (t *sqlDispatchTx) InsertRecord(ctx context.Context, rec model.NewDispatchRecord) (*model.DispatchRecord, error) {
	sentAt := rec.SentAt
	if sentAt.IsZero() {
		sentAt = t.now()
	}
	status := rec.NotifyStatus
	if status == "" {
		status = model.NotifyStatusOK
	}

	var (
		out       model.DispatchRecord
		notifyErr sql.NullString
	)
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO dispatch_records (id, value, delivery_rate, destination, notify_status, notify_error, sent_at)
		VALUES ($1, $2::numeric / 100, $3::numeric / 10, $4, $5, $6, $7)
		RETURNING `+recordReturning,
		uuid.NewString(), int64(rec.Value), int(rec.DeliveryRate), rec.Destination,
		string(status), rec.NotifyError, sentAt.UTC(),
	).Scan(&out.ID, &out.Value, &out.DeliveryRate, &out.Destination, &out.NotifyStatus, &notifyErr, &out.SentAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert record: %w", model.ErrPersistenceFailure, apperrors.MapDBError(err))
	}
	if notifyErr.Valid {
		out.NotifyError = &notifyErr.String
	}
	t.recordID = out.ID
	return &out, nil
}

func (t *sqlDispatchTx) AdvanceConfig(ctx context.Context, adv model.AdvanceConfig) error {
	id := adv.ID
	if id == "" {
		id = t.configID
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE dispatch_config
		SET last_sent_at = $1, interval_minutes = $2, updated_at = $3
		WHERE id = $4`,
		adv.LastSentAt.UTC(), adv.IntervalMinutes, t.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("%w: advance config: %w", model.ErrPersistenceFailure, apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: advance config rows affected: %w", model.ErrPersistenceFailure, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: advance config: dispatch_config row %s not found", model.ErrPersistenceFailure, id)
	}
	return nil
}

var (
	_ core.DispatchConfigRepository = (*DispatchConfigRepo)(nil)
	_ core.ChangeWaiter             = (*DispatchConfigRepo)(nil)
	_ core.DispatchTx               = (*sqlDispatchTx)(nil)
)
