package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jirevwe/litepool/journal"
	"github.com/jirevwe/litepool/packer"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// rfc3339Milli is like time.RFC3339Nano, but with millisecond precision
	rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"
)

var (
	ErrTaskNotFound = errors.New("task not found in journal")

	createTasks = `create table if not exists tasks (
			id TEXT not null primary key,
			worker TEXT not null,
			status TEXT not null,
			detail BLOB,
			created_at TEXT not null default (strftime('%Y-%m-%dT%H:%M:%fZ')),
			updated_at TEXT not null
		) strict;`

	createTasksStatusIndex = `create index if not exists tasks_status on tasks (status);`
)

type task struct {
	Id        string `db:"id"`
	Worker    string `db:"worker"`
	Status    string `db:"status"`
	Detail    []byte `db:"detail"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (t *task) toEntry() (journal.Entry, error) {
	e := journal.Entry{
		TaskId: t.Id,
		Worker: t.Worker,
		Status: t.Status,
	}

	at, err := time.Parse(rfc3339Milli, t.UpdatedAt)
	if err == nil {
		e.At = at
	}

	if len(t.Detail) > 0 {
		e.Detail = &journal.Detail{}
		if err = packer.Decode(t.Detail, e.Detail); err != nil {
			return journal.Entry{}, err
		}
	}

	return e, nil
}

// Sqlite is a journal.Journal that keeps the latest status of every task in a
// sqlite database.
type Sqlite struct {
	logger *slog.Logger
	db     *sqlx.DB
}

var _ journal.Journal = (*Sqlite)(nil)

func NewSqlite(dbPath string, logger *slog.Logger) (*Sqlite, error) {
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("%s?mode=rwc&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, err
	}

	// sqlite has a single writer; every worker records through this handle
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_size_limit = 67108864;")
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA cache_size = 2000;")
	if err != nil {
		return nil, err
	}

	s := &Sqlite{db: db, logger: logger}

	ctx := context.Background()
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, createTasks); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, createTasksStatusIndex); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Record stores the entry as the task's latest status. A task can't move back
// to a lower status, e.g. from finished to active.
func (s *Sqlite) Record(ctx context.Context, entry journal.Entry) error {
	var detail []byte
	if entry.Detail != nil {
		raw, err := packer.Encode(entry.Detail)
		if err != nil {
			return err
		}
		detail = raw
	}

	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}

	upsert := `insert into tasks (id, worker, status, detail, updated_at) values ($1, $2, $3, $4, $5)
		on conflict (id) do update set worker = excluded.worker, status = excluded.status,
		detail = excluded.detail, updated_at = excluded.updated_at`

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var current string
		err := tx.GetContext(ctx, &current, `select status from tasks where id = $1`, entry.TaskId)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if err == nil && journal.StatusLevel(current) > journal.StatusLevel(entry.Status) {
			return fmt.Errorf("task %s is already in the %s state", entry.TaskId, current)
		}

		_, err = tx.ExecContext(ctx, upsert, entry.TaskId, entry.Worker, entry.Status, detail, at.UTC().Format(rfc3339Milli))
		return err
	})
}

// Get returns the latest entry recorded for a task
func (s *Sqlite) Get(ctx context.Context, taskId string) (journal.Entry, error) {
	var row task
	err := s.db.GetContext(ctx, &row, `select * from tasks where id = $1`, taskId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return journal.Entry{}, fmt.Errorf("%s: %w", taskId, ErrTaskNotFound)
		}
		return journal.Entry{}, err
	}

	return row.toEntry()
}

// ListByStatus returns the tasks whose latest status is status, oldest first.
func (s *Sqlite) ListByStatus(ctx context.Context, status string) ([]journal.Entry, error) {
	rows, err := s.db.QueryxContext(ctx, `select * from tasks where status = $1 order by id`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var row task
		if err = rows.StructScan(&row); err != nil {
			return nil, err
		}

		e, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Truncate removes every recorded task
func (s *Sqlite) Truncate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `delete from tasks`)
	return err
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}

func (s *Sqlite) inTx(ctx context.Context, cb func(*sqlx.Tx) error) (err error) {
	tx, beginErr := s.db.BeginTxx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("cannot start tx: %w", beginErr)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = rollback(tx, nil)
			panic(rec)
		}
	}()

	if err = cb(tx); err != nil {
		return rollback(tx, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("cannot commit tx: %w", commitErr)
	}

	return nil
}

func rollback(tx *sqlx.Tx, err error) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		return fmt.Errorf("cannot roll back tx after error (tx error: %v), original error: %w", rollbackErr, err)
	}
	return err
}
