package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/route-settlement/internal/common"
	"github.com/joseph-ayodele/route-settlement/internal/settlement"
)

const (
	timeLayout = time.RFC3339Nano
	dateLayout = "2006-01-02"
)

// RunRecord summarizes one batch run.
type RunRecord struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Documents  int
	Drivers    int
	Warnings   int
	Errors     int
	OutputPath string
}

type RunRepository interface {
	SaveRun(ctx context.Context, run RunRecord, settlements []settlement.Settlement) error
	ListRuns(ctx context.Context) ([]RunRecord, error)
	RowsForRun(ctx context.Context, id uuid.UUID) ([]settlement.Row, error)
}

type runRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewRunRepository(db *DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepository{db: db, logger: logger}
}

// SaveRun stores the run and every settlement row in a single transaction.
func (r *runRepository) SaveRun(ctx context.Context, run RunRecord, settlements []settlement.Settlement) (err error) {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return dbError("begin archive transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO settlement_runs
		(id, started_at, finished_at, documents, drivers, warnings, errors, output_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID.String(),
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Documents, run.Drivers, run.Warnings, run.Errors, run.OutputPath,
	)
	if err != nil {
		return dbError("insert settlement run", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`INSERT INTO settlement_rows
		(run_id, seq, driver, row_date, is_total, vehicle_type, delivered, failed,
		 delivery_revenue, discount, calculated_surcharge, paid_surcharge, day_total, bonus)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return dbError("prepare settlement rows", err)
	}
	defer func() { _ = stmt.Close() }()

	seq := 0
	for _, s := range settlements {
		for _, row := range s.Rows {
			date := ""
			if !row.IsTotal {
				date = row.Date.Format(dateLayout)
			}
			_, err = stmt.ExecContext(ctx,
				run.ID.String(), seq, s.Driver, date, row.IsTotal, row.VehicleType,
				row.Delivered, row.Failed,
				row.DeliveryRevenue.String(), row.Discount.String(), row.CalculatedSurcharge.String(),
				row.PaidSurcharge.String(), row.DayTotal.String(), row.Bonus.String(),
			)
			if err != nil {
				return dbError(fmt.Sprintf("insert row %d of %s", seq, s.Driver), err)
			}
			seq++
		}
	}

	if err = tx.Commit(); err != nil {
		return dbError("commit archive transaction", err)
	}
	r.logger.Info("archived settlement run", "run_id", run.ID, "drivers", len(settlements), "rows", seq)
	return nil
}

// ListRuns returns archived runs, most recent first.
func (r *runRepository) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `SELECT id, started_at, finished_at, documents, drivers, warnings, errors, output_path
		FROM settlement_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, dbError("list runs", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		var (
			rec             RunRecord
			id              string
			started, finish string
		)
		if err := rows.Scan(&id, &started, &finish, &rec.Documents, &rec.Drivers, &rec.Warnings, &rec.Errors, &rec.OutputPath); err != nil {
			return nil, dbError("scan run", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, dbError("parse run id", err)
		}
		if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, dbError("parse started_at", err)
		}
		if rec.FinishedAt, err = time.Parse(timeLayout, finish); err != nil {
			return nil, dbError("parse finished_at", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RowsForRun returns the stored rows of a run in insertion order.
func (r *runRepository) RowsForRun(ctx context.Context, id uuid.UUID) ([]settlement.Row, error) {
	var exists int
	err := r.db.SQL.QueryRowContext(ctx, r.db.Rebind(`SELECT 1 FROM settlement_runs WHERE id = ?`), id.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeArchive, fmt.Sprintf("run %s", id), common.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("lookup run", err)
	}

	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(`SELECT driver, row_date, is_total, vehicle_type, delivered, failed,
		delivery_revenue, discount, calculated_surcharge, paid_surcharge, day_total, bonus
		FROM settlement_rows WHERE run_id = ? ORDER BY seq`), id.String())
	if err != nil {
		return nil, dbError("query rows", err)
	}
	defer func() { _ = rows.Close() }()

	var out []settlement.Row
	for rows.Next() {
		var (
			row  settlement.Row
			date string
		)
		err := rows.Scan(&row.Driver, &date, &row.IsTotal, &row.VehicleType, &row.Delivered, &row.Failed,
			&row.DeliveryRevenue, &row.Discount, &row.CalculatedSurcharge, &row.PaidSurcharge, &row.DayTotal, &row.Bonus)
		if err != nil {
			return nil, dbError("scan row", err)
		}
		if !row.IsTotal {
			if row.Date, err = time.Parse(dateLayout, date); err != nil {
				return nil, dbError("parse row date", err)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func dbError(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, common.ErrDatabase, err)
}
