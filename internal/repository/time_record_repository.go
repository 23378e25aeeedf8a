package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"worklog/backend/internal/model"
	"worklog/backend/internal/notify"
)

type TimeRecordRepository struct {
	db       *sql.DB
	notifier *notify.Broadcaster
}

func NewTimeRecordRepository(db *sql.DB, notifier *notify.Broadcaster) *TimeRecordRepository {
	return &TimeRecordRepository{db: db, notifier: notifier}
}

func (r *TimeRecordRepository) BreakTimes() *BreakTimeRepository {
	return &BreakTimeRepository{db: r.db, notifier: r.notifier}
}

// RecordsForMonth returns the month's records ordered by check-in, then insertion.
func (r *TimeRecordRepository) RecordsForMonth(ctx context.Context, year int, month time.Month) ([]model.TimeRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, year, month, check_in, check_out
		 FROM time_records
		 WHERE year = ? AND month = ?
		 ORDER BY check_in IS NOT NULL, check_in, rowid`,
		year,
		int(month),
	)
	if err != nil {
		return nil, fmt.Errorf("list time records: %w", err)
	}
	defer rows.Close()

	records := make([]model.TimeRecord, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		record, scanErr := scanTimeRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		index[record.ID] = len(records)
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time records: %w", err)
	}

	breakRows, err := r.db.QueryContext(
		ctx,
		`SELECT b.id, b.record_id, b.start_at, b.end_at
		 FROM break_times b
		 JOIN time_records t ON t.id = b.record_id
		 WHERE t.year = ? AND t.month = ?
		 ORDER BY b.rowid`,
		year,
		int(month),
	)
	if err != nil {
		return nil, fmt.Errorf("list break times: %w", err)
	}
	defer breakRows.Close()

	for breakRows.Next() {
		breakTime, recordID, scanErr := scanBreakTime(breakRows)
		if scanErr != nil {
			return nil, scanErr
		}
		if i, ok := index[recordID]; ok {
			records[i].BreakTimes = append(records[i].BreakTimes, *breakTime)
		}
	}
	if err := breakRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate break times: %w", err)
	}

	return records, nil
}

func (r *TimeRecordRepository) Get(ctx context.Context, id uuid.UUID) (model.TimeRecord, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, year, month, check_in, check_out FROM time_records WHERE id = ?`,
		id.String(),
	)
	record, err := scanTimeRecord(row)
	if err != nil {
		return model.TimeRecord{}, err
	}

	breaks, err := listBreakTimes(ctx, r.db, id)
	if err != nil {
		return model.TimeRecord{}, err
	}
	record.BreakTimes = breaks
	return *record, nil
}

// Insert stores the record and its breaks under the identities they carry.
func (r *TimeRecordRepository) Insert(ctx context.Context, record model.TimeRecord) (model.TimeRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TimeRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO time_records (id, year, month, check_in, check_out) VALUES (?, ?, ?, ?, ?)`,
		record.ID.String(),
		record.Year,
		int(record.Month),
		nullableTime(record.CheckIn),
		nullableTime(record.CheckOut),
	); err != nil {
		return model.TimeRecord{}, fmt.Errorf("insert time record: %w", err)
	}

	for _, b := range record.BreakTimes {
		if err := upsertBreakTime(ctx, tx, record.ID, b); err != nil {
			return model.TimeRecord{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.TimeRecord{}, fmt.Errorf("commit insert time record: %w", err)
	}
	r.notifier.Notify()
	return record.Clone(), nil
}

// Update replaces the record's fields and its whole break collection.
func (r *TimeRecordRepository) Update(ctx context.Context, record model.TimeRecord) (model.TimeRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TimeRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE time_records
		 SET year = ?,
		     month = ?,
		     check_in = ?,
		     check_out = ?
		 WHERE id = ?`,
		record.Year,
		int(record.Month),
		nullableTime(record.CheckIn),
		nullableTime(record.CheckOut),
		record.ID.String(),
	)
	if err != nil {
		return model.TimeRecord{}, fmt.Errorf("update time record: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return model.TimeRecord{}, ErrNotFound
	}

	keep := make([]uuid.UUID, 0, len(record.BreakTimes))
	for _, b := range record.BreakTimes {
		if err := upsertBreakTime(ctx, tx, record.ID, b); err != nil {
			return model.TimeRecord{}, err
		}
		keep = append(keep, b.ID)
	}
	if err := deleteChildrenExcept(ctx, tx, "break_times", "record_id", record.ID, keep); err != nil {
		return model.TimeRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.TimeRecord{}, fmt.Errorf("commit update time record: %w", err)
	}
	r.notifier.Notify()
	return record.Clone(), nil
}

func (r *TimeRecordRepository) Delete(ctx context.Context, record model.TimeRecord) error {
	return r.DeleteByID(ctx, record.ID)
}

// DeleteByID removes the record and its breaks; a missing record is not an error.
func (r *TimeRecordRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM break_times WHERE record_id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete break times: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM time_records WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete time record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete time record: %w", err)
	}
	r.notifier.Notify()
	return nil
}

// BreakTimeRepository addresses breaks individually, keyed by their parent record.
type BreakTimeRepository struct {
	db       *sql.DB
	notifier *notify.Broadcaster
}

func (r *BreakTimeRepository) Get(ctx context.Context, id uuid.UUID) (model.BreakTime, uuid.UUID, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, record_id, start_at, end_at FROM break_times WHERE id = ?`,
		id.String(),
	)
	breakTime, recordID, err := scanBreakTime(row)
	if err != nil {
		return model.BreakTime{}, uuid.Nil, err
	}
	return *breakTime, recordID, nil
}

// Replace overwrites start and end of an existing break.
func (r *BreakTimeRepository) Replace(ctx context.Context, breakTime model.BreakTime) (model.BreakTime, error) {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE break_times SET start_at = ?, end_at = ? WHERE id = ?`,
		nullableTime(breakTime.Start),
		nullableTime(breakTime.End),
		breakTime.ID.String(),
	)
	if err != nil {
		return model.BreakTime{}, fmt.Errorf("update break time: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return model.BreakTime{}, ErrNotFound
	}
	r.notifier.Notify()
	return breakTime, nil
}

func (r *BreakTimeRepository) InsertChild(ctx context.Context, recordID uuid.UUID, breakTime model.BreakTime) (model.BreakTime, error) {
	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO break_times (id, record_id, start_at, end_at) VALUES (?, ?, ?, ?)`,
		breakTime.ID.String(),
		recordID.String(),
		nullableTime(breakTime.Start),
		nullableTime(breakTime.End),
	); err != nil {
		return model.BreakTime{}, fmt.Errorf("insert break time: %w", err)
	}
	r.notifier.Notify()
	return breakTime, nil
}

func (r *BreakTimeRepository) UpdateChild(ctx context.Context, _ uuid.UUID, breakTime model.BreakTime) (model.BreakTime, error) {
	return r.Replace(ctx, breakTime)
}

func (r *BreakTimeRepository) DeleteChild(ctx context.Context, recordID uuid.UUID, breakTime model.BreakTime) error {
	if _, err := r.db.ExecContext(
		ctx,
		`DELETE FROM break_times WHERE id = ? AND record_id = ?`,
		breakTime.ID.String(),
		recordID.String(),
	); err != nil {
		return fmt.Errorf("delete break time: %w", err)
	}
	r.notifier.Notify()
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func upsertBreakTime(ctx context.Context, tx execer, recordID uuid.UUID, b model.BreakTime) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO break_times (id, record_id, start_at, end_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     record_id = excluded.record_id,
		     start_at = excluded.start_at,
		     end_at = excluded.end_at`,
		b.ID.String(),
		recordID.String(),
		nullableTime(b.Start),
		nullableTime(b.End),
	)
	if err != nil {
		return fmt.Errorf("upsert break time: %w", err)
	}
	return nil
}

// deleteChildrenExcept removes the parent's children whose id is not in keep.
func deleteChildrenExcept(ctx context.Context, tx execer, table, parentColumn string, parentID uuid.UUID, keep []uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, parentColumn)
	args := []interface{}{parentID.String()}
	if len(keep) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")
		query += fmt.Sprintf(` AND id NOT IN (%s)`, placeholders)
		for _, id := range keep {
			args = append(args, id.String())
		}
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune %s: %w", table, err)
	}
	return nil
}

func listBreakTimes(ctx context.Context, q querier, recordID uuid.UUID) ([]model.BreakTime, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT id, record_id, start_at, end_at FROM break_times WHERE record_id = ? ORDER BY rowid`,
		recordID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list break times: %w", err)
	}
	defer rows.Close()

	breaks := make([]model.BreakTime, 0)
	for rows.Next() {
		breakTime, _, scanErr := scanBreakTime(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		breaks = append(breaks, *breakTime)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate break times: %w", err)
	}
	return breaks, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTimeRecord(s scanner) (*model.TimeRecord, error) {
	record := model.TimeRecord{}
	var id string
	var month int
	var checkIn sql.NullString
	var checkOut sql.NullString
	err := s.Scan(&id, &record.Year, &month, &checkIn, &checkOut)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan time record: %w", err)
	}

	record.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse time record id: %w", err)
	}
	record.Month = time.Month(month)

	record.CheckIn, err = parseNullTime(checkIn)
	if err != nil {
		return nil, fmt.Errorf("parse time record check_in: %w", err)
	}
	record.CheckOut, err = parseNullTime(checkOut)
	if err != nil {
		return nil, fmt.Errorf("parse time record check_out: %w", err)
	}
	record.BreakTimes = make([]model.BreakTime, 0)
	return &record, nil
}

func scanBreakTime(s scanner) (*model.BreakTime, uuid.UUID, error) {
	var id, recordID string
	var start, end sql.NullString
	if err := s.Scan(&id, &recordID, &start, &end); err != nil {
		if err == sql.ErrNoRows {
			return nil, uuid.Nil, ErrNotFound
		}
		return nil, uuid.Nil, fmt.Errorf("scan break time: %w", err)
	}

	breakID, err := uuid.Parse(id)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse break time id: %w", err)
	}
	parentID, err := uuid.Parse(recordID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse break time record_id: %w", err)
	}

	breakTime := model.BreakTime{ID: breakID}
	breakTime.Start, err = parseNullTime(start)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse break time start_at: %w", err)
	}
	breakTime.End, err = parseNullTime(end)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse break time end_at: %w", err)
	}
	return &breakTime, parentID, nil
}
