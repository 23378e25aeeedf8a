package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"worklog/backend/internal/model"
	"worklog/backend/internal/notify"
)

type UptimeRepository struct {
	db       *sql.DB
	notifier *notify.Broadcaster
}

func NewUptimeRepository(db *sql.DB, notifier *notify.Broadcaster) *UptimeRepository {
	return &UptimeRepository{db: db, notifier: notifier}
}

func (r *UptimeRepository) SleepRecords() *SleepRecordRepository {
	return &SleepRecordRepository{db: r.db, notifier: r.notifier}
}

func (r *UptimeRepository) RecordsForMonth(ctx context.Context, year int, month time.Month) ([]model.SystemUptimeRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, year, month, day, launch, shutdown
		 FROM system_uptime_records
		 WHERE year = ? AND month = ?
		 ORDER BY launch, rowid`,
		year,
		int(month),
	)
	if err != nil {
		return nil, fmt.Errorf("list uptime records: %w", err)
	}
	defer rows.Close()

	records := make([]model.SystemUptimeRecord, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		record, scanErr := scanUptimeRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		index[record.ID] = len(records)
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uptime records: %w", err)
	}

	sleepRows, err := r.db.QueryContext(
		ctx,
		`SELECT s.id, s.uptime_id, s.start_at, s.end_at
		 FROM sleep_records s
		 JOIN system_uptime_records u ON u.id = s.uptime_id
		 WHERE u.year = ? AND u.month = ?
		 ORDER BY s.rowid`,
		year,
		int(month),
	)
	if err != nil {
		return nil, fmt.Errorf("list sleep records: %w", err)
	}
	defer sleepRows.Close()

	for sleepRows.Next() {
		sleep, uptimeID, scanErr := scanSleepRecord(sleepRows)
		if scanErr != nil {
			return nil, scanErr
		}
		if i, ok := index[uptimeID]; ok {
			records[i].SleepRecords = append(records[i].SleepRecords, *sleep)
		}
	}
	if err := sleepRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sleep records: %w", err)
	}

	return records, nil
}

func (r *UptimeRepository) Get(ctx context.Context, id uuid.UUID) (model.SystemUptimeRecord, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, year, month, day, launch, shutdown FROM system_uptime_records WHERE id = ?`,
		id.String(),
	)
	record, err := scanUptimeRecord(row)
	if err != nil {
		return model.SystemUptimeRecord{}, err
	}

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, uptime_id, start_at, end_at FROM sleep_records WHERE uptime_id = ? ORDER BY rowid`,
		id.String(),
	)
	if err != nil {
		return model.SystemUptimeRecord{}, fmt.Errorf("list sleep records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		sleep, _, scanErr := scanSleepRecord(rows)
		if scanErr != nil {
			return model.SystemUptimeRecord{}, scanErr
		}
		record.SleepRecords = append(record.SleepRecords, *sleep)
	}
	if err := rows.Err(); err != nil {
		return model.SystemUptimeRecord{}, fmt.Errorf("iterate sleep records: %w", err)
	}
	return *record, nil
}

func (r *UptimeRepository) Insert(ctx context.Context, record model.SystemUptimeRecord) (model.SystemUptimeRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.SystemUptimeRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO system_uptime_records (id, year, month, day, launch, shutdown) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID.String(),
		record.Year,
		int(record.Month),
		record.Day,
		formatTime(record.Launch),
		formatTime(record.Shutdown),
	); err != nil {
		return model.SystemUptimeRecord{}, fmt.Errorf("insert uptime record: %w", err)
	}

	for _, s := range record.SleepRecords {
		if err := upsertSleepRecord(ctx, tx, record.ID, s); err != nil {
			return model.SystemUptimeRecord{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.SystemUptimeRecord{}, fmt.Errorf("commit insert uptime record: %w", err)
	}
	r.notifier.Notify()
	return record.Clone(), nil
}

// Update replaces the record's fields and its whole sleep collection.
func (r *UptimeRepository) Update(ctx context.Context, record model.SystemUptimeRecord) (model.SystemUptimeRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.SystemUptimeRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE system_uptime_records
		 SET year = ?,
		     month = ?,
		     day = ?,
		     launch = ?,
		     shutdown = ?
		 WHERE id = ?`,
		record.Year,
		int(record.Month),
		record.Day,
		formatTime(record.Launch),
		formatTime(record.Shutdown),
		record.ID.String(),
	)
	if err != nil {
		return model.SystemUptimeRecord{}, fmt.Errorf("update uptime record: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return model.SystemUptimeRecord{}, ErrNotFound
	}

	keep := make([]uuid.UUID, 0, len(record.SleepRecords))
	for _, s := range record.SleepRecords {
		if err := upsertSleepRecord(ctx, tx, record.ID, s); err != nil {
			return model.SystemUptimeRecord{}, err
		}
		keep = append(keep, s.ID)
	}
	if err := deleteChildrenExcept(ctx, tx, "sleep_records", "uptime_id", record.ID, keep); err != nil {
		return model.SystemUptimeRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.SystemUptimeRecord{}, fmt.Errorf("commit update uptime record: %w", err)
	}
	r.notifier.Notify()
	return record.Clone(), nil
}

func (r *UptimeRepository) Delete(ctx context.Context, record model.SystemUptimeRecord) error {
	return r.DeleteByID(ctx, record.ID)
}

func (r *UptimeRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sleep_records WHERE uptime_id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete sleep records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM system_uptime_records WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete uptime record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete uptime record: %w", err)
	}
	r.notifier.Notify()
	return nil
}

type SleepRecordRepository struct {
	db       *sql.DB
	notifier *notify.Broadcaster
}

func (r *SleepRecordRepository) Get(ctx context.Context, id uuid.UUID) (model.SleepRecord, uuid.UUID, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, uptime_id, start_at, end_at FROM sleep_records WHERE id = ?`,
		id.String(),
	)
	sleep, uptimeID, err := scanSleepRecord(row)
	if err != nil {
		return model.SleepRecord{}, uuid.Nil, err
	}
	return *sleep, uptimeID, nil
}

func (r *SleepRecordRepository) Replace(ctx context.Context, sleep model.SleepRecord) (model.SleepRecord, error) {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE sleep_records SET start_at = ?, end_at = ? WHERE id = ?`,
		formatTime(sleep.Start),
		formatTime(sleep.End),
		sleep.ID.String(),
	)
	if err != nil {
		return model.SleepRecord{}, fmt.Errorf("update sleep record: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return model.SleepRecord{}, ErrNotFound
	}
	r.notifier.Notify()
	return sleep, nil
}

func (r *SleepRecordRepository) InsertChild(ctx context.Context, uptimeID uuid.UUID, sleep model.SleepRecord) (model.SleepRecord, error) {
	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sleep_records (id, uptime_id, start_at, end_at) VALUES (?, ?, ?, ?)`,
		sleep.ID.String(),
		uptimeID.String(),
		formatTime(sleep.Start),
		formatTime(sleep.End),
	); err != nil {
		return model.SleepRecord{}, fmt.Errorf("insert sleep record: %w", err)
	}
	r.notifier.Notify()
	return sleep, nil
}

func (r *SleepRecordRepository) UpdateChild(ctx context.Context, _ uuid.UUID, sleep model.SleepRecord) (model.SleepRecord, error) {
	return r.Replace(ctx, sleep)
}

func (r *SleepRecordRepository) DeleteChild(ctx context.Context, uptimeID uuid.UUID, sleep model.SleepRecord) error {
	if _, err := r.db.ExecContext(
		ctx,
		`DELETE FROM sleep_records WHERE id = ? AND uptime_id = ?`,
		sleep.ID.String(),
		uptimeID.String(),
	); err != nil {
		return fmt.Errorf("delete sleep record: %w", err)
	}
	r.notifier.Notify()
	return nil
}

func upsertSleepRecord(ctx context.Context, tx execer, uptimeID uuid.UUID, s model.SleepRecord) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO sleep_records (id, uptime_id, start_at, end_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     uptime_id = excluded.uptime_id,
		     start_at = excluded.start_at,
		     end_at = excluded.end_at`,
		s.ID.String(),
		uptimeID.String(),
		formatTime(s.Start),
		formatTime(s.End),
	)
	if err != nil {
		return fmt.Errorf("upsert sleep record: %w", err)
	}
	return nil
}

func scanUptimeRecord(s scanner) (*model.SystemUptimeRecord, error) {
	record := model.SystemUptimeRecord{}
	var id string
	var month int
	var launch, shutdown string
	err := s.Scan(&id, &record.Year, &month, &record.Day, &launch, &shutdown)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan uptime record: %w", err)
	}

	record.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse uptime record id: %w", err)
	}
	record.Month = time.Month(month)

	record.Launch, err = parseTime(launch)
	if err != nil {
		return nil, fmt.Errorf("parse uptime record launch: %w", err)
	}
	record.Shutdown, err = parseTime(shutdown)
	if err != nil {
		return nil, fmt.Errorf("parse uptime record shutdown: %w", err)
	}
	record.SleepRecords = make([]model.SleepRecord, 0)
	return &record, nil
}

func scanSleepRecord(s scanner) (*model.SleepRecord, uuid.UUID, error) {
	var id, uptimeID string
	var start, end string
	if err := s.Scan(&id, &uptimeID, &start, &end); err != nil {
		if err == sql.ErrNoRows {
			return nil, uuid.Nil, ErrNotFound
		}
		return nil, uuid.Nil, fmt.Errorf("scan sleep record: %w", err)
	}

	sleepID, err := uuid.Parse(id)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse sleep record id: %w", err)
	}
	parentID, err := uuid.Parse(uptimeID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse sleep record uptime_id: %w", err)
	}

	sleep := model.SleepRecord{ID: sleepID}
	sleep.Start, err = parseTime(start)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse sleep record start_at: %w", err)
	}
	sleep.End, err = parseTime(end)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("parse sleep record end_at: %w", err)
	}
	return &sleep, parentID, nil
}
