package client

import (
	"context"
	"time"

	"github.com/google/uuid"

	"worklog/backend/internal/model"
	"worklog/backend/internal/wire"
)

// TimeRecordStore is the remote storage capability for time records.
type TimeRecordStore struct {
	client *Client
}

func (c *Client) TimeRecords() *TimeRecordStore {
	return &TimeRecordStore{client: c}
}

func (s *TimeRecordStore) RecordsForMonth(ctx context.Context, year int, month time.Month) ([]model.TimeRecord, error) {
	out, err := s.client.ListRecords(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return out.Model(s.client.loc)
}

// Insert posts the record. The returned record carries the ids the server assigned.
func (s *TimeRecordStore) Insert(ctx context.Context, record model.TimeRecord) (model.TimeRecord, error) {
	created, err := s.client.CreateRecord(ctx, wire.FromTimeRecord(record))
	if err != nil {
		return model.TimeRecord{}, err
	}
	return created.Model(s.client.loc)
}

// Update replaces the record together with its full break list.
func (s *TimeRecordStore) Update(ctx context.Context, record model.TimeRecord) (model.TimeRecord, error) {
	replaced, err := s.client.ReplaceRecord(ctx, wire.FromTimeRecord(record))
	if err != nil {
		return model.TimeRecord{}, err
	}
	return replaced.Model(s.client.loc)
}

func (s *TimeRecordStore) Delete(ctx context.Context, record model.TimeRecord) error {
	return s.client.DeleteRecord(ctx, record.ID.String())
}

// BreakTimeStore is the remote child capability for breaks. Inserts and deletes travel with the
// parent PUT, which carries the whole nested list, so only updates issue a request.
type BreakTimeStore struct {
	client *Client
}

func (c *Client) BreakTimes() *BreakTimeStore {
	return &BreakTimeStore{client: c}
}

func (s *BreakTimeStore) Get(ctx context.Context, id uuid.UUID) (model.BreakTime, error) {
	b, err := s.client.GetBreakTime(ctx, id.String())
	if err != nil {
		return model.BreakTime{}, err
	}
	return b.Model(s.client.loc)
}

func (s *BreakTimeStore) InsertChild(_ context.Context, _ uuid.UUID, b model.BreakTime) (model.BreakTime, error) {
	return b, nil
}

func (s *BreakTimeStore) UpdateChild(ctx context.Context, _ uuid.UUID, b model.BreakTime) (model.BreakTime, error) {
	replaced, err := s.client.ReplaceBreakTime(ctx, wire.FromBreakTime(b))
	if err != nil {
		return model.BreakTime{}, err
	}
	return replaced.Model(s.client.loc)
}

func (s *BreakTimeStore) DeleteChild(context.Context, uuid.UUID, model.BreakTime) error {
	return nil
}

// UptimeStore is the remote storage capability for uptime records.
type UptimeStore struct {
	client *Client
}

func (c *Client) Uptimes() *UptimeStore {
	return &UptimeStore{client: c}
}

func (s *UptimeStore) RecordsForMonth(ctx context.Context, year int, month time.Month) ([]model.SystemUptimeRecord, error) {
	out, err := s.client.ListUptimes(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return out.Model(s.client.loc)
}

func (s *UptimeStore) Insert(ctx context.Context, record model.SystemUptimeRecord) (model.SystemUptimeRecord, error) {
	created, err := s.client.CreateUptime(ctx, wire.FromUptimeRecord(record))
	if err != nil {
		return model.SystemUptimeRecord{}, err
	}
	return created.Model(s.client.loc)
}

func (s *UptimeStore) Update(ctx context.Context, record model.SystemUptimeRecord) (model.SystemUptimeRecord, error) {
	replaced, err := s.client.ReplaceUptime(ctx, wire.FromUptimeRecord(record))
	if err != nil {
		return model.SystemUptimeRecord{}, err
	}
	return replaced.Model(s.client.loc)
}

func (s *UptimeStore) Delete(ctx context.Context, record model.SystemUptimeRecord) error {
	return s.client.DeleteUptime(ctx, record.ID.String())
}

// SleepStore mirrors BreakTimeStore for sleep records.
type SleepStore struct {
	client *Client
}

func (c *Client) SleepRecords() *SleepStore {
	return &SleepStore{client: c}
}

func (s *SleepStore) Get(ctx context.Context, id uuid.UUID) (model.SleepRecord, error) {
	sleep, err := s.client.GetSleepRecord(ctx, id.String())
	if err != nil {
		return model.SleepRecord{}, err
	}
	return sleep.Model(s.client.loc)
}

func (s *SleepStore) InsertChild(_ context.Context, _ uuid.UUID, sleep model.SleepRecord) (model.SleepRecord, error) {
	return sleep, nil
}

func (s *SleepStore) UpdateChild(ctx context.Context, _ uuid.UUID, sleep model.SleepRecord) (model.SleepRecord, error) {
	replaced, err := s.client.ReplaceSleepRecord(ctx, wire.FromSleepRecord(sleep))
	if err != nil {
		return model.SleepRecord{}, err
	}
	return replaced.Model(s.client.loc)
}

func (s *SleepStore) DeleteChild(context.Context, uuid.UUID, model.SleepRecord) error {
	return nil
}
