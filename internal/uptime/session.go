// Package uptime records when the machine is running and when it sleeps, one record per day.
package uptime

import "worklog/backend/internal/model"

// Session is the process-local view of the open record. It cannot be derived from storage:
// whether a record is still open is a runtime fact.
type Session struct {
	Current   *model.SystemUptimeRecord
	OpenSleep int
}

func NewSession() *Session {
	return &Session{OpenSleep: -1}
}

func (s *Session) Recording() bool {
	return s.Current != nil
}

func (s *Session) Sleeping() bool {
	return s.Current != nil && s.OpenSleep >= 0 && s.OpenSleep < len(s.Current.SleepRecords)
}

// Snapshot returns a copy of the open record, if any.
func (s *Session) Snapshot() (model.SystemUptimeRecord, bool) {
	if s.Current == nil {
		return model.SystemUptimeRecord{}, false
	}
	return s.Current.Clone(), true
}

func (s *Session) clear() {
	s.Current = nil
	s.OpenSleep = -1
}
