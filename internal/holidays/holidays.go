// Package holidays keeps the set of non-working dates, combining the dates configured in the
// environment with an optional YAML file that may change while the server runs.
package holidays

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"worklog/backend/internal/timeutil"
)

// Entry is one dated line of the holidays file. Name is informational.
type Entry struct {
	Date string `yaml:"date"`
	Name string `yaml:"name,omitempty"`
}

type file struct {
	Holidays []Entry `yaml:"holidays"`
}

// LoadFile parses a holidays file of the form
//
//	holidays:
//	  - date: 2025-12-25
//	    name: Christmas Day
//
// A missing file yields an empty set.
func LoadFile(path string) (timeutil.Holidays, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return timeutil.Holidays{}, nil
		}
		return nil, fmt.Errorf("read holidays file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse holidays file: %w", err)
	}
	dates := make([]string, 0, len(f.Holidays))
	for _, e := range f.Holidays {
		dates = append(dates, e.Date)
	}
	return timeutil.ParseHolidays(dates)
}

// Calendar is safe for concurrent use. The fixed dates always apply; the loaded dates are
// replaced on every reload.
type Calendar struct {
	mu     sync.RWMutex
	fixed  timeutil.Holidays
	loaded timeutil.Holidays
}

func NewCalendar(fixed timeutil.Holidays) *Calendar {
	return &Calendar{fixed: fixed}
}

// Resolve builds a calendar from configured dates plus the optional file at path.
func Resolve(dates []string, path string) (*Calendar, error) {
	fixed, err := timeutil.ParseHolidays(dates)
	if err != nil {
		return nil, err
	}
	cal := NewCalendar(fixed)
	if path == "" {
		return cal, nil
	}
	loaded, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cal.Set(loaded)
	return cal, nil
}

func (c *Calendar) Set(loaded timeutil.Holidays) {
	c.mu.Lock()
	c.loaded = loaded
	c.mu.Unlock()
}

// Holidays returns a snapshot; callers may keep it.
func (c *Calendar) Holidays() timeutil.Holidays {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(timeutil.Holidays, len(c.fixed)+len(c.loaded))
	for d := range c.fixed {
		out[d] = struct{}{}
	}
	for d := range c.loaded {
		out[d] = struct{}{}
	}
	return out
}
