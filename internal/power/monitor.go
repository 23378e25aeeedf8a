// Package power turns logind sleep notifications into uptime sleep and wake events.
package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/godbus/dbus/v5"

	"worklog/backend/internal/logfields"
	"worklog/backend/internal/uptime"
)

const (
	logindService   = "org.freedesktop.login1"
	logindPath      = dbus.ObjectPath("/org/freedesktop/login1")
	logindInterface = "org.freedesktop.login1.Manager"
	sleepMember     = "PrepareForSleep"
)

// Handler receives the power transitions. uptime.Tracker satisfies it.
type Handler interface {
	Sleep(ctx context.Context) error
	Wake(ctx context.Context) error
}

// Inhibitor takes a logind delay lock and returns the function that releases it.
type Inhibitor func() (release func(), err error)

type Monitor struct {
	conn    *dbus.Conn
	handler Handler
	inhibit Inhibitor
	release func()
	logger  *slog.Logger
}

// Connect opens the system bus, where logind lives.
func Connect() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return conn, nil
}

// NewMonitor watches conn for PrepareForSleep. While awake it holds a delay lock so the
// sleep is recorded before the machine suspends.
func NewMonitor(conn *dbus.Conn, handler Handler, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{conn: conn, handler: handler, logger: logger}
	if conn != nil {
		m.inhibit = logindInhibitor(conn)
	}
	return m
}

// Run subscribes to logind and dispatches signals until ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindInterface),
		dbus.WithMatchMember(sleepMember),
	}
	if err := m.conn.AddMatchSignal(match...); err != nil {
		return fmt.Errorf("subscribe to %s: %w", sleepMember, err)
	}
	defer func() { _ = m.conn.RemoveMatchSignal(match...) }()

	signals := make(chan *dbus.Signal, 8)
	m.conn.Signal(signals)
	defer m.conn.RemoveSignal(signals)

	m.logger.Info("Watching logind for sleep")
	return m.Dispatch(ctx, signals)
}

// Dispatch handles signals until ctx ends or the channel closes.
func (m *Monitor) Dispatch(ctx context.Context, signals <-chan *dbus.Signal) error {
	m.acquire()
	defer m.releaseLock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			m.handle(ctx, sig)
		}
	}
}

func (m *Monitor) handle(ctx context.Context, sig *dbus.Signal) {
	if sig == nil || sig.Name != logindInterface+"."+sleepMember {
		return
	}
	if len(sig.Body) != 1 {
		m.logger.Warn("Unexpected PrepareForSleep body", slog.Int("values", len(sig.Body)))
		return
	}
	sleeping, ok := sig.Body[0].(bool)
	if !ok {
		m.logger.Warn("Unexpected PrepareForSleep argument", slog.Any("value", sig.Body[0]))
		return
	}

	if sleeping {
		m.report(uptime.EventSleep, m.handler.Sleep(ctx))
		m.releaseLock()
		return
	}
	m.report(uptime.EventWake, m.handler.Wake(ctx))
	m.acquire()
}

func (m *Monitor) report(event string, err error) {
	switch {
	case err == nil:
		m.logger.Info("Power event recorded", logfields.Op(event))
	case errors.Is(err, uptime.ErrNotRecording), errors.Is(err, uptime.ErrAlreadySleeping), errors.Is(err, uptime.ErrNotSleeping):
		m.logger.Warn("Power event ignored", logfields.Op(event), logfields.Error(err))
	default:
		m.logger.Error("Power event failed", logfields.Op(event), logfields.Error(err))
	}
}

func (m *Monitor) acquire() {
	if m.inhibit == nil || m.release != nil {
		return
	}
	release, err := m.inhibit()
	if err != nil {
		m.logger.Warn("Could not take sleep delay lock", logfields.Error(err))
		return
	}
	m.release = release
}

func (m *Monitor) releaseLock() {
	if m.release == nil {
		return
	}
	m.release()
	m.release = nil
}

func logindInhibitor(conn *dbus.Conn) Inhibitor {
	return func() (func(), error) {
		var fd dbus.UnixFD
		obj := conn.Object(logindService, logindPath)
		call := obj.Call(logindInterface+".Inhibit", 0, "sleep", "worklog", "Record uptime before sleep", "delay")
		if err := call.Store(&fd); err != nil {
			return nil, fmt.Errorf("inhibit sleep: %w", err)
		}
		lock := os.NewFile(uintptr(fd), "logind-inhibit")
		return func() { _ = lock.Close() }, nil
	}
}
