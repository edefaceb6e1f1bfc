package browser

import (
	"context"
	"log/slog"
	"sync"

	"qte/internal/domain"
	"qte/internal/events"
)

// launchFunc starts a session, swapped out in tests
type launchFunc func(ctx context.Context, opts Options, mode Mode, channel *events.Channel[domain.Event], logger *slog.Logger) (*Session, error)

// Manager owns the one live session of the process
type Manager struct {
	opts    Options
	channel *events.Channel[domain.Event]
	logger  *slog.Logger
	launch  launchFunc

	mu      sync.Mutex
	session *Session
}

// NewManager creates a Manager publishing into channel
func NewManager(opts Options, channel *events.Channel[domain.Event], logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{opts: opts, channel: channel, logger: logger, launch: Launch}
}

// Session returns the live session if it was launched in mode. Otherwise the
// live session is closed, abandoning any run in flight, and a new one is
// launched with its first page configured.
func (m *Manager) Session(ctx context.Context, mode Mode) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil && m.session.Mode() == mode {
		return m.session, nil
	}

	if m.session != nil {
		m.logger.Info("replacing browser session", "from", m.session.Mode().String(), "to", mode.String())
		m.closeLocked()
	}

	s, err := m.launch(ctx, m.opts, mode, m.channel, m.logger)
	if err != nil {
		return nil, err
	}
	if err := s.Configure(ctx, 0); err != nil {
		s.Close()
		return nil, err
	}
	m.session = s
	return s, nil
}

// Close tears down the live session, if any
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Manager) closeLocked() {
	if m.session == nil {
		return
	}
	if err := m.session.Close(); err != nil {
		m.logger.Warn("close browser", "error", err)
	}
	m.session = nil
	m.channel.Reset()
}
