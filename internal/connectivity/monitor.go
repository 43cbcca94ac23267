package connectivity

import (
	"context"
	"time"

	"github.com/studentorg/dashsync/internal/logging"
)

// Pinger probes the remote server's health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Replayer flushes queued offline changes once connectivity returns.
type Replayer interface {
	ReplayPending(ctx context.Context) error
}

// Monitor periodically probes the server and flips the offline flag on
// transitions. Going online additionally triggers a replay of pending
// offline changes; going offline does nothing else, later writes simply
// route into the queue.
type Monitor struct {
	status       *Status
	pinger       Pinger
	replayer     Replayer
	probeTimeout time.Duration
	log          logging.Logger
}

func NewMonitor(status *Status, pinger Pinger, replayer Replayer, probeTimeout time.Duration, log logging.Logger) *Monitor {
	if probeTimeout <= 0 {
		probeTimeout = 3 * time.Second
	}
	return &Monitor{
		status:       status,
		pinger:       pinger,
		replayer:     replayer,
		probeTimeout: probeTimeout,
		log:          log,
	}
}

// Probe runs a single health check and updates the flag. Returns true when
// the server answered.
func (m *Monitor) Probe(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.pinger.Ping(pctx)
	cancel()

	if err != nil {
		if !m.status.Offline() {
			m.status.SetOffline(true)
			m.log.Warn(ctx, "connectivity lost, entering offline mode", "error", err)
		}
		return false
	}

	if m.status.Offline() {
		m.status.SetOffline(false)
		m.log.Info(ctx, "connectivity restored, replaying pending changes")
		if m.replayer != nil {
			if rerr := m.replayer.ReplayPending(ctx); rerr != nil {
				m.log.Error(ctx, "replay after reconnect failed", "error", rerr)
			}
		}
	}
	return true
}

// Watch probes every interval until ctx is canceled.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
