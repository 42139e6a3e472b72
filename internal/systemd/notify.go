// Package systemd reports service state to systemd when running as a
// Type=notify unit. Outside systemd every call is a no-op.
package systemd

import (
	"context"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/videohubd/internal/logging"
)

// Notifier sends sd_notify messages.
type Notifier struct {
	logger logging.Logger
	notify func(state string) (bool, error)
}

// NewNotifier creates a notifier using $NOTIFY_SOCKET.
func NewNotifier(logger logging.Logger) *Notifier {
	return &Notifier{
		logger: logger,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}
}

func (n *Notifier) send(states ...string) {
	msg := strings.Join(states, "\n")
	if _, err := n.notify(msg); err != nil {
		n.logger.Warn("sd_notify failed", "state", msg, "error", err)
	}
}

// Ready reports startup complete with a status line.
func (n *Notifier) Ready(status string) {
	n.send(daemon.SdNotifyReady, "STATUS="+status)
}

// Status updates the status line shown by systemctl.
func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

// Stopping reports that shutdown has begun.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Watchdog pings the systemd watchdog at half the configured interval until
// ctx is done. It returns immediately when WatchdogSec is not set.
func (n *Notifier) Watchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	n.runWatchdog(ctx, interval/2)
}

func (n *Notifier) runWatchdog(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
