package daemon

import (
	"log/slog"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
)

// Readiness receives service manager state notifications.
type Readiness interface {
	Notify(state string)
}

// Systemd forwards readiness to the service manager via sd_notify. Outside
// systemd (no NOTIFY_SOCKET) every call is a no-op.
type Systemd struct {
	Logger *slog.Logger
}

// Notify implements Readiness.
func (s Systemd) Notify(state string) {
	sent, err := sddaemon.SdNotify(false, state)
	if err != nil && s.Logger != nil {
		s.Logger.Debug("daemon: sd_notify failed", "state", state, "error", err)
		return
	}
	if sent && s.Logger != nil {
		s.Logger.Debug("daemon: sd_notify", "state", state)
	}
}

type noReadiness struct{}

func (noReadiness) Notify(string) {}

// Readiness states understood by systemd.
const (
	readyState     = sddaemon.SdNotifyReady
	reloadingState = sddaemon.SdNotifyReloading
	stoppingState  = sddaemon.SdNotifyStopping
)
