package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDest   = "org.freedesktop.Notifications"
	dbusPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	dbusMethod = "org.freedesktop.Notifications.Notify"
)

// DBus sends notifications over the session bus.
type DBus struct {
	conn      *dbus.Conn
	obj       dbus.BusObject
	appName   string
	icon      string
	soundName string
}

// NewDBus connects to the session bus.
func NewDBus(opts Options) (*DBus, error) {
	opts.defaults()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("notify: connect session bus: %w", err)
	}
	return &DBus{
		conn:      conn,
		obj:       conn.Object(dbusDest, dbusPath),
		appName:   opts.AppName,
		icon:      opts.Icon,
		soundName: opts.SoundName,
	}, nil
}

// Notify calls org.freedesktop.Notifications.Notify. The returned
// notification id is ignored.
func (d *DBus) Notify(ctx context.Context, n Notification) error {
	call := d.obj.CallWithContext(ctx, dbusMethod, 0,
		d.appName,
		uint32(0),
		d.icon,
		n.Title,
		n.Body,
		[]string{},
		buildHints(n, d.soundName),
		int32(-1),
	)
	if call.Err != nil {
		return fmt.Errorf("notify: dbus notify: %w", call.Err)
	}
	return nil
}

// Close closes the bus connection.
func (d *DBus) Close() error {
	return d.conn.Close()
}

func buildHints(n Notification, soundName string) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(n.Urgency)),
	}
	if n.Sound && soundName != "" {
		hints["sound-name"] = dbus.MakeVariant(soundName)
	}
	return hints
}
