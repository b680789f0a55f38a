package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	busInterface = "org.freedesktop.DBus"

	// CrashHandlerPrefix is the well-known name prefix of crash handler instances
	CrashHandlerPrefix = "org.kde.drkonqi-"
)

// DBus is a ServiceDirectory on the session bus. Every operation opens its own
// private connection and closes it before returning; no connection state is
// kept between steps.
type DBus struct {
	connect func() (*dbus.Conn, error)
}

// NewDBus returns the session bus adapter
func NewDBus() *DBus {
	return &DBus{connect: func() (*dbus.Conn, error) {
		return dbus.ConnectSessionBus()
	}}
}

// NewDBusWithAddress connects to the bus at address instead of the session bus
func NewDBusWithAddress(address string) *DBus {
	return &DBus{connect: func() (*dbus.Conn, error) {
		return dbus.Connect(address)
	}}
}

func (d *DBus) withConn(fn func(conn *dbus.Conn) error) error {
	conn, err := d.connect()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// NameOwners lists the bus and resolves each well-known name to its owner,
// all over one connection
func (d *DBus) NameOwners(ctx context.Context) (map[string]string, error) {
	owners := make(map[string]string)
	err := d.withConn(func(conn *dbus.Conn) error {
		var names []string
		if err := conn.BusObject().CallWithContext(ctx, busInterface+".ListNames", 0).Store(&names); err != nil {
			return err
		}
		for _, name := range names {
			owners[name] = name
			if strings.HasPrefix(name, ":") {
				continue
			}
			var owner string
			err := conn.BusObject().CallWithContext(ctx, busInterface+".GetNameOwner", 0, name).Store(&owner)
			if err == nil && owner != "" {
				owners[name] = owner
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owners, nil
}

// Call invokes method on service at path and waits for the reply
func (d *DBus) Call(ctx context.Context, service, path, method string, args ...interface{}) error {
	return d.withConn(func(conn *dbus.Conn) error {
		obj := conn.Object(service, dbus.ObjectPath(path))
		if err := obj.CallWithContext(ctx, method, 0, args...).Err; err != nil {
			return fmt.Errorf("calling %s on %s%s: %w", method, service, path, err)
		}
		return nil
	})
}

// UpdateActivationEnvironment hands vars to the bus daemon so services it
// activates from now on inherit them
func (d *DBus) UpdateActivationEnvironment(ctx context.Context, vars map[string]string) error {
	return d.withConn(func(conn *dbus.Conn) error {
		return conn.BusObject().CallWithContext(ctx, busInterface+".UpdateActivationEnvironment", 0, vars).Err
	})
}
