package mpris

import (
	"github.com/godbus/dbus/v5"
)

// DBusClient defines the interface for D-Bus operations.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/chiptuned/internal/mpris DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// RequestName asks the bus to assign a well-known name to this connection
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)

	// ReleaseName gives a well-known name back to the bus
	ReleaseName(name string) (dbus.ReleaseNameReply, error)

	// Export publishes the methods of v on path under iface
	Export(v interface{}, path dbus.ObjectPath, iface string) error

	// Emit sends a signal from path
	// name: The fully qualified member (e.g., "org.freedesktop.DBus.Properties.PropertiesChanged")
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient opens a private connection to the session bus
func NewStdDBusClient() (DBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// RequestName asks the bus to assign a well-known name to this connection
func (c *StdDBusClient) RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	return c.conn.RequestName(name, flags)
}

// ReleaseName gives a well-known name back to the bus
func (c *StdDBusClient) ReleaseName(name string) (dbus.ReleaseNameReply, error) {
	return c.conn.ReleaseName(name)
}

// Export publishes the methods of v on path under iface
func (c *StdDBusClient) Export(v interface{}, path dbus.ObjectPath, iface string) error {
	return c.conn.Export(v, path, iface)
}

// Emit sends a signal from path
func (c *StdDBusClient) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	return c.conn.Emit(path, name, values...)
}
