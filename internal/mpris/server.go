package mpris

import (
	"context"
	"fmt"
	"sync"

	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"go.uber.org/zap"
)

const (
	// BusName is the well-known name the server claims
	BusName = "org.mpris.MediaPlayer2.chiptuned"
	// ObjectPath is the MPRIS object path
	ObjectPath dbus.ObjectPath = "/org/mpris/MediaPlayer2"

	rootIface       = "org.mpris.MediaPlayer2"
	playerIface     = "org.mpris.MediaPlayer2.Player"
	propertiesIface = "org.freedesktop.DBus.Properties"
	introspectIface = "org.freedesktop.DBus.Introspectable"

	propertiesChanged = propertiesIface + ".PropertiesChanged"
	trackID           = dbus.ObjectPath("/org/mpris/MediaPlayer2/chiptuned/track/0")
)

// Server exposes the scheduler as an MPRIS media player on the session bus
type Server struct {
	logger    *zap.Logger
	ctrl      domain.Controller
	newClient func() (DBusClient, error)

	mu      sync.RWMutex
	conn    DBusClient // Interface for testability
	ctx     context.Context
	running bool
	track   domain.TrackInfo
	status  domain.PlaybackState
}

// NewServer creates a stopped MPRIS server
func NewServer(logger *zap.Logger, ctrl domain.Controller) *Server {
	return &Server{
		logger:    logger,
		ctrl:      ctrl,
		newClient: NewStdDBusClient,
		status:    domain.StateStopped,
	}
}

// Start connects to the session bus, exports the player objects and claims BusName
func (s *Server) Start(ctx context.Context) error {
	node := s.introspectNode()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	conn, err := s.newClient()
	if err != nil {
		return fmt.Errorf("session bus connection failed: %w", err)
	}

	if err := s.export(conn, node); err != nil {
		s.closeConn(conn)
		return err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		s.closeConn(conn)
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		s.closeConn(conn)
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.conn = conn
	s.ctx = ctx
	s.running = true
	s.logger.Info("MPRIS server started", zap.String("name", BusName))
	return nil
}

func (s *Server) export(conn DBusClient, node *introspect.Node) error {
	exports := []struct {
		v     interface{}
		iface string
	}{
		{&rootObject{}, rootIface},
		{&playerObject{server: s}, playerIface},
		{&propertiesObject{server: s}, propertiesIface},
		{introspect.NewIntrospectable(node), introspectIface},
	}
	for _, e := range exports {
		if err := conn.Export(e.v, ObjectPath, e.iface); err != nil {
			return fmt.Errorf("failed to export %s: %w", e.iface, err)
		}
	}
	return nil
}

func (s *Server) closeConn(conn DBusClient) {
	if err := conn.Close(); err != nil {
		s.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
	}
}

// Stop releases BusName and closes the connection
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("Failed to release bus name", zap.Error(err))
	}
	err := s.conn.Close()
	s.conn = nil
	s.logger.Info("MPRIS server stopped")
	return err
}

// SetTrack replaces the published metadata
func (s *Server) SetTrack(track domain.TrackInfo) {
	s.mu.Lock()
	s.track = track
	s.mu.Unlock()

	s.emit(map[string]dbus.Variant{"Metadata": dbus.MakeVariant(s.metadata())})
}

// Update publishes a scheduler state change
func (s *Server) Update(change domain.StateChange) {
	s.mu.Lock()
	if s.status == change.State {
		s.mu.Unlock()
		return
	}
	s.status = change.State
	s.mu.Unlock()

	s.emit(map[string]dbus.Variant{"PlaybackStatus": dbus.MakeVariant(string(change.State))})
}

func (s *Server) emit(changed map[string]dbus.Variant) {
	s.mu.RLock()
	conn, running := s.conn, s.running
	s.mu.RUnlock()

	if !running {
		return
	}
	if err := conn.Emit(ObjectPath, propertiesChanged, playerIface, changed, []string{}); err != nil {
		s.logger.Warn("Failed to emit PropertiesChanged", zap.Error(err))
	}
}

// control runs a playback operation on behalf of a bus client
func (s *Server) control(name string, op func(context.Context) error) *dbus.Error {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	s.logger.Debug("MPRIS call", zap.String("method", name))
	if err := op(ctx); err != nil {
		s.logger.Warn("MPRIS call failed", zap.String("method", name), zap.Error(err))
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (s *Server) metadata() map[string]dbus.Variant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackID),
		"xesam:title":   dbus.MakeVariant(s.track.Title),
	}
	if s.track.Artist != "" {
		md["xesam:artist"] = dbus.MakeVariant([]string{s.track.Artist})
	}
	if s.track.ArtURL != "" {
		md["mpris:artUrl"] = dbus.MakeVariant("file://" + s.track.ArtURL)
	}
	if s.track.Length > 0 {
		md["mpris:length"] = dbus.MakeVariant(s.track.Length.Microseconds())
	}
	return md
}

// properties returns the current property values of iface
func (s *Server) properties(iface string) (map[string]dbus.Variant, bool) {
	switch iface {
	case rootIface:
		return map[string]dbus.Variant{
			"CanQuit":             dbus.MakeVariant(false),
			"CanRaise":            dbus.MakeVariant(false),
			"HasTrackList":        dbus.MakeVariant(false),
			"Identity":            dbus.MakeVariant("chiptuned"),
			"SupportedUriSchemes": dbus.MakeVariant([]string{}),
			"SupportedMimeTypes":  dbus.MakeVariant([]string{}),
		}, true
	case playerIface:
		s.mu.RLock()
		status := s.status
		s.mu.RUnlock()
		return map[string]dbus.Variant{
			"PlaybackStatus": dbus.MakeVariant(string(status)),
			"LoopStatus":     dbus.MakeVariant("Playlist"),
			"Rate":           dbus.MakeVariant(1.0),
			"Shuffle":        dbus.MakeVariant(false),
			"Metadata":       dbus.MakeVariant(s.metadata()),
			"Volume":         dbus.MakeVariant(1.0),
			"Position":       dbus.MakeVariant(int64(0)),
			"MinimumRate":    dbus.MakeVariant(1.0),
			"MaximumRate":    dbus.MakeVariant(1.0),
			"CanGoNext":      dbus.MakeVariant(false),
			"CanGoPrevious":  dbus.MakeVariant(false),
			"CanPlay":        dbus.MakeVariant(true),
			"CanPause":       dbus.MakeVariant(true),
			"CanSeek":        dbus.MakeVariant(false),
			"CanControl":     dbus.MakeVariant(true),
		}, true
	}
	return nil, false
}

func (s *Server) introspectNode() *introspect.Node {
	return &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    propertiesIface,
				Methods: introspect.Methods(&propertiesObject{}),
				Signals: []introspect.Signal{{
					Name: "PropertiesChanged",
					Args: []introspect.Arg{
						{Name: "interface", Type: "s"},
						{Name: "changed_properties", Type: "a{sv}"},
						{Name: "invalidated_properties", Type: "as"},
					},
				}},
			},
			{
				Name:       rootIface,
				Methods:    introspect.Methods(&rootObject{}),
				Properties: s.introspectProperties(rootIface),
			},
			{
				Name:       playerIface,
				Methods:    introspect.Methods(&playerObject{}),
				Properties: s.introspectProperties(playerIface),
			},
		},
	}
}

func (s *Server) introspectProperties(iface string) []introspect.Property {
	props, _ := s.properties(iface)
	out := make([]introspect.Property, 0, len(props))
	for name, v := range props {
		out = append(out, introspect.Property{Name: name, Type: v.Signature().String(), Access: "read"})
	}
	return out
}

// rootObject implements org.mpris.MediaPlayer2
type rootObject struct{}

func (r *rootObject) Raise() *dbus.Error { return nil }
func (r *rootObject) Quit() *dbus.Error  { return nil }

// playerObject implements org.mpris.MediaPlayer2.Player
type playerObject struct {
	server *Server
}

func (p *playerObject) PlayPause() *dbus.Error {
	return p.server.control("PlayPause", p.server.ctrl.Toggle)
}

func (p *playerObject) Play() *dbus.Error {
	return p.server.control("Play", p.server.ctrl.Start)
}

func (p *playerObject) Pause() *dbus.Error {
	return p.server.control("Pause", p.server.ctrl.Stop)
}

func (p *playerObject) Stop() *dbus.Error {
	return p.server.control("Stop", p.server.ctrl.Stop)
}

// The melody has a single looping track and no timeline
func (p *playerObject) Next() *dbus.Error                                     { return nil }
func (p *playerObject) Previous() *dbus.Error                                 { return nil }
func (p *playerObject) Seek(offset int64) *dbus.Error                         { return nil }
func (p *playerObject) SetPosition(id dbus.ObjectPath, pos int64) *dbus.Error { return nil }
func (p *playerObject) OpenUri(uri string) *dbus.Error                        { return nil }

// propertiesObject implements org.freedesktop.DBus.Properties
type propertiesObject struct {
	server *Server
}

func (p *propertiesObject) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	props, ok := p.server.properties(iface)
	if !ok {
		return dbus.Variant{}, unknownInterface(iface)
	}
	v, ok := props[name]
	if !ok {
		return dbus.Variant{}, dbus.NewError("org.freedesktop.DBus.Error.UnknownProperty",
			[]interface{}{fmt.Sprintf("unknown property %s.%s", iface, name)})
	}
	return v, nil
}

func (p *propertiesObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	props, ok := p.server.properties(iface)
	if !ok {
		return nil, unknownInterface(iface)
	}
	return props, nil
}

func (p *propertiesObject) Set(iface, name string, value dbus.Variant) *dbus.Error {
	if _, ok := p.server.properties(iface); !ok {
		return unknownInterface(iface)
	}
	return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly",
		[]interface{}{fmt.Sprintf("property %s.%s is read-only", iface, name)})
}

func unknownInterface(iface string) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface",
		[]interface{}{fmt.Sprintf("unknown interface %s", iface)})
}
