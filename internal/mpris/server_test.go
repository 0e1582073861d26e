package mpris

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/genricoloni/chiptuned/internal/mpris/mocks"
	"github.com/godbus/dbus/v5"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// fakeController records playback calls
type fakeController struct {
	calls []string
	state domain.PlaybackState
	err   error
}

func (c *fakeController) Start(ctx context.Context) error {
	c.calls = append(c.calls, "Start")
	return c.err
}

func (c *fakeController) Stop(ctx context.Context) error {
	c.calls = append(c.calls, "Stop")
	return c.err
}

func (c *fakeController) Toggle(ctx context.Context) error {
	c.calls = append(c.calls, "Toggle")
	return c.err
}

func (c *fakeController) State() domain.PlaybackState {
	return c.state
}

func newTestServer(t *testing.T, ctrl domain.Controller) (*Server, *mocks.MockDBusClient) {
	t.Helper()
	mockCtrl := gomock.NewController(t)
	client := mocks.NewMockDBusClient(mockCtrl)

	s := NewServer(zap.NewNop(), ctrl)
	s.newClient = func() (DBusClient, error) { return client, nil }
	return s, client
}

func expectExports(client *mocks.MockDBusClient) {
	for _, iface := range []string{rootIface, playerIface, propertiesIface, introspectIface} {
		client.EXPECT().Export(gomock.Any(), ObjectPath, iface).Return(nil)
	}
}

func TestServer_Start(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*mocks.MockDBusClient)
		expectError bool
	}{
		{
			name: "Success - Primary Owner",
			setupMock: func(m *mocks.MockDBusClient) {
				expectExports(m)
				m.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).
					Return(dbus.RequestNameReplyPrimaryOwner, nil)
			},
		},
		{
			name: "Error - Name Taken",
			setupMock: func(m *mocks.MockDBusClient) {
				expectExports(m)
				m.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).
					Return(dbus.RequestNameReplyExists, nil)
				m.EXPECT().Close().Return(nil)
			},
			expectError: true,
		},
		{
			name: "Error - Request Fails",
			setupMock: func(m *mocks.MockDBusClient) {
				expectExports(m)
				m.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).
					Return(dbus.RequestNameReply(0), errors.New("bus gone"))
				m.EXPECT().Close().Return(nil)
			},
			expectError: true,
		},
		{
			name: "Error - Export Fails",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().Export(gomock.Any(), ObjectPath, rootIface).Return(errors.New("denied"))
				m.EXPECT().Close().Return(nil)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, client := newTestServer(t, &fakeController{})
			tt.setupMock(client)

			err := s.Start(context.Background())
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if s.running {
					t.Error("server must not be running after a failed start")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !s.running {
				t.Error("expected server to be running")
			}
		})
	}
}

func TestServer_StartConnectionFailure(t *testing.T) {
	s := NewServer(zap.NewNop(), &fakeController{})
	s.newClient = func() (DBusClient, error) { return nil, errors.New("no session bus") }

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestServer_UpdateEmitsPropertiesChanged(t *testing.T) {
	s, client := newTestServer(t, &fakeController{})
	expectExports(client)
	client.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).Return(dbus.RequestNameReplyPrimaryOwner, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	client.EXPECT().Emit(ObjectPath, propertiesChanged, playerIface,
		map[string]dbus.Variant{"PlaybackStatus": dbus.MakeVariant("Playing")}, []string{}).
		Return(nil).Times(1)

	s.Update(domain.StateChange{State: domain.StatePlaying, At: time.Now()})
	// repeated state is not re-announced
	s.Update(domain.StateChange{State: domain.StatePlaying, At: time.Now()})
}

func TestServer_UpdateWhileStoppedIsSilent(t *testing.T) {
	s, _ := newTestServer(t, &fakeController{})

	// no expectations: the mock fails the test on any call
	s.Update(domain.StateChange{State: domain.StatePlaying})
	s.SetTrack(domain.TrackInfo{Title: "Korobeiniki"})

	v, derr := (&propertiesObject{server: s}).Get(playerIface, "PlaybackStatus")
	if derr != nil {
		t.Fatal(derr)
	}
	if v.Value() != "Playing" {
		t.Errorf("expected Playing, got %v", v.Value())
	}
}

func TestServer_Stop(t *testing.T) {
	s, client := newTestServer(t, &fakeController{})
	expectExports(client)
	client.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).Return(dbus.RequestNameReplyPrimaryOwner, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	gomock.InOrder(
		client.EXPECT().ReleaseName(BusName).Return(dbus.ReleaseNameReplyReleased, nil),
		client.EXPECT().Close().Return(nil),
	)

	if err := s.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
}

func TestPlayerObject_Methods(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*playerObject) *dbus.Error
		expect []string
	}{
		{name: "PlayPause Toggles", call: (*playerObject).PlayPause, expect: []string{"Toggle"}},
		{name: "Play Starts", call: (*playerObject).Play, expect: []string{"Start"}},
		{name: "Pause Stops", call: (*playerObject).Pause, expect: []string{"Stop"}},
		{name: "Stop Stops", call: (*playerObject).Stop, expect: []string{"Stop"}},
		{name: "Next Is Ignored", call: (*playerObject).Next, expect: nil},
		{name: "Previous Is Ignored", call: (*playerObject).Previous, expect: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			p := &playerObject{server: NewServer(zap.NewNop(), ctrl)}

			if derr := tt.call(p); derr != nil {
				t.Fatalf("unexpected error: %v", derr)
			}
			if len(ctrl.calls) != len(tt.expect) {
				t.Fatalf("expected calls %v, got %v", tt.expect, ctrl.calls)
			}
			for i := range tt.expect {
				if ctrl.calls[i] != tt.expect[i] {
					t.Errorf("expected calls %v, got %v", tt.expect, ctrl.calls)
				}
			}
		})
	}
}

func TestPlayerObject_ControllerErrorIsReported(t *testing.T) {
	ctrl := &fakeController{err: errors.New("audio device unavailable")}
	p := &playerObject{server: NewServer(zap.NewNop(), ctrl)}

	if derr := p.Play(); derr == nil {
		t.Fatal("expected D-Bus error")
	}
}

func TestPropertiesObject(t *testing.T) {
	s := NewServer(zap.NewNop(), &fakeController{})
	s.track = domain.TrackInfo{
		Title:  "Korobeiniki",
		Artist: "Traditional",
		ArtURL: "/tmp/chiptuned/cover.jpg",
		Length: 16 * time.Second,
	}
	props := &propertiesObject{server: s}

	t.Run("Get Playback Status", func(t *testing.T) {
		v, derr := props.Get(playerIface, "PlaybackStatus")
		if derr != nil {
			t.Fatal(derr)
		}
		if v.Value() != "Stopped" {
			t.Errorf("expected Stopped, got %v", v.Value())
		}
	})

	t.Run("Get Metadata", func(t *testing.T) {
		v, derr := props.Get(playerIface, "Metadata")
		if derr != nil {
			t.Fatal(derr)
		}
		md, ok := v.Value().(map[string]dbus.Variant)
		if !ok {
			t.Fatalf("expected metadata map, got %T", v.Value())
		}
		if md["xesam:title"].Value() != "Korobeiniki" {
			t.Errorf("unexpected title: %v", md["xesam:title"].Value())
		}
		if md["mpris:artUrl"].Value() != "file:///tmp/chiptuned/cover.jpg" {
			t.Errorf("unexpected art url: %v", md["mpris:artUrl"].Value())
		}
		if md["mpris:length"].Value() != int64(16_000_000) {
			t.Errorf("unexpected length: %v", md["mpris:length"].Value())
		}
	})

	t.Run("GetAll Root", func(t *testing.T) {
		all, derr := props.GetAll(rootIface)
		if derr != nil {
			t.Fatal(derr)
		}
		if all["Identity"].Value() != "chiptuned" {
			t.Errorf("unexpected identity: %v", all["Identity"].Value())
		}
	})

	t.Run("Unknown Interface", func(t *testing.T) {
		if _, derr := props.GetAll("org.example.Nope"); derr == nil {
			t.Error("expected error")
		}
	})

	t.Run("Unknown Property", func(t *testing.T) {
		if _, derr := props.Get(playerIface, "Lyrics"); derr == nil {
			t.Error("expected error")
		}
	})

	t.Run("Set Is Read Only", func(t *testing.T) {
		if derr := props.Set(playerIface, "Volume", dbus.MakeVariant(0.5)); derr == nil {
			t.Error("expected error")
		}
	})
}
