//go:build linux
// +build linux

package audio

import (
	"encoding/binary"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestEncodePCM16(t *testing.T) {
	samples := [][2]float64{{1, -1}, {0, 0.5}, {2, -3}}
	buf := make([]byte, len(samples)*4)
	encodePCM16(buf, samples)

	expect := []int16{32767, -32767, 0, 16383, 32767, -32767}
	for i, want := range expect {
		got := int16(binary.LittleEndian.Uint16(buf[i*2:]))
		if got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestPlayerCommand_Args(t *testing.T) {
	cmd := PlayerCommand{Name: "pacat", Binary: "pacat", Args: []string{"--rate=%r", "--channels=2"}}
	got := cmd.args(44100)
	if !reflect.DeepEqual(got, []string{"--rate=44100", "--channels=2"}) {
		t.Errorf("unexpected args: %v", got)
	}
}

func TestDetectPlayer_NoBinaries(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", "")

	if _, err := NewPipeOutput(zap.NewNop(), 44100); err == nil {
		t.Fatal("expected error when no player is installed")
	}
}
