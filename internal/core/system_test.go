package core

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewSystem(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, `
serial:
  left_port: /dev/null-left
  right_port: /dev/null-right
server:
  db_path: `+filepath.Join(dir, "snapshots.db")+`
`)
	sys, err := NewSystem(cfg)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	defer sys.StopAll()

	if sys.Left == nil || sys.Right == nil || sys.Coordinator == nil || sys.App == nil {
		t.Fatal("system components not constructed")
	}
	if sys.Publisher != nil {
		t.Error("publisher constructed without a broker configured")
	}
	if sys.Thermo != nil || sys.Lights != nil {
		t.Error("peripheral boards constructed without ports configured")
	}

	snap := sys.Snapshot()
	if snap.Timestamp == "" {
		t.Error("snapshot timestamp empty")
	}
	if snap.Position.Lat != 0 || snap.Theta == 0 {
		// Heading defaults to 45 degrees even with a zero start position.
		t.Errorf("snapshot estimate = %+v theta %v", snap.Position, snap.Theta)
	}
}

func TestNewSystem_PeripheralBoards(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, `
serial:
  left_port: /dev/null-left
  right_port: /dev/null-right
server:
  db_path: `+filepath.Join(dir, "snapshots.db")+`
thermo:
  port: /dev/null-thermo
lights:
  port: /dev/null-lights
`)
	sys, err := NewSystem(cfg)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	defer sys.StopAll()

	// Boards are constructed but their ports stay closed until use.
	if sys.Thermo == nil {
		t.Error("thermo monitor not constructed")
	}
	if sys.Lights == nil {
		t.Error("lights controller not constructed")
	}
}

func TestNewSystem_ConfigFaultsAreFatal(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing ports", `drive: {track_width: 10}`},
		{"negative track width", `
serial:
  left_port: /dev/a
  right_port: /dev/b
drive:
  track_width: -5
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSystem(writeConfig(t, tt.body)); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestNewSystem_MissingFile(t *testing.T) {
	if _, err := NewSystem(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
