// Package util provides helpers for virtual serial management using socat,
// used to bench-test the drive links without wheelchair hardware attached.
package util

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
)

// VirtualSerial manages the lifecycle of socat-created virtual serial pairs.
// Each pair stands in for one wheelchair adapter: the couch writes command
// frames to one end and a bench harness reads them from the other.
type VirtualSerial struct {
	mu     sync.Mutex
	cmds   []*exec.Cmd
	links  []string
	closed bool
}

// NewVirtualSerial initializes an empty manager.
func NewVirtualSerial() *VirtualSerial {
	return &VirtualSerial{}
}

// CreatePair starts a socat process that links two PTYs (bidirectional).
func (m *VirtualSerial) CreatePair(couchEnd, benchEnd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := exec.Command(
		"socat", "-d", "-d",
		fmt.Sprintf("pty,raw,echo=0,link=%s", couchEnd),
		fmt.Sprintf("pty,raw,echo=0,link=%s", benchEnd),
	)
	cmd.Stdout = log.Writer()
	cmd.Stderr = log.Writer()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start socat: %w", err)
	}

	log.Printf("[virt-serial] started socat (pid=%d): %s <-> %s", cmd.Process.Pid, couchEnd, benchEnd)

	m.cmds = append(m.cmds, cmd)
	m.links = append(m.links, couchEnd, benchEnd)
	return nil
}

// Cleanup stops all socat processes and removes created links.
func (m *VirtualSerial) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	for _, cmd := range m.cmds {
		if cmd.Process != nil {
			log.Printf("[virt-serial] killing socat pid=%d", cmd.Process.Pid)
			_ = cmd.Process.Kill()
			_, _ = cmd.Process.Wait()
		}
	}
	for _, link := range m.links {
		_ = os.Remove(link)
	}
	m.cmds = nil
	m.links = nil
}
