package shark

import (
	"sync"

	"github.com/taillades/couch/internal/model"
)

// commandCell is a latest-value cell for the target command. The coordinator
// writes, the link's own cycle reads; one lock keeps either side from seeing
// a half-written value.
type commandCell struct {
	mu  sync.Mutex
	cmd model.Command
}

func (c *commandCell) Store(cmd model.Command) {
	c.mu.Lock()
	c.cmd = cmd
	c.mu.Unlock()
}

func (c *commandCell) Load() model.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cmd
}

// telemetryCell is the mirror-image latest-value cell: the link's cycle
// writes decoded readings, external status queries read them.
type telemetryCell struct {
	mu  sync.Mutex
	tel model.Telemetry
}

func (c *telemetryCell) Store(tel model.Telemetry) {
	c.mu.Lock()
	c.tel = tel
	c.mu.Unlock()
}

func (c *telemetryCell) Load() model.Telemetry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tel
}
