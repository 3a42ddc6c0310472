package shark

import (
	"log"
	"sync"
	"time"

	"github.com/taillades/couch/internal/device"
	"github.com/taillades/couch/internal/model"
)

// ConnState is the supervised connection state of a Link.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	// startWaitTime lets the power module settle after the port opens
	// before the first command frame goes out.
	startWaitTime = 300 * time.Millisecond

	// defaultPeriod is the TX/RX cycle cadence.
	defaultPeriod = 16 * time.Millisecond

	// defaultReadTimeout bounds the per-cycle telemetry read.
	defaultReadTimeout = 200 * time.Millisecond

	// DefaultMaxIdleTime is the idle watchdog threshold: with no fresh
	// command for this long the transmitted frame decays to zero motion.
	DefaultMaxIdleTime = time.Second

	// stopTimeout bounds how long Stop waits for the cycle to exit.
	stopTimeout = time.Second
)

// LinkConfig tunes one Link. Zero fields fall back to the defaults above.
type LinkConfig struct {
	Baud        int
	Period      time.Duration
	ReadTimeout time.Duration
	MaxIdle     time.Duration
}

// Link owns one wheelchair serial channel. It runs a fixed-cadence
// transmit/receive cycle encoding the current target command, applies the
// idle-safety watchdog, and exposes a thread-safe command/telemetry surface.
//
// A closed or absent adapter is a normal state: Start reports failure
// instead of erroring, and SetCommand retries the connection lazily.
type Link struct {
	port string
	cfg  LinkConfig

	// open is swapped out by tests to supply a fake device.
	open func() (device.Device, error)

	mu    sync.Mutex
	state ConnState
	dev   device.Device
	stop  chan struct{}
	done  chan struct{}

	cmd commandCell
	tel telemetryCell
}

// NewLink creates a Link for the serial adapter at port. The channel is not
// opened until Start or the first SetCommand.
func NewLink(port string, cfg LinkConfig) *Link {
	if cfg.Baud == 0 {
		cfg.Baud = BaudRate
	}
	if cfg.Period == 0 {
		cfg.Period = defaultPeriod
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.MaxIdle == 0 {
		cfg.MaxIdle = DefaultMaxIdleTime
	}
	l := &Link{port: port, cfg: cfg}
	l.open = func() (device.Device, error) {
		return device.NewSerialDevice(port, cfg.Baud)
	}
	return l
}

// Start attempts to open the serial channel and begin the TX/RX cycle.
// It returns whether the connection was established; a failed open leaves
// the link Disconnected and is recoverable via a later SetCommand.
func (l *Link) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startLocked()
}

func (l *Link) startLocked() bool {
	if l.state == Connected {
		return true
	}
	l.state = Connecting
	dev, err := l.open()
	if err != nil {
		// Most likely the adapter is not plugged in yet. Log and let
		// the caller try again later.
		log.Printf("[%s] unable to open serial connection: %v", l.port, err)
		l.state = Disconnected
		return false
	}
	log.Printf("[%s] serial connection established", l.port)
	time.Sleep(startWaitTime)

	l.dev = dev
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.cycle(dev, l.stop, l.done)
	l.state = Connected
	return true
}

// cycle is the fixed-cadence transmit/receive loop. Exactly one cycle
// goroutine runs per connected link; it exits on stop or on a write fault,
// marking the link Disconnected in the latter case.
func (l *Link) cycle(dev device.Device, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.cfg.Period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		cmd := l.cmd.Load()
		if time.Since(cmd.Timestamp) > l.cfg.MaxIdle {
			// Idle watchdog: substitute zero motion for this
			// transmission only. The stored target stays put for
			// diagnostics.
			cmd = model.Command{}
		}
		speed := NormalizeRange(-1, 1, 0, 1023, cmd.Speed)
		direction := NormalizeRange(-1, 1, 0, 1023, cmd.Direction)

		if err := dev.Write(BuildPacket(speed, direction)); err != nil {
			log.Printf("[%s] write failed, dropping link: %v", l.port, err)
			l.drop(dev)
			return
		}

		if frame := ReadFrame(dev, l.cfg.ReadTimeout); frame != nil {
			if tel, ok := DecodeTelemetry(frame); ok {
				l.tel.Store(tel)
			}
		}
	}
}

// drop tears down a failed device so the next SetCommand reconnects fresh
// rather than retrying a dead handle.
func (l *Link) drop(dev device.Device) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = dev.Close()
	if l.dev == dev {
		l.dev = nil
		l.stop = nil
		l.done = nil
		l.state = Disconnected
	}
}

// SetCommand atomically replaces the target command, stamping it now. If the
// link is not connected it first attempts one reconnect; when that fails the
// call is a no-op and any previous target keeps decaying per the watchdog.
func (l *Link) SetCommand(speed, direction float64) {
	l.mu.Lock()
	if l.state != Connected {
		if !l.startLocked() {
			l.mu.Unlock()
			return
		}
	}
	l.mu.Unlock()

	l.cmd.Store(model.Command{Speed: speed, Direction: direction, Timestamp: time.Now()})
}

// Status returns the last applied command and its timestamp.
func (l *Link) Status() model.Command {
	return l.cmd.Load()
}

// Telemetry returns the last decoded telemetry snapshot. It may be stale or
// zero if the power module has not reported yet.
func (l *Link) Telemetry() model.Telemetry {
	return l.tel.Load()
}

// State returns the current connection state.
func (l *Link) State() ConnState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stop signals the cycle to exit, waits for the current iteration to finish
// so no frame is cut mid-write, and closes the channel. Safe to call even if
// Start never succeeded.
func (l *Link) Stop() {
	l.mu.Lock()
	stop, done, dev := l.stop, l.done, l.dev
	l.stop, l.done, l.dev = nil, nil, nil
	l.state = Disconnected
	l.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(stopTimeout):
			log.Printf("[%s] cycle did not exit within %v", l.port, stopTimeout)
		}
	}
	if dev != nil {
		_ = dev.Close()
	}
}
