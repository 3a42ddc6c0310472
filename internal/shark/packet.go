// Package shark implements the serial wire protocol spoken by the Shark
// wheelchair power modules: the 10-byte general-information command frame,
// the power-module telemetry frames, and the supervised link that exchanges
// them at a fixed cadence.
package shark

import (
	"time"

	"github.com/taillades/couch/internal/device"
	"github.com/taillades/couch/internal/model"
)

const (
	// MaxSpeedConst is the fixed maximum-speed byte carried in every
	// command frame (0-255).
	MaxSpeedConst = 255

	// BaudRate of the wheelchair bus.
	BaudRate = 38400

	// Terminator marks end-of-frame in both directions. Technically a
	// separate transmit-finish packet.
	Terminator = 0x0F

	// NominalMaxSpeed is the ground speed in mph reported when the
	// 5-bit gauge reads full scale.
	NominalMaxSpeed = 4.5
)

// frameType is the 'type 00 SR General Information' marker: first bit clear,
// length 6 bytes (0b110), packet type 0 (0b000).
const frameType = 0x60

// BuildPacket builds the 10-byte general-information command frame from
// 10-bit speed and direction values (0-1023) already mapped by the caller.
// It is total: out-of-range inputs must be pre-clamped.
func BuildPacket(speed, direction int) []byte {
	data := make([]byte, 10)
	data[0] = frameType

	// MSB 7 bits of 10-bit speed, direction, and MaxSpeedConst, each with
	// the 8th bit set per the payload framing convention.
	data[1] = 0x80 | byte((speed>>3)&0x7F)
	data[2] = 0x80 | byte((direction>>3)&0x7F)
	data[3] = 0x80 | byte((MaxSpeedConst>>1)&0x7F)

	// LSB packing: 1 bit of MaxSpeedConst, 3 bits of speed, 3 bits of direction.
	data[4] = 0x80 |
		byte((MaxSpeedConst&0x01)<<6) |
		byte((speed&0x07)<<3) |
		byte(direction&0x07)

	data[5] = 128 // horn off, lock off, no errors
	data[6] = 132 // hazard, indicators, calibration and power off; SPM HPP messages allowed
	data[7] = 128 // no fault, no headlights, drive mode set

	sum := 0
	for _, b := range data[:8] {
		sum += int(b)
	}
	// 7-bit additive checksum: mask the running sum before subtracting.
	data[8] = byte((255 - (sum & 0x7F)) & 0xFF)

	data[9] = Terminator
	return data
}

// DecodeTelemetry reads the power-module general information out of a frame.
// The low nibble of byte 0 is the message type; anything but type 1, or a
// frame too short to carry the gauges, yields ok=false. Telemetry is
// best-effort, so there is no error to report.
func DecodeTelemetry(frame []byte) (model.Telemetry, bool) {
	if len(frame) < 8 {
		return model.Telemetry{}, false
	}
	if frame[0]&0x0F != 1 {
		return model.Telemetry{}, false
	}
	fuelGauge := float64(frame[1]&31) * 100 / 18
	groundSpeed := float64(frame[7]&31) / 31 * NominalMaxSpeed
	return model.Telemetry{FuelGauge: fuelGauge, GroundSpeed: groundSpeed}, true
}

// ReadFrame reads bytes from dev until the terminator byte is observed and
// returns the complete frame including the terminator. A read failure, a
// bare terminator, or a frame whose first byte carries the payload bit
// (power-on framing noise) returns nil.
func ReadFrame(dev device.Device, timeout time.Duration) []byte {
	var frame []byte
	for {
		b, err := dev.ReadByte(timeout)
		if err != nil {
			return nil
		}
		frame = append(frame, b)
		if b == Terminator {
			break
		}
	}
	if len(frame) < 2 || frame[0]&0x80 != 0 {
		return nil
	}
	return frame
}

// NormalizeRange maps value from the input range to the output range by
// linear interpolation, truncated to an integer. The drive intent range
// [-1, 1] maps onto the 10-bit wire range [0, 1023] with center 511.
func NormalizeRange(inMin, inMax float64, outMin, outMax int, value float64) int {
	pct := (value - inMin) / (inMax - inMin)
	return int(float64(outMin) + (float64(outMax)-float64(outMin))*pct)
}
