// Package device wraps the host PCM driver behind a small blocking,
// interleaved interface, so the transport engine never depends on a
// specific sound API.
//
// This replaces the teacher's internal/audio package, which drove
// recording by shelling out to "pw-jack ffmpeg" and connecting JACK ports
// with "pw-link" (internal/audio/pipewire_recorder.go,
// internal/audio/pipewire.go). Design Notes in the spec call that pattern
// out for retirement in favor of direct PCM device calls; Device is that
// direct interface. The only implementation shipped here is Loop, a
// software loopback/discard device used for tests and headless running —
// see DESIGN.md for why no cgo hardware binding is vendored.
package device

import (
	"errors"
	"fmt"
)

// Direction selects which half-duplex stream a Device opens.
type Direction string

const (
	Playback Direction = "playback"
	Capture  Direction = "capture"
)

// ErrXrun is returned by ReadInterleaved/WriteInterleaved when the driver
// signals an underrun (playback) or overrun (capture). The caller must
// call Recover before issuing further I/O.
type ErrXrun struct {
	Direction Direction
}

func (e *ErrXrun) Error() string {
	return fmt.Sprintf("device: xrun on %s stream", e.Direction)
}

// Is allows errors.Is(err, ErrXrun{...}) style checks without caring about
// which direction xrun'd.
func (e *ErrXrun) Is(target error) bool {
	_, ok := target.(*ErrXrun)
	return ok
}

// AnyXrun is a sentinel usable with errors.Is to detect an xrun of either
// direction without constructing an *ErrXrun.
var AnyXrun = &ErrXrun{}

// Device is a uniform blocking, interleaved, signed 16-bit little-endian
// PCM stream, opened for either Playback or Capture.
type Device interface {
	// WriteInterleaved blocks until frames have been consumed by the
	// driver. It returns ErrXrun on underrun.
	WriteInterleaved(frames []int16) error

	// ReadInterleaved blocks until buf has been filled by the driver. It
	// returns ErrXrun on overrun.
	ReadInterleaved(buf []int16) error

	// Recover resets the stream after an xrun and permits continuing.
	Recover() error

	// Close releases the device.
	Close() error
}

// Config describes how a Device should be opened.
type Config struct {
	Direction     Direction
	SampleRate    int
	Channels      int
	LatencyMicros int
}

// ErrUnavailable indicates the device could not be opened or configured.
var ErrUnavailable = errors.New("device: unavailable")
