// Package transport implements the Engine: the real-time transport loop
// that couples the project tape (internal/tape), the monitor mix
// (internal/mix), the track table (internal/track), and the audio devices
// (internal/device) into one period-driven read/mix/write/capture cycle.
//
// This is the "Engine aggregate" called for in the design notes: every
// piece of session state that used to live as package-level globals in
// the source this spec was distilled from (tracks, transport, file
// handle, buffers) is a field here. Controllers — the CLI in cmd/, or a
// test — drive it exclusively through the command methods below; there is
// no shared mutable state outside an *Engine value.
package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/jamtransport/jamtransport/internal/device"
	"github.com/jamtransport/jamtransport/internal/mix"
	"github.com/jamtransport/jamtransport/internal/sessionconfig"
	"github.com/jamtransport/jamtransport/internal/tape"
	"github.com/jamtransport/jamtransport/internal/track"
)

// NoTrack marks an arm bus as unassigned.
const NoTrack = -1

// State is the transport's exclusive PLAY/STOP state.
type State string

const (
	StateStop State = "STOP"
	StatePlay State = "PLAY"
)

// Kind classifies a transport-level failure (device/command errors; tape
// errors from internal/tape are wrapped through unchanged and keep their
// own Kind).
type Kind string

const (
	KindDeviceUnavailable Kind = "device_unavailable"
	KindInvalidCommand    Kind = "invalid_command"
)

// Error is a transport command/loop failure tagged with a Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("transport: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// DeviceOpener opens a Device for the given configuration; the CLI wires
// this to a real backend, tests wire it to device.Loop.
type DeviceOpener func(cfg device.Config) (device.Device, error)

// Status is a point-in-time snapshot for a controller to display.
type Status struct {
	State          State
	RecordEnabled  bool
	Recording      bool
	HeadFrame      int64
	LastFrame      int64
	SampleRate     int
	BitsPerSample  int
	Underruns      int
	Overruns       int
	ArmA           int
	ArmB           int
	Tracks         []track.Track
}

// Engine owns the tape, the track table, the devices, and the reusable
// period buffers, and runs the transport loop one period at a time.
type Engine struct {
	tapeFile *tape.File
	tapePath string
	channels int

	tracks []track.Track

	state         State
	recordEnabled bool
	armA          int
	armB          int

	head         int64
	recordOffset int64

	underruns int
	overruns  int

	playbackLatencyMicros int
	captureLatencyMicros  int
	sampleRate            int

	openDevice DeviceOpener
	playback   device.Device
	capture    device.Device

	// Buffers allocated once at Open and reused for the session.
	readBuf     []byte
	inputFrames []int16
	stereoBuf   []int16
	capBuf      []int16
	scratchBuf  []byte
	silentBuf   []byte

	cmdCh chan Command
}

// Open opens (or creates) the project tape at path. channels is only a
// creation hint: an existing tape's actual channel count, reported back in
// res.Channels, always wins, since tape.Open parses it from the file's
// "fmt " chunk on the parse path. Returns a ready Engine in STOP state with
// default (muted, unity, no arm) tracks. Callers typically follow Open with
// LoadSession to restore a saved sessionconfig.Session.
func Open(path string, channels int, recordOffsetFrames int64, openDevice DeviceOpener) (*Engine, tape.OpenResult, error) {
	tf, res, err := tape.Open(path, channels)
	if err != nil {
		return nil, res, err
	}
	channels = res.Channels

	tracks := make([]track.Track, channels)
	for i := range tracks {
		tracks[i] = track.New()
	}

	e := &Engine{
		tapeFile:     tf,
		tapePath:     path,
		channels:     channels,
		tracks:       tracks,
		state:        StateStop,
		armA:         NoTrack,
		armB:         NoTrack,
		head:         0,
		recordOffset: recordOffsetFrames,
		sampleRate:   tf.SampleRate(),
		openDevice:   openDevice,

		readBuf:     make([]byte, tf.PeriodBytes()),
		inputFrames: make([]int16, tape.FramesPerPeriod*channels),
		stereoBuf:   make([]int16, tape.FramesPerPeriod*2),
		capBuf:      make([]int16, tape.FramesPerPeriod*2),
		scratchBuf:  make([]byte, tf.PeriodBytes()),
		silentBuf:   make([]byte, tf.PeriodBytes()),
		cmdCh:       make(chan Command, commandQueueDepth),
	}
	return e, res, nil
}

// LoadSession applies a previously saved sessionconfig.Session. Tracks
// length must match the engine's channel count or the call is a no-op for
// the track table (head position and record offset still apply).
func (e *Engine) LoadSession(sess sessionconfig.Session) {
	if len(sess.Tracks) == e.channels {
		copy(e.tracks, sess.Tracks)
	}
	e.head = clamp64(sess.HeadPosition, 0, e.lastFrame())
	e.recordOffset = sess.RecordOffset
	e.tapeFile.SeekFrame(e.head)
}

// SessionSnapshot captures the current session state for sessionconfig.Save.
func (e *Engine) SessionSnapshot() sessionconfig.Session {
	tracks := make([]track.Track, len(e.tracks))
	copy(tracks, e.tracks)
	return sessionconfig.Session{
		Tracks:       tracks,
		HeadPosition: e.head,
		RecordOffset: e.recordOffset,
	}
}

// SetLatencies records the declared device latencies, which are passed as
// LatencyMicros when the playback and capture devices are opened; the
// record offset itself is set at construction/LoadSession time per spec.md
// §9 (a single constant derived from declared latencies).
func (e *Engine) SetLatencies(playbackMicros, captureMicros int) {
	e.playbackLatencyMicros = playbackMicros
	e.captureLatencyMicros = captureMicros
}

// Close closes any open devices and the tape file, flushing the RIFF size
// field.
func (e *Engine) Close() error {
	e.closeDevices()
	return e.tapeFile.Close()
}

func (e *Engine) lastFrame() int64 { return e.tapeFile.LastFrame() }

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ---- Commands (spec.md §4.5) ----

// Start transitions STOP -> PLAY. It is a no-op if already PLAY.
func (e *Engine) Start() error {
	if e.state == StatePlay {
		return nil
	}
	if e.tapeFile == nil {
		return newErr("start", KindDeviceUnavailable, fmt.Errorf("no tape open"))
	}

	pb, err := e.openDevice(device.Config{
		Direction:     device.Playback,
		SampleRate:    e.sampleRate,
		Channels:      2,
		LatencyMicros: e.playbackLatencyMicros,
	})
	if err != nil {
		return newErr("start", KindDeviceUnavailable, err)
	}
	e.playback = pb

	if e.recordEnabled && (e.armA != NoTrack || e.armB != NoTrack) {
		if err := e.openCapture(); err != nil {
			e.playback.Close()
			e.playback = nil
			return err
		}
	}

	if e.head >= e.lastFrame() && !e.recordEnabled {
		e.head = 0
	}
	e.tapeFile.SeekFrame(e.head)
	e.state = StatePlay
	return nil
}

// Stop transitions PLAY -> STOP, closing both devices. It is a no-op if
// already STOP.
func (e *Engine) Stop() error {
	if e.state != StatePlay {
		return nil
	}
	e.closeDevices()
	e.clearRecordingFlags()
	e.state = StateStop
	return nil
}

// ToggleRecordEnable flips record_enabled. While PLAY, disabling closes
// the capture device; enabling with an armed track opens it.
func (e *Engine) ToggleRecordEnable() error {
	e.recordEnabled = !e.recordEnabled
	if e.state != StatePlay {
		return nil
	}
	if !e.recordEnabled {
		e.closeCapture()
		e.clearRecordingFlags()
		return nil
	}
	if e.armA != NoTrack || e.armB != NoTrack {
		return e.openCapture()
	}
	return nil
}

// ArmA arms track t on capture bus A, toggling off if t is already armed
// there. Arming a track already held by ArmB steals it from B (Open
// Question (a), resolved in SPEC_FULL.md).
func (e *Engine) ArmA(t int) error {
	if err := e.validTrack(t); err != nil {
		return err
	}
	if e.armA == t {
		e.setRecording(e.armA, false)
		e.armA = NoTrack
		return nil
	}
	if e.armB == t {
		e.setRecording(e.armB, false)
		e.armB = NoTrack
	}
	e.setRecording(e.armA, false)
	e.armA = t
	if e.state == StatePlay && e.recordEnabled {
		if err := e.openCapture(); err != nil {
			return err
		}
		e.setRecording(t, true)
	}
	return nil
}

// ArmB is the ArmA symmetric counterpart for capture bus B.
func (e *Engine) ArmB(t int) error {
	if err := e.validTrack(t); err != nil {
		return err
	}
	if e.armB == t {
		e.setRecording(e.armB, false)
		e.armB = NoTrack
		return nil
	}
	if e.armA == t {
		e.setRecording(e.armA, false)
		e.armA = NoTrack
	}
	e.setRecording(e.armB, false)
	e.armB = t
	if e.state == StatePlay && e.recordEnabled {
		if err := e.openCapture(); err != nil {
			return err
		}
		e.setRecording(t, true)
	}
	return nil
}

// SeekAbsolute clamps f to [0, lastFrame] and repositions the head. Takes
// effect at the next period boundary; does not gap-fill audio.
func (e *Engine) SeekAbsolute(f int64) error {
	e.head = clamp64(f, 0, e.lastFrame())
	e.tapeFile.SeekFrame(e.head)
	return nil
}

// SeekRelative moves the head by delta frames, clamped to [0, lastFrame].
func (e *Engine) SeekRelative(delta int64) error {
	return e.SeekAbsolute(e.head + delta)
}

// SetMonitor sets track t's attenuation on both monitor buses.
func (e *Engine) SetMonitor(t, attenA, attenB int) error {
	if err := e.validTrack(t); err != nil {
		return err
	}
	if attenA < 0 || attenA > track.MaxAttenuation || attenB < 0 || attenB > track.MaxAttenuation {
		return newErr("set_monitor", KindInvalidCommand, fmt.Errorf("attenuation out of range"))
	}
	e.tracks[t].AttenA = attenA
	e.tracks[t].AttenB = attenB
	return nil
}

// Mute toggles track t's mute flag.
func (e *Engine) Mute(t int) error {
	if err := e.validTrack(t); err != nil {
		return err
	}
	e.tracks[t].Muted = !e.tracks[t].Muted
	return nil
}

// MuteAll sets every track's mute flag to mute, mirroring the original
// implementation's global-mute key (spec.md SPEC_FULL supplement).
func (e *Engine) MuteAll(mute bool) {
	for i := range e.tracks {
		e.tracks[i].Muted = mute
	}
}

func (e *Engine) validTrack(t int) error {
	if t < 0 || t >= e.channels {
		return newErr("arm", KindInvalidCommand, fmt.Errorf("track %d out of range [0,%d)", t, e.channels))
	}
	return nil
}

func (e *Engine) setRecording(t int, v bool) {
	if t >= 0 && t < len(e.tracks) {
		e.tracks[t].Recording = v
	}
}

func (e *Engine) clearRecordingFlags() {
	for i := range e.tracks {
		e.tracks[i].Recording = false
	}
}

// ---- Device lifecycle ----

func (e *Engine) openCapture() error {
	if e.capture != nil {
		return nil
	}
	capDev, err := e.openDevice(device.Config{
		Direction:     device.Capture,
		SampleRate:    e.sampleRate,
		Channels:      2,
		LatencyMicros: e.captureLatencyMicros,
	})
	if err != nil {
		return newErr("open_capture", KindDeviceUnavailable, err)
	}
	e.capture = capDev
	if e.armA != NoTrack {
		e.setRecording(e.armA, true)
	}
	if e.armB != NoTrack {
		e.setRecording(e.armB, true)
	}
	return nil
}

func (e *Engine) closeCapture() {
	if e.capture != nil {
		e.capture.Close()
		e.capture = nil
	}
}

func (e *Engine) closeDevices() {
	if e.playback != nil {
		e.playback.Close()
		e.playback = nil
	}
	e.closeCapture()
}

// ---- Status ----

// GetStatus returns a snapshot of the transport's current state.
func (e *Engine) GetStatus() Status {
	tracks := make([]track.Track, len(e.tracks))
	copy(tracks, e.tracks)
	return Status{
		State:         e.state,
		RecordEnabled: e.recordEnabled,
		Recording:     e.recordEnabled && e.state == StatePlay && (e.armA != NoTrack || e.armB != NoTrack),
		HeadFrame:     e.head,
		LastFrame:     e.lastFrame(),
		SampleRate:    e.sampleRate,
		BitsPerSample: 16,
		Underruns:     e.underruns,
		Overruns:      e.overruns,
		ArmA:          e.armA,
		ArmB:          e.armB,
		Tracks:        tracks,
	}
}

// HeadMinSecMillis converts the current head position to (minutes,
// seconds, milliseconds) at the tape's sample rate, for display.
func (e *Engine) HeadMinSecMillis() (int, int, int) {
	totalMillis := e.head * 1000 / int64(e.sampleRate)
	minutes := totalMillis / 60000
	seconds := (totalMillis / 1000) % 60
	millis := totalMillis % 1000
	return int(minutes), int(seconds), int(millis)
}

// ---- The per-period loop (spec.md §4.5) ----

// RunPeriod executes exactly one period of the transport loop. It must
// only be called while GetStatus().State == PLAY. It returns the state
// after the period (false once the loop has transitioned to STOP) and a
// non-nil error only for fatal (non-xrun) failures, which also transition
// to STOP.
func (e *Engine) RunPeriod() (playing bool, err error) {
	if e.state != StatePlay {
		return false, nil
	}

	n, rerr := e.tapeFile.ReadPeriod(e.readBuf)
	if rerr != nil {
		e.fatalStop()
		return false, rerr
	}
	if n == 0 && !e.recordEnabled {
		e.closeDevices()
		e.state = StateStop
		return false, nil
	}
	if n < len(e.readBuf) {
		copy(e.readBuf[n:], e.silentBuf[n:])
	}

	bytesToInt16LE(e.readBuf, e.inputFrames)
	mix.MixPeriod(e.inputFrames, e.tracks, tape.FramesPerPeriod, e.stereoBuf)

	if werr := e.playback.WriteInterleaved(e.stereoBuf); werr != nil {
		if isXrun(werr) {
			e.underruns++
			e.playback.Recover()
		} else {
			e.fatalStop()
			return false, werr
		}
	}

	e.head += tape.FramesPerPeriod

	if e.recordEnabled && (e.armA != NoTrack || e.armB != NoTrack) {
		if err := e.recordPeriod(); err != nil {
			e.fatalStop()
			return false, err
		}
	}

	return true, nil
}

func (e *Engine) recordPeriod() error {
	if e.head < e.recordOffset {
		// Pre-roll: still read and discard a capture period so the
		// device stays drained and the first frame written at H=R is
		// the one that actually lags playback by R, not whatever the
		// capture buffer happened to have queued.
		if cerr := e.capture.ReadInterleaved(e.capBuf); cerr != nil {
			if isXrun(cerr) {
				e.overruns++
				e.capture.Recover()
				return nil
			}
			return cerr
		}
		return nil
	}
	if e.head >= e.lastFrame() {
		if err := e.tapeFile.ExtendBySilence(1); err != nil {
			return err
		}
	}

	if cerr := e.capture.ReadInterleaved(e.capBuf); cerr != nil {
		if isXrun(cerr) {
			e.overruns++
			e.capture.Recover()
			return nil
		}
		return cerr
	}

	overdubFrame := e.head - e.recordOffset
	overdubOffset := e.tapeFile.StartOfData() + overdubFrame*int64(e.tapeFile.FrameSize())

	if _, err := e.tapeFile.ReadPeriodAt(e.scratchBuf, overdubOffset); err != nil {
		return err
	}

	frameSize := e.tapeFile.FrameSize()
	for i := 0; i < tape.FramesPerPeriod; i++ {
		base := i * frameSize
		if e.armA != NoTrack {
			putInt16LE(e.scratchBuf[base+e.armA*2:], e.capBuf[i*2])
		}
		if e.armB != NoTrack {
			putInt16LE(e.scratchBuf[base+e.armB*2:], e.capBuf[i*2+1])
		}
	}

	return e.tapeFile.WritePeriodAt(e.scratchBuf, overdubOffset)
}

func (e *Engine) fatalStop() {
	e.closeDevices()
	e.state = StateStop
}

func isXrun(err error) bool {
	_, ok := err.(*device.ErrXrun)
	return ok
}

func bytesToInt16LE(src []byte, dst []int16) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
}

func putInt16LE(dst []byte, v int16) {
	binary.LittleEndian.PutUint16(dst, uint16(v))
}
