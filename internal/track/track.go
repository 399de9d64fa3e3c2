// Package track defines the per-track monitor mix settings the transport
// engine and mixer consult once per period.
package track

// MaxAttenuation is the attenuation step that yields silence (-inf).
const MaxAttenuation = 16

// Track is a plain value object: no I/O, no mutex, no derived state beyond
// Recording, which the transport sets and clears at period boundaries.
type Track struct {
	// AttenA and AttenB are monitor attenuation in 6dB steps for bus A/B,
	// in [0, MaxAttenuation]. 0 is unity gain, MaxAttenuation is silence.
	AttenA int
	AttenB int

	// Muted silences both monitor buses for this track regardless of
	// attenuation.
	Muted bool

	// Recording is true while this track is armed for capture and the
	// capture device is open; it silences the track's own monitor
	// contribution to prevent acoustic feedback during overdub.
	Recording bool
}

// New returns a Track with the session default: unmuted would feed back
// during overdub before any routing decision is made, so new tracks start
// muted per spec until the operator explicitly opens them up.
func New() Track {
	return Track{AttenA: 0, AttenB: 0, Muted: true, Recording: false}
}

// Silent reports whether the track currently contributes nothing to either
// monitor bus.
func (t Track) Silent() bool {
	return t.Muted || t.Recording || (t.AttenA >= MaxAttenuation && t.AttenB >= MaxAttenuation)
}

// ContributeA returns this track's contribution of sample s to bus A.
func (t Track) ContributeA(s int16) int32 {
	return contribute(s, t.AttenA, t.Muted || t.Recording)
}

// ContributeB returns this track's contribution of sample s to bus B.
func (t Track) ContributeB(s int16) int32 {
	return contribute(s, t.AttenB, t.Muted || t.Recording)
}

func contribute(s int16, atten int, silenced bool) int32 {
	if silenced || atten >= MaxAttenuation {
		return 0
	}
	// Signed arithmetic right shift, per spec: never an unsigned shift.
	return int32(s >> uint(atten))
}
