// Package mix implements the transport's monitor mix: summing attenuated
// per-track contributions into a stereo period buffer.
//
// This replaces the teacher's ffmpeg-filter-graph mixer (which shelled out
// to build a "amix"/"volume"/"adelay" filter_complex string over an
// already-recorded file) with the in-process, per-period arithmetic the
// real-time transport loop needs: MixPeriod is pure and allocation-free
// given caller-supplied buffers, matching spec.md's "no retained state, no
// I/O" requirement.
package mix

import (
	"github.com/jamtransport/jamtransport/internal/track"
)

// MixPeriod reads one period of interleaved multi-channel frames from in
// (periodFrames * len(tracks) int16 samples, channel-major) and writes one
// period of interleaved stereo frames to out (periodFrames * 2 int16
// samples, bus A then bus B), summing each track's attenuated contribution
// with a 32-bit accumulator and saturating to int16 on store.
//
// len(in) must equal periodFrames*len(tracks); len(out) must equal
// periodFrames*2. MixPeriod does not retain in, out, or tracks.
func MixPeriod(in []int16, tracks []track.Track, periodFrames int, out []int16) {
	nch := len(tracks)
	for f := 0; f < periodFrames; f++ {
		var accA, accB int32
		base := f * nch
		for c := 0; c < nch; c++ {
			s := in[base+c]
			t := tracks[c]
			accA += t.ContributeA(s)
			accB += t.ContributeB(s)
		}
		out[f*2] = saturate(accA)
		out[f*2+1] = saturate(accB)
	}
}

func saturate(v int32) int16 {
	const maxI16 = 1<<15 - 1
	const minI16 = -1 << 15
	if v > maxI16 {
		return maxI16
	}
	if v < minI16 {
		return minI16
	}
	return int16(v)
}
