package mix

import (
	"testing"

	"github.com/jamtransport/jamtransport/internal/track"
)

func TestMixPeriodAllMutedProducesSilence(t *testing.T) {
	tracks := []track.Track{track.New(), track.New()}
	in := []int16{1000, -1000, 2000, -2000}
	out := make([]int16, 4)
	MixPeriod(in, tracks, 2, out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %d, want 0 (all tracks muted)", i, v)
		}
	}
}

func TestMixPeriodUnityGainSumsChannels(t *testing.T) {
	tracks := []track.Track{
		{AttenA: 0, AttenB: 0, Muted: false},
		{AttenA: 0, AttenB: 0, Muted: false},
	}
	in := []int16{100, 200}
	out := make([]int16, 2)
	MixPeriod(in, tracks, 1, out)
	if out[0] != 300 || out[1] != 300 {
		t.Fatalf("out = %v, want [300 300]", out)
	}
}

func TestMixPeriodIndependentBusAttenuation(t *testing.T) {
	tracks := []track.Track{
		{AttenA: 0, AttenB: 4, Muted: false},
	}
	in := []int16{1600}
	out := make([]int16, 2)
	MixPeriod(in, tracks, 1, out)
	if out[0] != 1600 {
		t.Fatalf("busA = %d, want 1600", out[0])
	}
	if out[1] != 100 {
		t.Fatalf("busB = %d, want 100 (1600>>4)", out[1])
	}
}

func TestMixPeriodSaturatesOnOverflow(t *testing.T) {
	tracks := []track.Track{
		{Muted: false}, {Muted: false}, {Muted: false},
	}
	in := []int16{32000, 32000, 32000}
	out := make([]int16, 2)
	MixPeriod(in, tracks, 1, out)
	if out[0] != 32767 {
		t.Fatalf("busA = %d, want saturated 32767", out[0])
	}
}

func TestMixPeriodSaturatesOnNegativeOverflow(t *testing.T) {
	tracks := []track.Track{
		{Muted: false}, {Muted: false}, {Muted: false},
	}
	in := []int16{-32000, -32000, -32000}
	out := make([]int16, 2)
	MixPeriod(in, tracks, 1, out)
	if out[0] != -32768 {
		t.Fatalf("busA = %d, want saturated -32768", out[0])
	}
}
