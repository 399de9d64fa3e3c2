package device

import "testing"

func TestLoopWriteInterleavedFeedsSink(t *testing.T) {
	var got []int16
	l := NewLoop(Playback, 2)
	l.Sink = func(frames []int16) { got = frames }

	in := []int16{1, 2, 3, 4}
	if err := l.WriteInterleaved(in); err != nil {
		t.Fatalf("WriteInterleaved: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("sink received %d frames, want %d", len(got), len(in))
	}
}

func TestLoopReadInterleavedDefaultsToSilence(t *testing.T) {
	l := NewLoop(Capture, 2)
	buf := []int16{9, 9, 9, 9}
	if err := l.ReadInterleaved(buf); err != nil {
		t.Fatalf("ReadInterleaved: %v", err)
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %d, want 0", i, v)
		}
	}
}

func TestLoopWrongDirectionReturnsErrUnavailable(t *testing.T) {
	l := NewLoop(Playback, 2)
	if err := l.ReadInterleaved(make([]int16, 4)); err != ErrUnavailable {
		t.Fatalf("ReadInterleaved on a Playback Loop: err = %v, want ErrUnavailable", err)
	}
}

func TestLoopXrunEveryInjectsAndRecovers(t *testing.T) {
	l := NewLoop(Playback, 2)
	l.XrunEvery = 3

	buf := make([]int16, 2)
	var xruns int
	for i := 0; i < 6; i++ {
		err := l.WriteInterleaved(buf)
		if err != nil {
			if !AnyXrun.Is(err) {
				t.Fatalf("call %d: unexpected error %v", i, err)
			}
			xruns++
			if rerr := l.Recover(); rerr != nil {
				t.Fatalf("Recover: %v", rerr)
			}
		}
	}
	if xruns != 2 {
		t.Fatalf("xrun count = %d, want 2 (calls 3 and 6)", xruns)
	}
}
