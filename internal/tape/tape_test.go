package tape

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func tempTapePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "project.wav")
}

func TestOpenCreatesMinimalHeaderForNewFile(t *testing.T) {
	path := tempTapePath(t)
	tf, res, err := Open(path, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tf.Close()

	if !res.Created {
		t.Fatal("res.Created = false, want true for a new file")
	}
	if res.Channels != 8 {
		t.Fatalf("res.Channels = %d, want 8", res.Channels)
	}
	if res.SampleRate != sampleRateHz {
		t.Fatalf("res.SampleRate = %d, want %d", res.SampleRate, sampleRateHz)
	}
	if tf.StartOfData() != minimalHeaderSize {
		t.Fatalf("StartOfData() = %d, want %d", tf.StartOfData(), minimalHeaderSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw) != minimalHeaderSize {
		t.Fatalf("new file length = %d, want %d", len(raw), minimalHeaderSize)
	}
	if string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE magic in %x", raw[:12])
	}
}

func TestOpenRejectsUnsupportedChannelCount(t *testing.T) {
	path := tempTapePath(t)
	if _, _, err := Open(path, 0); err == nil {
		t.Fatal("Open with 0 channels: want error")
	}
	if _, _, err := Open(path, MaxTracks+1); err == nil {
		t.Fatal("Open with channels > MaxTracks: want error")
	}
}

func TestWritePeriodAtThenReadPeriodRoundTrips(t *testing.T) {
	path := tempTapePath(t)
	tf, _, err := Open(path, 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tf.Close()

	if err := tf.ExtendBySilence(1); err != nil {
		t.Fatalf("ExtendBySilence: %v", err)
	}

	period := make([]byte, tf.PeriodBytes())
	for i := range period {
		period[i] = byte(i % 251)
	}
	if err := tf.WritePeriodAt(period, tf.StartOfData()); err != nil {
		t.Fatalf("WritePeriodAt: %v", err)
	}

	tf.SeekFrame(0)
	readBack := make([]byte, tf.PeriodBytes())
	n, err := tf.ReadPeriod(readBack)
	if err != nil {
		t.Fatalf("ReadPeriod: %v", err)
	}
	if n != len(period) {
		t.Fatalf("ReadPeriod n = %d, want %d", n, len(period))
	}
	if !bytes.Equal(readBack, period) {
		t.Fatal("read-back bytes differ from what was written")
	}
}

func TestOverdubPreservesUntouchedColumns(t *testing.T) {
	path := tempTapePath(t)
	tf, _, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tf.Close()

	if err := tf.ExtendBySilence(1); err != nil {
		t.Fatalf("ExtendBySilence: %v", err)
	}

	frameSize := tf.FrameSize()
	original := make([]byte, tf.PeriodBytes())
	for f := 0; f < FramesPerPeriod; f++ {
		for c := 0; c < 4; c++ {
			binary.LittleEndian.PutUint16(original[f*frameSize+c*2:], uint16(1000+c))
		}
	}
	if err := tf.WritePeriodAt(original, tf.StartOfData()); err != nil {
		t.Fatalf("seed WritePeriodAt: %v", err)
	}

	// simulate the transport's overdub of track column 2 only
	scratch := make([]byte, tf.PeriodBytes())
	if _, err := tf.ReadPeriodAt(scratch, tf.StartOfData()); err != nil {
		t.Fatalf("ReadPeriodAt: %v", err)
	}
	for f := 0; f < FramesPerPeriod; f++ {
		binary.LittleEndian.PutUint16(scratch[f*frameSize+2*2:], uint16(9999))
	}
	if err := tf.WritePeriodAt(scratch, tf.StartOfData()); err != nil {
		t.Fatalf("overdub WritePeriodAt: %v", err)
	}

	final := make([]byte, tf.PeriodBytes())
	if _, err := tf.ReadPeriodAt(final, tf.StartOfData()); err != nil {
		t.Fatalf("final ReadPeriodAt: %v", err)
	}
	for f := 0; f < FramesPerPeriod; f++ {
		for c := 0; c < 4; c++ {
			got := binary.LittleEndian.Uint16(final[f*frameSize+c*2:])
			if c == 2 {
				if got != 9999 {
					t.Fatalf("frame %d column %d = %d, want 9999", f, c, got)
				}
			} else if got != uint16(1000+c) {
				t.Fatalf("frame %d column %d = %d, want untouched %d", f, c, got, 1000+c)
			}
		}
	}
}

func TestExtendBySilenceGrowsByExactPeriod(t *testing.T) {
	path := tempTapePath(t)
	tf, _, err := Open(path, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tf.Close()

	before := tf.EndOfData()
	if err := tf.ExtendBySilence(3); err != nil {
		t.Fatalf("ExtendBySilence: %v", err)
	}
	want := before + int64(3*tf.PeriodBytes())
	if tf.EndOfData() != want {
		t.Fatalf("EndOfData() = %d, want %d", tf.EndOfData(), want)
	}
	if tf.LastFrame() != int64(3*FramesPerPeriod) {
		t.Fatalf("LastFrame() = %d, want %d", tf.LastFrame(), 3*FramesPerPeriod)
	}
}

func TestCloseWritesFinalRiffSize(t *testing.T) {
	path := tempTapePath(t)
	tf, _, err := Open(path, 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tf.ExtendBySilence(2); err != nil {
		t.Fatalf("ExtendBySilence: %v", err)
	}
	endOfData := tf.EndOfData()
	if err := tf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	riffSize := binary.LittleEndian.Uint32(raw[4:8])
	if int64(riffSize) != endOfData-8 {
		t.Fatalf("RIFF size field = %d, want %d", riffSize, endOfData-8)
	}
}

func TestOpenNormalizesNonMinimalHeader(t *testing.T) {
	path := tempTapePath(t)

	// Hand-build a WAV with an extra "LIST" chunk before "data", so the
	// data chunk does not begin at byte 44.
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // patched below
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRateHz))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRateHz*2*2))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("LIST")
	listPayload := []byte("some metadata...")
	binary.Write(&buf, binary.LittleEndian, uint32(len(listPayload)))
	buf.Write(listPayload)

	dataPayload := make([]byte, 8)
	for i := range dataPayload {
		dataPayload[i] = byte(0xA0 + i)
	}
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(dataPayload)))
	buf.Write(dataPayload)

	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(raw)-8))

	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tf, res, err := Open(path, 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tf.Close()

	if !res.Normalized {
		t.Fatal("res.Normalized = false, want true")
	}
	if tf.StartOfData() != minimalHeaderSize {
		t.Fatalf("StartOfData() = %d, want %d after normalize", tf.StartOfData(), minimalHeaderSize)
	}

	got := make([]byte, len(dataPayload))
	if _, err := tf.ReadPeriodAt(got, tf.StartOfData()); err != nil {
		t.Fatalf("ReadPeriodAt: %v", err)
	}
	if !bytes.Equal(got, dataPayload) {
		t.Fatalf("data payload after normalize = %x, want %x", got, dataPayload)
	}
}
