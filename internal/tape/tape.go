// Package tape implements the project tape: a multi-channel WAV-RIFF file
// treated as a random-access recording medium.
//
// The file layout is deliberately minimal: a 12-byte RIFF preamble, a
// 24-byte "fmt " chunk, an 8-byte "data" chunk header, and PCM samples
// starting at byte offset 44. Files that arrive with a different layout
// (extra chunks before the data, padding, etc.) are normalized in place on
// open.
package tape

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// MaxTracks bounds the channel count a project tape may declare.
const MaxTracks = 16

// SampleRateHz is the fixed sample rate every project tape is created and
// validated against.
const SampleRateHz = 44100

const (
	minimalHeaderSize = 44
	fmtChunkPayload    = 16
	bitsPerSample      = 16
	bytesPerSample     = bitsPerSample / 8
	sampleRateHz       = SampleRateHz
	// FramesPerPeriod is the fixed I/O unit for all streaming access.
	FramesPerPeriod = 128
	copyRunBytes    = 512
)

// Kind classifies a tape error for callers that need to branch on it
// without string matching (mirrors internal/config's wrapped-error style,
// generalized into an explicit taxonomy per the transport engine's error
// model).
type Kind string

const (
	KindNotRiff                 Kind = "not_riff"
	KindNotWave                 Kind = "not_wave"
	KindUnsupportedBitDepth     Kind = "unsupported_bit_depth"
	KindUnsupportedChannelCount Kind = "unsupported_channel_count"
	KindIoError                 Kind = "io_error"
)

// Error is a tape operation failure tagged with a Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tape: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("tape: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// OpenResult reports what Open actually did, for the caller's status line.
type OpenResult struct {
	Created    bool
	Normalized bool
	Channels   int
	SampleRate int
	LastFrame  int64
}

// File is an open project tape: a random-access multi-channel PCM stream
// backed by a single WAV-RIFF file.
type File struct {
	f            *os.File
	channels     int
	sampleRate   int
	startOfData  int64
	endOfData    int64
	frameSize    int // bytes per frame = 2 * channels
	readPos      int64
}

// Open opens path as a project tape with the given channel count. If the
// file is empty or does not exist, a fresh minimal-header tape is created.
// Otherwise the existing header is parsed and, if necessary, normalized to
// the minimal 44-byte layout in place.
func Open(path string, channels int) (*File, OpenResult, error) {
	if channels <= 0 || channels > MaxTracks {
		return nil, OpenResult{}, newErr("open", KindUnsupportedChannelCount,
			fmt.Errorf("channel count %d out of range [1,%d]", channels, MaxTracks))
	}

	info, statErr := os.Stat(path)
	needsCreate := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, OpenResult{}, newErr("open", KindIoError, err)
	}

	if needsCreate {
		tf, err := createMinimal(f, channels)
		if err != nil {
			f.Close()
			return nil, OpenResult{}, err
		}
		return tf, OpenResult{
			Created:    true,
			Channels:   channels,
			SampleRate: sampleRateHz,
			LastFrame:  0,
		}, nil
	}

	tf, dataStart, err := parseHeader(f)
	if err != nil {
		f.Close()
		return nil, OpenResult{}, err
	}

	normalized := false
	if dataStart != minimalHeaderSize {
		if err := tf.normalize(dataStart); err != nil {
			f.Close()
			return nil, OpenResult{}, err
		}
		normalized = true
	}

	res := OpenResult{
		Normalized: normalized,
		Channels:   tf.channels,
		SampleRate: tf.sampleRate,
		LastFrame:  tf.LastFrame(),
	}
	return tf, res, nil
}

func createMinimal(f *os.File, channels int) (*File, error) {
	if err := f.Truncate(0); err != nil {
		return nil, newErr("open", KindIoError, err)
	}
	hdr := buildHeader(channels, 0)
	if _, err := f.WriteAt(hdr, 0); err != nil {
		return nil, newErr("open", KindIoError, err)
	}
	return &File{
		f:           f,
		channels:    channels,
		sampleRate:  sampleRateHz,
		startOfData: minimalHeaderSize,
		endOfData:   minimalHeaderSize,
		frameSize:   channels * bytesPerSample,
	}, nil
}

// buildHeader returns a fresh 44-byte minimal RIFF/WAVE header for the
// given channel count and data size.
func buildHeader(channels int, dataSize uint32) []byte {
	buf := make([]byte, minimalHeaderSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], 36+dataSize)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], fmtChunkPayload)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], sampleRateHz)
	byteRate := uint32(sampleRateHz) * uint32(channels) * bytesPerSample
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], uint16(channels*bytesPerSample))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataSize)
	return buf
}

// parseHeader scans the RIFF chunk structure of an existing file and
// returns a populated *File plus the byte offset the data chunk actually
// begins at (which may not be 44).
func parseHeader(f *os.File) (*File, int64, error) {
	preamble := make([]byte, 12)
	if _, err := io.ReadFull(f, preamble); err != nil {
		return nil, 0, newErr("open", KindNotRiff, err)
	}
	if string(preamble[0:4]) != "RIFF" {
		return nil, 0, newErr("open", KindNotRiff, fmt.Errorf("missing RIFF magic"))
	}
	if string(preamble[8:12]) != "WAVE" {
		return nil, 0, newErr("open", KindNotWave, fmt.Errorf("missing WAVE magic"))
	}

	var channels int
	var sampleRate int
	var bits uint16
	var dataStart int64 = -1
	var dataSize int64
	sawFmt := false

	pos := int64(12)
	for {
		chunkHdr := make([]byte, 8)
		n, err := f.ReadAt(chunkHdr, pos)
		if err == io.EOF && n < 8 {
			break
		}
		if err != nil && err != io.EOF {
			return nil, 0, newErr("open", KindIoError, err)
		}
		if n < 8 {
			break
		}
		id := string(chunkHdr[0:4])
		size := binary.LittleEndian.Uint32(chunkHdr[4:8])
		payloadOff := pos + 8

		switch id {
		case "fmt ":
			payload := make([]byte, fmtChunkPayload)
			if _, err := f.ReadAt(payload, payloadOff); err != nil {
				return nil, 0, newErr("open", KindIoError, err)
			}
			channels = int(binary.LittleEndian.Uint16(payload[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(payload[4:8]))
			bits = binary.LittleEndian.Uint16(payload[14:16])
			sawFmt = true
		case "data":
			dataStart = payloadOff
			dataSize = int64(size)
		}

		pos = payloadOff + int64(size)
		if size%2 == 1 {
			pos++ // RIFF chunks are word-aligned
		}
		if sawFmt && dataStart >= 0 {
			break
		}
	}

	if !sawFmt {
		return nil, 0, newErr("open", KindNotWave, fmt.Errorf("no fmt chunk found"))
	}
	if bits != bitsPerSample {
		return nil, 0, newErr("open", KindUnsupportedBitDepth, fmt.Errorf("bits per sample %d unsupported", bits))
	}
	if channels <= 0 || channels > MaxTracks {
		return nil, 0, newErr("open", KindUnsupportedChannelCount, fmt.Errorf("channel count %d out of range", channels))
	}
	if dataStart < 0 {
		return nil, 0, newErr("open", KindNotWave, fmt.Errorf("no data chunk found"))
	}

	info, err := f.Stat()
	if err != nil {
		return nil, 0, newErr("open", KindIoError, err)
	}
	fileLen := info.Size()
	endOfData := dataStart + dataSize
	if endOfData > fileLen {
		endOfData = fileLen
	}

	tf := &File{
		f:           f,
		channels:    channels,
		sampleRate:  sampleRate,
		startOfData: minimalHeaderSize, // corrected by normalize() below if dataStart isn't already 44
		endOfData:   endOfData,
		frameSize:   channels * bytesPerSample,
	}
	return tf, dataStart, nil
}

// normalize rewrites the file so a 44-byte minimal header precedes the
// data region, copying the existing payload in fixed-size runs and
// truncating the tail. Non-fmt/non-data chunks are discarded.
func (t *File) normalize(oldDataStart int64) error {
	dataSize := t.endOfData - oldDataStart
	if dataSize < 0 {
		dataSize = 0
	}

	if oldDataStart > minimalHeaderSize {
		if err := t.shiftDataBackward(oldDataStart, dataSize); err != nil {
			return err
		}
	} else if oldDataStart < minimalHeaderSize {
		if err := t.shiftDataForward(oldDataStart, dataSize); err != nil {
			return err
		}
	}

	hdr := buildHeader(t.channels, uint32(dataSize))
	if _, err := t.f.WriteAt(hdr, 0); err != nil {
		return newErr("open", KindIoError, err)
	}
	newEnd := minimalHeaderSize + dataSize
	if err := t.f.Truncate(newEnd); err != nil {
		return newErr("open", KindIoError, err)
	}

	t.startOfData = minimalHeaderSize
	t.endOfData = newEnd
	return nil
}

// shiftDataBackward moves the data payload toward the front of the file
// (oldStart > minimalHeaderSize) in fixed-size runs, front to back.
func (t *File) shiftDataBackward(oldStart, size int64) error {
	buf := make([]byte, copyRunBytes)
	var copied int64
	for copied < size {
		n := int64(copyRunBytes)
		if size-copied < n {
			n = size - copied
		}
		if _, err := t.f.ReadAt(buf[:n], oldStart+copied); err != nil && err != io.EOF {
			return newErr("open", KindIoError, err)
		}
		if _, err := t.f.WriteAt(buf[:n], minimalHeaderSize+copied); err != nil {
			return newErr("open", KindIoError, err)
		}
		copied += n
	}
	return nil
}

// shiftDataForward moves the data payload toward the back of the file
// (oldStart < minimalHeaderSize) in fixed-size runs, back to front so the
// forward-moving write never overwrites bytes still to be read.
func (t *File) shiftDataForward(oldStart, size int64) error {
	buf := make([]byte, copyRunBytes)
	remaining := size
	for remaining > 0 {
		n := int64(copyRunBytes)
		if remaining < n {
			n = remaining
		}
		srcOff := oldStart + remaining - n
		dstOff := minimalHeaderSize + remaining - n
		if _, err := t.f.ReadAt(buf[:n], srcOff); err != nil && err != io.EOF {
			return newErr("open", KindIoError, err)
		}
		if _, err := t.f.WriteAt(buf[:n], dstOff); err != nil {
			return newErr("open", KindIoError, err)
		}
		remaining -= n
	}
	return nil
}

// Channels returns the fixed channel count of this tape.
func (t *File) Channels() int { return t.channels }

// SampleRate returns the fixed sample rate of this tape.
func (t *File) SampleRate() int { return t.sampleRate }

// FrameSize returns the byte size of one frame (2 * channels).
func (t *File) FrameSize() int { return t.frameSize }

// StartOfData returns the byte offset the first frame is stored at.
func (t *File) StartOfData() int64 { return t.startOfData }

// EndOfData returns the current end-of-data byte offset (== file length).
func (t *File) EndOfData() int64 { return t.endOfData }

// LastFrame returns the tape's frame count: lastFrame*frameSize+44 ==
// endOfData.
func (t *File) LastFrame() int64 {
	frames := (t.endOfData - t.startOfData) / int64(t.frameSize)
	if frames < 0 {
		return 0
	}
	return frames
}

// SeekFrame positions the sequential read cursor at frame f.
func (t *File) SeekFrame(f int64) error {
	t.readPos = t.startOfData + f*int64(t.frameSize)
	return nil
}

// ReadPeriod reads up to one period (FramesPerPeriod frames) from the
// current sequential position into buf, advancing that position. It
// returns the number of bytes actually read; 0 signals end of stream.
func (t *File) ReadPeriod(buf []byte) (int, error) {
	n, err := t.f.ReadAt(buf, t.readPos)
	if err != nil && err != io.EOF {
		return n, newErr("read_period", KindIoError, err)
	}
	t.readPos += int64(n)
	return n, nil
}

// ReadPeriodAt is a positional read used by the overdub path; it does not
// disturb the sequential read cursor used by ReadPeriod.
func (t *File) ReadPeriodAt(buf []byte, byteOffset int64) (int, error) {
	n, err := t.f.ReadAt(buf, byteOffset)
	if err != nil && err != io.EOF {
		return n, newErr("read_period_at", KindIoError, err)
	}
	return n, nil
}

// WritePeriodAt performs a positional write of exactly len(buf) bytes; it
// does not alter the sequential read position used by ReadPeriod.
func (t *File) WritePeriodAt(buf []byte, byteOffset int64) error {
	if _, err := t.f.WriteAt(buf, byteOffset); err != nil {
		return newErr("write_period_at", KindIoError, err)
	}
	if end := byteOffset + int64(len(buf)); end > t.endOfData {
		t.endOfData = end
	}
	return nil
}

// ExtendBySilence appends periods whole periods of zero bytes at the
// current end of data.
func (t *File) ExtendBySilence(periods int) error {
	if periods <= 0 {
		return nil
	}
	zero := make([]byte, FramesPerPeriod*t.frameSize)
	for i := 0; i < periods; i++ {
		if _, err := t.f.WriteAt(zero, t.endOfData); err != nil {
			return newErr("extend", KindIoError, err)
		}
		t.endOfData += int64(len(zero))
	}
	return nil
}

// Close writes the final RIFF size field and the data chunk size field,
// and releases the file handle. After Close the File must not be used.
func (t *File) Close() error {
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(t.endOfData-8))
	if _, err := t.f.WriteAt(sizeBuf[:], 4); err != nil {
		t.f.Close()
		return newErr("close", KindIoError, err)
	}
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(t.endOfData-t.startOfData))
	if _, err := t.f.WriteAt(sizeBuf[:], minimalHeaderSize-4); err != nil {
		t.f.Close()
		return newErr("close", KindIoError, err)
	}
	if err := t.f.Close(); err != nil {
		return newErr("close", KindIoError, err)
	}
	return nil
}

// PeriodBytes returns the byte size of one full period for this tape.
func (t *File) PeriodBytes() int { return FramesPerPeriod * t.frameSize }
