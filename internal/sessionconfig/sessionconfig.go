// Package sessionconfig loads and saves the plain key=value text file that
// travels alongside a project tape: per-track monitor settings, head
// position, and record offset.
//
// The format is not YAML/TOML/INI-with-sections, so this is a small
// hand-rolled scanner in the teacher's style of writing its own parser for
// a domain-specific text format (compare internal/config's
// BuildMixFilter/cleanFileName) rather than reaching for viper here.
package sessionconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jamtransport/jamtransport/internal/track"
)

// Session is the parsed contents of a project's config file.
type Session struct {
	Tracks       []track.Track
	HeadPosition int64
	RecordOffset int64
}

// Default returns a Session with N tracks at spec defaults and the given
// record offset, for projects that have no config file yet.
func Default(numTracks int, recordOffset int64) Session {
	tracks := make([]track.Track, numTracks)
	for i := range tracks {
		tracks[i] = track.New()
	}
	return Session{Tracks: tracks, HeadPosition: 0, RecordOffset: recordOffset}
}

// Load reads a session config file. numTracks sizes the returned Track
// slice; any NN key outside [0,numTracks) is ignored. If path does not
// exist, Load returns Default(numTracks, defaultRecordOffset) with no
// error.
func Load(path string, numTracks int, defaultRecordOffset int64) (Session, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(numTracks, defaultRecordOffset), nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("sessionconfig: open %s: %w", path, err)
	}
	defer f.Close()

	sess := Default(numTracks, defaultRecordOffset)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		applyKey(&sess, key, value, numTracks)
	}
	if err := scanner.Err(); err != nil {
		return Session{}, fmt.Errorf("sessionconfig: read %s: %w", path, err)
	}
	return sess, nil
}

func applyKey(sess *Session, key, value string, numTracks int) {
	switch {
	case key == "Pos":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			sess.HeadPosition = v
		}
	case key == "Rof":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			sess.RecordOffset = v
		}
	case len(key) == 3 && (key[2] == 'L' || key[2] == 'R' || key[2] == 'M'):
		idx, err := strconv.Atoi(key[0:2])
		if err != nil || idx < 0 || idx >= numTracks {
			return
		}
		switch key[2] {
		case 'L':
			if v, err := strconv.Atoi(value); err == nil {
				sess.Tracks[idx].AttenA = v
			}
		case 'R':
			if v, err := strconv.Atoi(value); err == nil {
				sess.Tracks[idx].AttenB = v
			}
		case 'M':
			sess.Tracks[idx].Muted = value == "1"
		}
	}
	// Unknown keys are ignored, per spec.
}

// Save writes sess to path: all tracks in index order, then Pos and Rof.
func Save(path string, sess Session) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sessionconfig: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, t := range sess.Tracks {
		fmt.Fprintf(w, "%02dL=%d\n", i, t.AttenA)
		fmt.Fprintf(w, "%02dR=%d\n", i, t.AttenB)
		mute := 0
		if t.Muted {
			mute = 1
		}
		fmt.Fprintf(w, "%02dM=%d\n", i, mute)
	}
	fmt.Fprintf(w, "Pos=%d\n", sess.HeadPosition)
	fmt.Fprintf(w, "Rof=%d\n", sess.RecordOffset)
	return w.Flush()
}
