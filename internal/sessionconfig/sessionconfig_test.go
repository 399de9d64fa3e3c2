package sessionconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.cfg")
	sess, err := Load(path, 4, 1234)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sess.Tracks) != 4 {
		t.Fatalf("len(Tracks) = %d, want 4", len(sess.Tracks))
	}
	if sess.RecordOffset != 1234 {
		t.Fatalf("RecordOffset = %d, want 1234", sess.RecordOffset)
	}
	if sess.HeadPosition != 0 {
		t.Fatalf("HeadPosition = %d, want 0", sess.HeadPosition)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cfg")

	sess := Default(3, 512)
	sess.Tracks[0].AttenA = 4
	sess.Tracks[0].AttenB = 8
	sess.Tracks[1].Muted = false
	sess.HeadPosition = 88200
	sess.RecordOffset = 512

	if err := Save(path, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path, 3, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.HeadPosition != sess.HeadPosition {
		t.Fatalf("HeadPosition = %d, want %d", got.HeadPosition, sess.HeadPosition)
	}
	if got.RecordOffset != sess.RecordOffset {
		t.Fatalf("RecordOffset = %d, want %d", got.RecordOffset, sess.RecordOffset)
	}
	if got.Tracks[0].AttenA != 4 || got.Tracks[0].AttenB != 8 {
		t.Fatalf("Tracks[0] = %+v, want AttenA=4 AttenB=8", got.Tracks[0])
	}
	if got.Tracks[1].Muted {
		t.Fatal("Tracks[1].Muted = true, want false after round trip")
	}
}

func TestLoadIgnoresOutOfRangeTrackKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cfg")
	contents := "99L=4\nPos=10\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sess, err := Load(path, 2, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.HeadPosition != 10 {
		t.Fatalf("HeadPosition = %d, want 10", sess.HeadPosition)
	}
	if len(sess.Tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(sess.Tracks))
	}
}
