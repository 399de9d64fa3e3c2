package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jamtransport/jamtransport/internal/device"
	"github.com/jamtransport/jamtransport/internal/sessionconfig"
	"github.com/jamtransport/jamtransport/internal/tape"
	"github.com/jamtransport/jamtransport/internal/transport"
)

// openSession opens the project tape named by --project, restores its
// sessionconfig sibling file, and returns a ready Engine plus the session
// file path callers should Save back to when they're done.
func openSession() (*transport.Engine, string, error) {
	if projectFlag == "" {
		return nil, "", fmt.Errorf("no project tape given: pass --project or set project_directory")
	}
	path := projectFlag
	if !strings.HasSuffix(path, ".wav") {
		path = filepath.Join(path, "project.wav")
	}

	recordOffset := tcfg.RecordOffsetFrames(tape.SampleRateHz)

	// tcfg.DefaultChannels is only a creation hint: an existing tape's
	// channel count, reported back in res.Channels, always wins.
	eng, res, err := transport.Open(path, tcfg.DefaultChannels, recordOffset, loopDeviceOpener)
	if err != nil {
		return nil, "", fmt.Errorf("open project tape: %w", err)
	}
	if res.Created {
		fmt.Printf("created new project tape at %s (%d channels, %d Hz)\n", path, res.Channels, res.SampleRate)
	} else if res.Normalized {
		fmt.Printf("normalized non-minimal WAV header on %s\n", path)
	}

	sessPath := sessionPathFor(path)
	sess, err := sessionconfig.Load(sessPath, res.Channels, recordOffset)
	if err != nil {
		eng.Close()
		return nil, "", fmt.Errorf("load session: %w", err)
	}
	eng.LoadSession(sess)

	return eng, sessPath, nil
}

func saveSession(eng *transport.Engine, sessPath string) error {
	return sessionconfig.Save(sessPath, eng.SessionSnapshot())
}

func sessionPathFor(tapePath string) string {
	ext := filepath.Ext(tapePath)
	return strings.TrimSuffix(tapePath, ext) + ".cfg"
}

// loopDeviceOpener backs every command with a software loopback device.
// No cgo/hardware PCM binding ships in this tree (see DESIGN.md); Loop is
// what makes "jamtransport serve" runnable headlessly and under test.
func loopDeviceOpener(cfg device.Config) (device.Device, error) {
	return device.NewLoop(cfg.Direction, cfg.Channels), nil
}
