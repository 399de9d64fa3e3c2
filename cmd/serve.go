package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jamtransport/jamtransport/internal/httpctl"
	"github.com/jamtransport/jamtransport/internal/transport"

	"github.com/spf13/cobra"
)

var serveHTTPAddr string

// periodInterval approximates the pacing a blocking hardware write would
// otherwise provide for the Loop device (128 frames @ 44100 Hz).
const periodInterval = 128 * time.Second / 44100

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the transport loop, taking commands from stdin (and optionally HTTP) until interrupted",
	Long: `serve runs the period loop continuously: it drains queued commands
between every period, executes one period when PLAY, and otherwise idles.
Commands arrive as single-line text on stdin, or, with --http, as HTTP
requests handled by internal/httpctl.

stdin command grammar (one per line):
  start
  stop
  record-enable
  arm a|b <track>
  seek <frame> | seek-rel <delta>
  monitor <track> <attenA> <attenB>
  mute <track> | mute-all true|false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, sessPath, err := openSession()
		if err != nil {
			return err
		}
		defer func() {
			if err := saveSession(eng, sessPath); err != nil {
				slog.Error("failed to save session on exit", "error", err)
			}
			eng.Close()
		}()

		lines := make(chan string, 16)
		go readStdinLines(lines)

		if serveHTTPAddr != "" {
			httpSrv := httpctl.New(eng, serveHTTPAddr)
			go func() {
				if err := httpSrv.Start(); err != nil {
					slog.Error("httpctl server exited", "error", err)
				}
			}()
			slog.Info("httpctl listening", "addr", serveHTTPAddr)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		ticker := time.NewTicker(periodInterval)
		defer ticker.Stop()

		for {
			select {
			case <-sigCh:
				slog.Info("serve: received interrupt, stopping")
				eng.Stop()
				return nil
			case line, ok := <-lines:
				if !ok {
					lines = nil
					continue
				}
				applyStdinCommand(eng, line)
			case <-ticker.C:
				eng.DrainCommands()
				if eng.GetStatus().State == transport.StatePlay {
					if _, err := eng.RunPeriod(); err != nil {
						slog.Error("serve: fatal transport error", "error", err)
						return err
					}
				}
			}
		}
	},
}

func readStdinLines(out chan<- string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			out <- line
		}
	}
	close(out)
}

func applyStdinCommand(eng *transport.Engine, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	var err error
	switch fields[0] {
	case "start":
		err = eng.Start()
	case "stop":
		err = eng.Stop()
	case "record-enable":
		err = eng.ToggleRecordEnable()
	case "arm":
		err = applyArm(eng, fields)
	case "seek":
		err = applySeek(eng, fields, false)
	case "seek-rel":
		err = applySeek(eng, fields, true)
	case "monitor":
		err = applyMonitor(eng, fields)
	case "mute":
		err = applyMute(eng, fields)
	case "mute-all":
		err = applyMuteAll(eng, fields)
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}
	if err != nil {
		slog.Warn("serve: command failed", "line", line, "error", err)
	}
}

func applyArm(eng *transport.Engine, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("usage: arm a|b <track>")
	}
	track, err := strconv.Atoi(fields[2])
	if err != nil {
		return err
	}
	if strings.EqualFold(fields[1], "a") {
		return eng.ArmA(track)
	}
	return eng.ArmB(track)
}

func applySeek(eng *transport.Engine, fields []string, relative bool) error {
	if len(fields) != 2 {
		return fmt.Errorf("usage: seek[-rel] <frame>")
	}
	v, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return err
	}
	if relative {
		return eng.SeekRelative(v)
	}
	return eng.SeekAbsolute(v)
}

func applyMonitor(eng *transport.Engine, fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf("usage: monitor <track> <attenA> <attenB>")
	}
	track, err := strconv.Atoi(fields[1])
	if err != nil {
		return err
	}
	a, err := strconv.Atoi(fields[2])
	if err != nil {
		return err
	}
	b, err := strconv.Atoi(fields[3])
	if err != nil {
		return err
	}
	return eng.SetMonitor(track, a, b)
}

func applyMute(eng *transport.Engine, fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf("usage: mute <track>")
	}
	track, err := strconv.Atoi(fields[1])
	if err != nil {
		return err
	}
	return eng.Mute(track)
}

func applyMuteAll(eng *transport.Engine, fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf("usage: mute-all true|false")
	}
	eng.MuteAll(fields[1] == "true")
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "also serve HTTP control on this address, e.g. :8080")
}
