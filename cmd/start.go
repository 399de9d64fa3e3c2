package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// start and stop are one-shot smoke-test commands: they open (or close)
// devices, exercise the arm/record-enable error paths, and print the
// result of a single state transition, but the process exits before any
// period ever runs. sessionconfig has no PLAY/STOP field, so nothing about
// this transition survives past eng.Close() — the actual period loop only
// runs inside "serve". Kept for scripting device-open failures and status
// checks without starting a long-running process.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Open devices and report a PLAY transition (does not run the period loop)",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, sessPath, err := openSession()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.Start(); err != nil {
			return err
		}
		fmt.Println("transport started")
		return saveSession(eng, sessPath)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Transition the transport from PLAY to STOP",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, sessPath, err := openSession()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.Stop(); err != nil {
			return err
		}
		fmt.Println("transport stopped")
		return saveSession(eng, sessPath)
	},
}
