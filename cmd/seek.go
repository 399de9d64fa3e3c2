package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var seekRelative bool

var seekCmd = &cobra.Command{
	Use:   "seek [frame]",
	Short: "Move the transport head to an absolute frame, or by a relative offset with --relative",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid frame offset %q: %w", args[0], err)
		}

		eng, sessPath, err := openSession()
		if err != nil {
			return err
		}
		defer eng.Close()

		if seekRelative {
			err = eng.SeekRelative(f)
		} else {
			err = eng.SeekAbsolute(f)
		}
		if err != nil {
			return err
		}

		fmt.Printf("head=%d\n", eng.GetStatus().HeadFrame)
		return saveSession(eng, sessPath)
	},
}

func init() {
	seekCmd.Flags().BoolVar(&seekRelative, "relative", false, "treat the argument as an offset from the current head")
}
