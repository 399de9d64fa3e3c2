package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var armBus string

var armCmd = &cobra.Command{
	Use:   "arm [track]",
	Short: "Arm (or disarm) a track for capture on bus A or B",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := parseTrackArg(args[0])
		if err != nil {
			return err
		}

		eng, sessPath, err := openSession()
		if err != nil {
			return err
		}
		defer eng.Close()

		switch armBus {
		case "a", "A":
			err = eng.ArmA(track)
		case "b", "B":
			err = eng.ArmB(track)
		default:
			return fmt.Errorf("--bus must be a or b, got %q", armBus)
		}
		if err != nil {
			return err
		}

		st := eng.GetStatus()
		fmt.Printf("armA=%d armB=%d\n", st.ArmA, st.ArmB)
		return saveSession(eng, sessPath)
	},
}

var toggleRecordCmd = &cobra.Command{
	Use:   "record-enable",
	Short: "Toggle record_enabled",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, sessPath, err := openSession()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.ToggleRecordEnable(); err != nil {
			return err
		}
		fmt.Printf("record_enabled=%v\n", eng.GetStatus().RecordEnabled)
		return saveSession(eng, sessPath)
	},
}

func init() {
	armCmd.Flags().StringVar(&armBus, "bus", "a", "capture bus to arm: a or b")
	rootCmd.AddCommand(toggleRecordCmd)
}
