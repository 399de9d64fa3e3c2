package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var monitorAttenA, monitorAttenB int

var monitorCmd = &cobra.Command{
	Use:   "monitor [track]",
	Short: "Set a track's monitor attenuation on bus A and bus B",
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

		if err := eng.SetMonitor(track, monitorAttenA, monitorAttenB); err != nil {
			return err
		}
		fmt.Printf("track %d: attenA=%d attenB=%d\n", track, monitorAttenA, monitorAttenB)
		return saveSession(eng, sessPath)
	},
}

var muteCmd = &cobra.Command{
	Use:   "mute [track]",
	Short: "Toggle mute on a track, or mute/unmute every track with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, sessPath, err := openSession()
		if err != nil {
			return err
		}
		defer eng.Close()

		all, _ := cmd.Flags().GetBool("all")
		switch {
		case all:
			value, _ := cmd.Flags().GetBool("value")
			eng.MuteAll(value)
			fmt.Printf("all tracks muted=%v\n", value)
		case len(args) == 1:
			track, err := parseTrackArg(args[0])
			if err != nil {
				return err
			}
			if err := eng.Mute(track); err != nil {
				return err
			}
			fmt.Printf("track %d muted=%v\n", track, eng.GetStatus().Tracks[track].Muted)
		default:
			return fmt.Errorf("mute requires a track index or --all")
		}
		return saveSession(eng, sessPath)
	},
}

func init() {
	monitorCmd.Flags().IntVar(&monitorAttenA, "a", 0, "bus A attenuation, 0-16")
	monitorCmd.Flags().IntVar(&monitorAttenB, "b", 0, "bus B attenuation, 0-16")
	muteCmd.Flags().Bool("all", false, "apply to every track")
	muteCmd.Flags().Bool("value", true, "mute state to apply with --all")
}
