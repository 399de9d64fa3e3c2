package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the transport's current state",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openSession()
		if err != nil {
			return err
		}
		defer eng.Close()

		st := eng.GetStatus()
		min, sec, ms := eng.HeadMinSecMillis()
		fmt.Printf("state=%s record_enabled=%v recording=%v head=%d (%02d:%02d.%03d) last_frame=%d\n",
			st.State, st.RecordEnabled, st.Recording, st.HeadFrame, min, sec, ms, st.LastFrame)
		fmt.Printf("armA=%d armB=%d underruns=%d overruns=%d\n", st.ArmA, st.ArmB, st.Underruns, st.Overruns)
		for i, tr := range st.Tracks {
			fmt.Printf("  track %2d: muted=%-5v recording=%-5v attenA=%2d attenB=%2d\n",
				i, tr.Muted, tr.Recording, tr.AttenA, tr.AttenB)
		}
		return nil
	},
}
