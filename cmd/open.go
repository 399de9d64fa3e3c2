package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Create or open the project tape and report its state",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, sessPath, err := openSession()
		if err != nil {
			return err
		}
		defer eng.Close()

		st := eng.GetStatus()
		fmt.Printf("state=%s tracks=%d last_frame=%d sample_rate=%d\n",
			st.State, len(st.Tracks), st.LastFrame, st.SampleRate)
		return saveSession(eng, sessPath)
	},
}
