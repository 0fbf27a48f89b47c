package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "observe [entity] [text...]",
		Short: "Append an observation to an entity",
		Args:  cobra.MinimumNArgs(2),
		Run:   runObserve,
	}

	RootCmd.AddCommand(cmd)
}

func runObserve(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	if _, err := s.AddObservation(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
		exitErr("add observation", err)
	}
}
