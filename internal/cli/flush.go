package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Write out any buffered raw events",
		Run:   runFlush,
	}

	RootCmd.AddCommand(cmd)
}

func runFlush(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	if err := s.FlushAll(cmd.Context()); err != nil {
		exitErr("flush", err)
	}
}
