package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild the index and graph from the memory journal",
		Long:  "Replay the append-only memory journal and rewrite the derived search index and relation graph. Run this to catch up after writes in lightweight mode, or to recover a lost derived file.",
		Run:   runReconcile,
	}

	RootCmd.AddCommand(cmd)
}

func runReconcile(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	if err := s.Reconcile(cmd.Context()); err != nil {
		exitErr("reconcile", err)
	}
}
