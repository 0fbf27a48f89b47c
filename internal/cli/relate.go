package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "relate [from] [to]",
		Short: "Create a directed relation between two entities",
		Args:  cobra.ExactArgs(2),
		Run:   runRelate,
	}

	cmd.Flags().StringP("rel", "r", "relates_to", "Relation type")

	RootCmd.AddCommand(cmd)
}

func runRelate(cmd *cobra.Command, args []string) {
	rel, _ := cmd.Flags().GetString("rel")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	if _, err := s.CreateRelation(cmd.Context(), args[0], args[1], rel); err != nil {
		exitErr("create relation", err)
	}
}
