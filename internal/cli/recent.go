package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recent raw events",
		Run:   runRecent,
	}

	cmd.Flags().IntP("limit", "l", 50, "Max events")

	RootCmd.AddCommand(cmd)
}

func runRecent(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	events, err := s.GetRecentEvents(cmd.Context(), limit)
	if err != nil {
		exitErr("recent events", err)
	}

	if len(events) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(events, "", "  ")
	fmt.Println(string(b))
}
