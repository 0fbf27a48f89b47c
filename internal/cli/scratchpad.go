package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "scratchpad",
		Short: "Show or update the scratchpad",
		Run:   runScratchpad,
	}

	cmd.Flags().String("prompt", "", "Record the last prompt")

	RootCmd.AddCommand(cmd)
}

func runScratchpad(cmd *cobra.Command, args []string) {
	prompt, _ := cmd.Flags().GetString("prompt")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	if prompt != "" {
		if err := s.UpdateScratchpad(cmd.Context(), store.ScratchpadUpdate{LastPrompt: &prompt}); err != nil {
			exitErr("update scratchpad", err)
		}
	}

	b, _ := json.MarshalIndent(s.GetScratchpad(cmd.Context()), "", "  ")
	fmt.Println(string(b))
}
