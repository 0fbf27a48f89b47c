package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "begin",
		Short: "Start a session and print its id",
		Run:   runSessionBegin,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "end [session-id]",
		Short: "End a session: summarize its events and clear the scratchpad",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionEnd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a saved session summary",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionShow,
	})

	RootCmd.AddCommand(cmd)
}

func runSessionBegin(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	id := uuid.New().String()
	if err := s.UpdateScratchpad(cmd.Context(), store.ScratchpadUpdate{SessionID: &id}); err != nil {
		exitErr("begin session", err)
	}

	fmt.Println(id)
}

func runSessionEnd(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	summary, err := s.EndSession(cmd.Context(), args[0])
	if err != nil {
		exitErr("end session", err)
	}

	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))
}

func runSessionShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	summary, err := s.GetSessionSummary(cmd.Context(), args[0])
	if err != nil {
		exitErr("session summary", err)
	}

	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))
}
