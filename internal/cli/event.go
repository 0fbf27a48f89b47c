package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "event [json]",
		Short: "Append a raw event",
		Long:  "Append one raw event record, given as a JSON object. The event is filtered for sensitive data before it is persisted.",
		Args:  cobra.ExactArgs(1),
		Run:   runEvent,
	}

	cmd.Flags().StringP("type", "t", "tool_use", "Event type")

	RootCmd.AddCommand(cmd)
}

func runEvent(cmd *cobra.Command, args []string) {
	eventType, _ := cmd.Flags().GetString("type")

	var event map[string]any
	if err := json.Unmarshal([]byte(args[0]), &event); err != nil {
		exitErr("parse event", err)
	}
	if _, ok := event["event_type"]; !ok {
		event["event_type"] = eventType
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	id, err := s.AppendRawEvent(cmd.Context(), event)
	if err != nil {
		exitErr("append event", err)
	}
	// The process exits right after, so drain the coalescer now.
	if err := s.FlushAll(cmd.Context()); err != nil {
		exitErr("flush", err)
	}

	fmt.Println(id)
}
