package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "entity [name]",
		Short: "Create an entity",
		Long:  "Create a named, typed entity. Re-creating the same type+name yields the same id; use observe to append facts.",
		Args:  cobra.ExactArgs(1),
		Run:   runEntity,
	}

	cmd.Flags().StringP("type", "t", "note", "Entity type")
	cmd.Flags().StringArrayP("obs", "o", nil, "Observation (repeatable)")
	cmd.Flags().String("importance", "", "Importance: critical, high, normal, low")
	cmd.Flags().StringArray("tag", nil, "Tag (repeatable)")

	RootCmd.AddCommand(cmd)
}

func runEntity(cmd *cobra.Command, args []string) {
	entityType, _ := cmd.Flags().GetString("type")
	obs, _ := cmd.Flags().GetStringArray("obs")
	importance, _ := cmd.Flags().GetString("importance")
	tags, _ := cmd.Flags().GetStringArray("tag")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	id, err := s.CreateEntity(cmd.Context(), store.CreateEntityParams{
		Name:         args[0],
		EntityType:   entityType,
		Observations: obs,
		Metadata: model.Metadata{
			Importance: importance,
			Tags:       tags,
		},
	})
	if err != nil {
		exitErr("create entity", err)
	}

	fmt.Println(id)
}
