package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claria-ai/provisioner/internal/provisioner"
	"github.com/claria-ai/provisioner/internal/wiring"
)

var destroyYes bool

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Tear down every resource the engine currently owns",
	Long: `destroy calls destroy on every resource present in state that the
manifest still declares, in reverse manifest order, flushing state after each
one, then clears state entirely; state records the manifest no longer
declares are dropped without an AWS call. It does not touch resources the
engine never created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !destroyYes {
			return fmt.Errorf("refusing to destroy without --yes")
		}

		ctx := cmd.Context()
		engine, err := newEngineContext(ctx)
		if err != nil {
			return err
		}

		syncers, err := wiring.BuildSyncers(engine.manifest, engine.clients)
		if err != nil {
			return err
		}

		state := engine.state
		if err := provisioner.DestroyAll(ctx, syncers, &state, engine.persistence); err != nil {
			return fmt.Errorf("destroy failed: %w", err)
		}
		fmt.Println("destroy complete")
		return nil
	},
}

func init() {
	destroyCmd.Flags().BoolVar(&destroyYes, "yes", false, "confirm destructive teardown")
	rootCmd.AddCommand(destroyCmd)
}
