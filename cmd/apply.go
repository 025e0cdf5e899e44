package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claria-ai/provisioner/internal/provisioner"
	"github.com/claria-ai/provisioner/internal/wiring"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile the AWS account against the manifest",
	Long: `apply computes a plan the same way "plan" does, then executes it:
creates run first in manifest order, then modifies, then deletes in reverse
order with orphans first. State is flushed to disk and to the managed
bucket after every single mutation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := newEngineContext(ctx)
		if err != nil {
			return err
		}

		syncers, err := wiring.BuildSyncers(engine.manifest, engine.clients)
		if err != nil {
			return err
		}

		entries, err := provisioner.Plan(ctx, syncers, engine.state)
		if err != nil {
			return err
		}
		printPlan(entries)

		if !planHasChanges(entries) {
			fmt.Println("nothing to do")
			return nil
		}

		state := engine.state
		if err := provisioner.Execute(ctx, entries, syncers, &state, engine.persistence); err != nil {
			return fmt.Errorf("apply failed: %w", err)
		}
		fmt.Println("apply complete")
		return nil
	},
}

func planHasChanges(entries []provisioner.PlanEntry) bool {
	for _, e := range entries {
		switch e.Action {
		case provisioner.ActionCreate, provisioner.ActionModify, provisioner.ActionDelete, provisioner.ActionPreconditionFailed:
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(applyCmd)
}
