package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claria-ai/provisioner/internal/provisioner"
	"github.com/claria-ai/provisioner/internal/wiring"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what apply would change without changing anything",
	Long: `plan loads the current provisioner state, reads the live AWS
account, and prints one line per resource: whether it is in sync, would be
created or modified, or is orphaned and would be deleted.`,
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
		return nil
	},
}

func printPlan(entries []provisioner.PlanEntry) {
	for _, e := range entries {
		fmt.Printf("%-20s %-10s %-16s %s\n", e.Spec.Addr().String(), e.Action, e.Cause, e.Spec.Label)
		for _, d := range e.Drift {
			fmt.Printf("    %s: %v -> %v\n", d.Label, d.Actual, d.Expected)
		}
	}
}

func init() {
	rootCmd.AddCommand(planCmd)
}
