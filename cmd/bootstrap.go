package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/claria-ai/provisioner/internal/awsx"
	"github.com/claria-ai/provisioner/internal/bootstrap"
	"github.com/claria-ai/provisioner/internal/provisioner"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Assess the caller's credential class and stand up the scoped principal",
	Long: `bootstrap first assesses whether the caller is Root, an IAM admin, the
already-scoped principal, or insufficiently privileged. For Root or IAM
admin callers it creates the scoped policy and user, attaches the policy,
mints an access key, validates it, and — for Root only — deletes the
source key. The minted credentials are printed once and never persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		profile := viper.GetString("aws.profile")
		region := viper.GetString("aws.region")
		systemName := viper.GetString("system_name")

		clients, err := awsx.New(ctx, profile, region)
		if err != nil {
			return fmt.Errorf("build aws clients: %w", err)
		}

		assessment, err := bootstrap.AssessCredentials(ctx, clients)
		if err != nil {
			return fmt.Errorf("assess credentials: %w", err)
		}
		fmt.Printf("credential class: %s\n", assessment.Class)
		if assessment.Class == bootstrap.ClassInsufficient {
			fmt.Println(assessment.Detail)
			return nil
		}
		if assessment.Class == bootstrap.ClassScopedClaria {
			fmt.Println("already running as the scoped principal; nothing to bootstrap")
			return nil
		}

		manifest := provisioner.BuildManifest(assessment.AccountID, systemName, clients.Config.Region)
		requiredActions := provisioner.UnionIAMActions(manifest)
		bucketArn := ""
		for _, spec := range manifest.Specs {
			if spec.TypeTag == "s3_bucket" {
				bucketArn = "arn:aws:s3:::" + spec.LogicalName
				break
			}
		}

		report, err := bootstrap.BootstrapAccount(ctx, clients, assessment, requiredActions, bucketArn)
		printBootstrapReport(report)
		if err != nil {
			return fmt.Errorf("bootstrap failed: %w", err)
		}

		fmt.Println()
		fmt.Println("new credentials (store these now, they will not be shown again):")
		fmt.Printf("  access key id:     %s\n", report.NewCredentials.AccessKeyID)
		fmt.Printf("  secret access key: %s\n", report.NewCredentials.SecretAccessKey)
		return nil
	},
}

func printBootstrapReport(report *bootstrap.BootstrapReport) {
	if report == nil {
		return
	}
	for _, step := range report.Steps {
		if step.Detail != "" {
			fmt.Printf("  %-24s %-10s %s\n", step.Name, step.Status, step.Detail)
		} else {
			fmt.Printf("  %-24s %-10s\n", step.Name, step.Status)
		}
	}
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}
