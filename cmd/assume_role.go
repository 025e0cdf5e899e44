package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/claria-ai/provisioner/internal/awsx"
	"github.com/claria-ai/provisioner/internal/bootstrap"
)

var assumeRoleSessionName string

var assumeRoleCmd = &cobra.Command{
	Use:   "assume-role [role-arn]",
	Short: "Exchange the caller's credentials for a short-lived assumed-role session",
	Long: `assume-role calls STS to exchange the current credentials for a
short-lived session against the given role ARN. The session token is
printed once and is never persisted by this tool.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clients, err := awsx.New(ctx, viper.GetString("aws.profile"), viper.GetString("aws.region"))
		if err != nil {
			return fmt.Errorf("build aws clients: %w", err)
		}

		result, err := bootstrap.AssumeRole(ctx, clients, args[0], assumeRoleSessionName)
		if err != nil {
			return fmt.Errorf("assume role: %w", err)
		}

		fmt.Printf("access key id:     %s\n", result.AccessKeyID)
		fmt.Printf("secret access key: %s\n", result.SecretAccessKey)
		fmt.Printf("session token:     %s\n", result.SessionToken)
		fmt.Printf("expires:           %s\n", result.Expiration.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Printf("account id:        %s\n", result.AccountID)
		return nil
	},
}

func init() {
	assumeRoleCmd.Flags().StringVar(&assumeRoleSessionName, "session-name", "claria-provisioner", "role session name")
	rootCmd.AddCommand(assumeRoleCmd)
}
