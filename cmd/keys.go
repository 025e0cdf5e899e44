package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/claria-ai/provisioner/internal/awsx"
	"github.com/claria-ai/provisioner/internal/bootstrap"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the scoped principal's access keys",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scoped principal's access keys with last-used metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clients, err := awsx.New(ctx, viper.GetString("aws.profile"), viper.GetString("aws.region"))
		if err != nil {
			return fmt.Errorf("build aws clients: %w", err)
		}
		keys, err := bootstrap.ListUserAccessKeys(ctx, clients)
		if err != nil {
			return err
		}
		for _, k := range keys {
			lastUsed := "never"
			if k.LastUsed != nil {
				lastUsed = k.LastUsed.Format("2006-01-02")
			}
			fmt.Printf("%s  %-8s created %s  last used %s\n", k.AccessKeyID, k.Status, k.CreateDate.Format("2006-01-02"), lastUsed)
		}
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete [access-key-id]",
	Short: "Delete one of the scoped principal's access keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clients, err := awsx.New(ctx, viper.GetString("aws.profile"), viper.GetString("aws.region"))
		if err != nil {
			return fmt.Errorf("build aws clients: %w", err)
		}
		if err := bootstrap.DeleteUserAccessKey(ctx, clients, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted access key %s\n", args[0])
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysListCmd, keysDeleteCmd)
	rootCmd.AddCommand(keysCmd)
}
