package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the provisioner's effective configuration",
	Long:  `config prints the resolved AWS profile, region, and system name after merging flags, environment, and the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("config file:  %s\n", viper.ConfigFileUsed())
		fmt.Printf("aws.profile:  %s\n", viper.GetString("aws.profile"))
		fmt.Printf("aws.region:   %s\n", viper.GetString("aws.region"))
		fmt.Printf("system_name:  %s\n", viper.GetString("system_name"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
