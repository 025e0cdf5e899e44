package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "provisioner",
	Short: "Declarative provisioning engine for a Claria AWS account",
	Long: `provisioner reconciles one AWS account against a fixed manifest of
resources — the managed principal, its scoped policy, the legal precondition,
a hardened data bucket, an audit trail, and the Bedrock model agreements the
system depends on. It plans, applies, and tears down that manifest, and
bootstraps the scoped principal from root or admin credentials.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.claria-provisioner.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug-level structured logging")
	rootCmd.PersistentFlags().String("profile", "", "AWS profile to resolve credentials from")
	rootCmd.PersistentFlags().String("region", "", "AWS region (overrides the profile's default region)")
	rootCmd.PersistentFlags().String("system-name", "claria", "system name used to derive resource names and the local state path")

	// TODO: add error return here
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("aws.profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("aws.region", rootCmd.PersistentFlags().Lookup("region"))
	viper.BindPFlag("system_name", rootCmd.PersistentFlags().Lookup("system-name"))

	viper.SetDefault("system_name", "claria")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".claria-provisioner")
	}

	viper.SetEnvPrefix("claria_provisioner")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("debug") {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

// initLogging configures the global zerolog logger's level and console
// writer once flags and config are resolved.
func initLogging() {
	level := zerolog.InfoLevel
	if viper.GetBool("debug") {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}
