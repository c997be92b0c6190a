// Package cli implements the envctl CLI commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Import backup stores to register them via init()
	_ "github.com/envctl/envctl/pkg/backup/store/azurerm"
	_ "github.com/envctl/envctl/pkg/backup/store/gcs"
	_ "github.com/envctl/envctl/pkg/backup/store/local"
	_ "github.com/envctl/envctl/pkg/backup/store/s3"
)

var (
	cfgFile    string
	projectDir string
	policyPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "envctl",
	Short: "Validate and monitor deployment environment configuration",
	Long: `envctl manages the dotenv files a deployment reads.

It merges the managed .env files by priority, validates the resolved
configuration against phase-dependent rules, watches for drift between
configuration snapshots, and backs the files up locally or to a cloud
store.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.envctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", ".", "Directory holding the managed .env files")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Policy file overriding the default validation rules")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Bind to viper
	_ = viper.BindPFlag("project_dir", rootCmd.PersistentFlags().Lookup("project-dir"))
	_ = viper.BindPFlag("policy", rootCmd.PersistentFlags().Lookup("policy"))
	viper.SetEnvPrefix("ENVCTL")
	viper.AutomaticEnv()

	// Add subcommands
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory and the working directory
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".envctl")
		viper.SetConfigType("yaml")
	}

	// Read config file if it exists
	_ = viper.ReadInConfig()
}
