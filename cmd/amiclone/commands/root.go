package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "amiclone",
	Short: "AMI cross-region cloning",
	Long:  `Clones an AMI from a source region into multiple destination regions, replicating its tags and launch permissions.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("source-region", "", "Region the source AMI lives in")
	rootCmd.PersistentFlags().StringSlice("destination-regions", nil, "Regions to clone the AMI into")
	rootCmd.PersistentFlags().Int("progress-check-interval", 30, "Seconds between copy progress checks")
	rootCmd.PersistentFlags().Int("retry-attempts", 3, "EC2 call attempts before giving up")
	rootCmd.PersistentFlags().Int("retry-delay", 2, "Seconds between EC2 call retries")
	rootCmd.PersistentFlags().String("sqlite-path", ".artifacts/amiclone.db", "SQLite database path")
	rootCmd.PersistentFlags().String("fsm-db-path", ".artifacts/fsm", "FSM BoltDB directory")

	viper.BindPFlag("source-region", rootCmd.PersistentFlags().Lookup("source-region"))
	viper.BindPFlag("destination-regions", rootCmd.PersistentFlags().Lookup("destination-regions"))
	viper.BindPFlag("progress-check-interval", rootCmd.PersistentFlags().Lookup("progress-check-interval"))
	viper.BindPFlag("retry-attempts", rootCmd.PersistentFlags().Lookup("retry-attempts"))
	viper.BindPFlag("retry-delay", rootCmd.PersistentFlags().Lookup("retry-delay"))
	viper.BindPFlag("sqlite-path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	viper.BindPFlag("fsm-db-path", rootCmd.PersistentFlags().Lookup("fsm-db-path"))
}
