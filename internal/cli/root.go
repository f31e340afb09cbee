// Package cli implements the codescope command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	repoPath string
	cfgFile  string
	verbose  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codescope",
	Short: "Codescope - call graphs for code changes",
	Long: `Codescope builds a call graph around the functions touched by a diff.
It parses the changed TypeScript/JavaScript files, finds the functions that
intersect the changed lines, and connects them to their callers and callees.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", ".", "repository path")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .codescope/config.yaml in the worktree root)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("repo", rootCmd.PersistentFlags().Lookup("repo"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}
