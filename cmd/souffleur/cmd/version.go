package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msto63/souffleur/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
		if verbose {
			fmt.Printf("  Listener:   %s\n", version.ComponentVersion("listener"))
			fmt.Printf("  Dispatch:   %s\n", version.ComponentVersion("dispatch"))
			fmt.Printf("  Store:      %s\n", version.ComponentVersion("store"))
			fmt.Printf("  Go Version: %s\n", runtime.Version())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
