package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of standards-graph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("standards-graph %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
