package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2767mr/shapereach/internal/config"
)

// initCmd: shapereach init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DefaultConfig().Write(cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", cfgFile)
		return nil
	},
}
