package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"folha/internal/app/client"
	"folha/internal/app/server"
	"folha/internal/platform/config"
)

var rootCmd = &cobra.Command{
	Use:   "folha",
	Short: "Angola payroll engine",
	Long:  "Payroll calculation and sync service for Angolan labor law.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the central server with the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return server.Run(cfg)
	},
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Run a satellite client against a central server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return client.Run(cfg)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, clientCmd)
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
