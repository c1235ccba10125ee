// Package main is the entry point for the dungeon server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepdelve/dungeon-api/cmd/server/client"
)

var rootCmd = &cobra.Command{
	Use:   "dungeon-api",
	Short: "Dungeon API server",
	Long:  `Dungeon API is the server-authoritative core of a multiplayer dungeon crawler: procedural floor generation, live entity simulation, and floor-scoped event fan-out.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(client.ClientCmd)
}
