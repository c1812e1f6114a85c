package main

import (
	"os"

	"github.com/memtide/memtide"
	"github.com/memtide/memtide/config"
	"github.com/spf13/cobra"
)

var rootFlags = &struct {
	configFile string
	session    string
}{}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "memtide",
		Short:        "Two-tier agent memory with retrieval-augmented answering",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&rootFlags.configFile, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVarP(&rootFlags.session, "session", "s", "", "Session id (defaults to $MEMTIDE_SESSION or \"default\")")

	cmd.AddCommand(
		newChatCmd(),
		newQueryCmd(),
		newLoadCmd(),
		newSearchCmd(),
		newSessionsCmd(),
		newStatsCmd(),
		newExportCmd(),
		newImportCmd(),
		newClearCmd(),
	)

	return cmd
}

func sessionID() string {
	if rootFlags.session != "" {
		return rootFlags.session
	}
	if v := os.Getenv("MEMTIDE_SESSION"); v != "" {
		return v
	}
	return "default"
}

func newRuntime(cmd *cobra.Command) (*memtide.Runtime, error) {
	conf, err := config.Load(rootFlags.configFile)
	if err != nil {
		return nil, err
	}
	return memtide.NewRuntime(cmd.Context(), memtide.WithConfig(conf))
}
