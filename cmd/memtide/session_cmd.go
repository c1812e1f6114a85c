package main

import (
	"encoding/json"
	"fmt"

	"github.com/memtide/memtide/memory"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List known sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ids, err := runtime.Store().ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			session := sessionID()
			if _, err := runtime.Store().LoadSession(cmd.Context(), session); err != nil {
				return err
			}

			stats := runtime.Store().Stats(session)
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return errors.Wrapf(err, "failed to marshal stats")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	kvargs := &struct {
		all bool
		yes bool
	}{}
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the current session, or everything with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := sessionID()
			if kvargs.all {
				target = memory.ClearAllSessions
			}
			if !kvargs.yes {
				return errors.Errorf("clearing %q is irreversible, re-run with --yes to confirm", target)
			}

			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			if err := runtime.Store().Clear(cmd.Context(), target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&kvargs.all, "all", false, "Clear every session and the long-term tier")
	cmd.Flags().BoolVarP(&kvargs.yes, "yes", "y", false, "Skip the confirmation check")

	return cmd
}
