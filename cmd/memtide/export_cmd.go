package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every session and the long-term tier to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.Errorf("an output file is required")
			}

			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			store := runtime.Store()

			// Persisted sessions load lazily, so pull them all in before
			// the snapshot.
			ids, err := store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := store.LoadSession(cmd.Context(), id); err != nil {
					return err
				}
			}

			n, err := store.Export(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d events to %s\n", n, args[0])
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore sessions from a JSON export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.Errorf("an input file is required")
			}

			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			n, err := runtime.Store().Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d events from %s\n", n, args[0])
			return nil
		},
	}
}
