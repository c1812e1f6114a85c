package main

import (
	"fmt"

	"github.com/memtide/memtide/memory"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	kvargs := &struct {
		mode  string
		limit int
	}{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search long-term memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.Errorf("exactly one query is required")
			}

			mode, err := memory.ParseSearchMode(kvargs.mode)
			if err != nil {
				return err
			}

			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			results, err := runtime.Store().Search(cmd.Context(), args[0], mode, kvargs.limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(out, "%.3f  %s  [%s] %s\n", r.Score, r.Event.Ref(), r.Event.Kind, r.Event.Content)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "no matches")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kvargs.mode, "mode", "m", string(memory.ModeHybrid), "Search mode: keyword, semantic or hybrid")
	cmd.Flags().IntVarP(&kvargs.limit, "limit", "k", 10, "Maximum number of results")

	return cmd
}
