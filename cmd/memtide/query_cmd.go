package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	kvargs := &struct {
		batch bool
	}{}
	cmd := &cobra.Command{
		Use:   "query <question> [...<question>]",
		Short: "Answer one question, or several with --batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.Errorf("a question is required")
			}

			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			out := cmd.OutOrStdout()

			if kvargs.batch {
				for _, result := range runtime.Engine().BatchQuery(cmd.Context(), args) {
					if result.Err != nil {
						fmt.Fprintf(out, "%s: (%s) %v\n", result.Query, result.State, result.Err)
						continue
					}
					fmt.Fprintf(out, "%s: %s (confidence %.2f)\n", result.Query, result.Answer, result.Confidence)
				}
				return nil
			}

			result, err := runtime.Ask(cmd.Context(), sessionID(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if result.Err != nil {
				return errors.Wrapf(result.Err, "query ended in state %s", result.State)
			}
			fmt.Fprintln(out, result.Answer)
			fmt.Fprintf(out, "(confidence %.2f, %d hits)\n", result.Confidence, len(result.Hits))
			return nil
		},
	}

	cmd.Flags().BoolVar(&kvargs.batch, "batch", false, "Treat each argument as a separate question")

	return cmd
}
