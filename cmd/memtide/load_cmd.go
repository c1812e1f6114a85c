package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/memtide/memtide/knowledge"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file-or-dir> [...<file-or-dir>]",
		Short: "Index text, markdown or PDF files into the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.Errorf("a file or directory is required")
			}

			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			out := cmd.OutOrStdout()
			svc := runtime.Knowledge()

			var docs []*knowledge.Document
			for _, arg := range args {
				stat, err := os.Stat(arg)
				if err != nil {
					return errors.Wrapf(err, "file or directory does not exist: %s", arg)
				}

				switch {
				case stat.IsDir():
					loaded, err := svc.IndexDirectory(cmd.Context(), arg)
					if err != nil {
						return err
					}
					docs = append(docs, loaded...)
				case strings.EqualFold(filepath.Ext(arg), ".pdf"):
					f, err := os.Open(arg)
					if err != nil {
						return errors.Wrapf(err, "failed to open pdf: %s", arg)
					}
					doc, err := svc.IndexPDF(cmd.Context(), filepath.Base(arg), f)
					f.Close()
					if err != nil {
						return err
					}
					docs = append(docs, doc)
				default:
					doc, err := svc.IndexFile(cmd.Context(), arg)
					if err != nil {
						return err
					}
					docs = append(docs, doc)
				}
			}

			for _, doc := range docs {
				fmt.Fprintf(out, "%s  %s (%d chunks)\n", doc.ID, doc.Source.Title, len(doc.Chunks))
			}
			fmt.Fprintf(out, "indexed %d documents\n", len(docs))
			return nil
		},
	}
}
