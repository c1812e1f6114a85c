package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/memtide/memtide"
	"github.com/memtide/memtide/memory"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive session backed by memory and the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.Close()

			session := sessionID()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %q. /help lists commands, /quit exits.\n", session)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if strings.HasPrefix(line, "/") {
					if quit := runSlashCommand(cmd, runtime, session, line); quit {
						break
					}
					continue
				}

				result, err := runtime.Ask(cmd.Context(), session, line)
				if err != nil {
					return err
				}
				if result.Err != nil {
					fmt.Fprintf(out, "(%s) %v\n", result.State, result.Err)
					continue
				}
				fmt.Fprintf(out, "%s\n(confidence %.2f, %d hits)\n", result.Answer, result.Confidence, len(result.Hits))
			}
			return scanner.Err()
		},
	}
}

func runSlashCommand(cmd *cobra.Command, runtime *memtide.Runtime, session, line string) (quit bool) {
	out := cmd.OutOrStdout()
	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(out, "/search <query>  search long-term memory")
		fmt.Fprintln(out, "/recall <query>  search the knowledge base")
		fmt.Fprintln(out, "/context         show recent session events")
		fmt.Fprintln(out, "/stats           show session statistics")
		fmt.Fprintln(out, "/tools           list registered tools")
		fmt.Fprintln(out, "/quit            exit")
	case "search":
		if rest == "" {
			fmt.Fprintln(out, "usage: /search <query>")
			return false
		}
		results, err := runtime.Store().Search(cmd.Context(), rest, memory.ModeHybrid, 5)
		if err != nil {
			fmt.Fprintf(out, "search failed: %v\n", err)
			return false
		}
		for _, r := range results {
			fmt.Fprintf(out, "%.3f  [%s] %s\n", r.Score, r.Event.Kind, r.Event.Content)
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "no matches")
		}
	case "recall":
		if rest == "" {
			fmt.Fprintln(out, "usage: /recall <query>")
			return false
		}
		results, err := runtime.Knowledge().Retrieve(cmd.Context(), rest, 5)
		if err != nil {
			fmt.Fprintf(out, "recall failed: %v\n", err)
			return false
		}
		for _, r := range results {
			fmt.Fprintf(out, "%.3f  %s\n", r.Score, r.Text)
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "no matches")
		}
	case "context":
		for _, evt := range runtime.Store().GetContext(session, 10) {
			fmt.Fprintf(out, "%s  [%s] %s\n", evt.Timestamp.Format("15:04:05"), evt.Kind, evt.Content)
		}
	case "stats":
		stats := runtime.Store().Stats(session)
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return false
		}
		fmt.Fprintln(out, string(data))
	case "tools":
		for _, t := range runtime.Tools().List() {
			fmt.Fprintf(out, "%s  %s\n", t.Name, t.Description)
		}
	default:
		fmt.Fprintf(out, "unknown command %q, try /help\n", name)
	}
	return false
}
