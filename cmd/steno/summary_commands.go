package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"steno/internal/jobsync"
	"steno/internal/summary"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Generate, download and configure AI summaries",
	}
	summaryCmd.AddCommand(newSummaryGenerateCommand(ctx))
	summaryCmd.AddCommand(newSummaryDownloadCommand(ctx))
	summaryCmd.AddCommand(newSummaryStylesCommand(ctx))
	return summaryCmd
}

func newSummaryGenerateCommand(ctx *commandContext) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "generate <id>",
		Short: "Ask the backend to (re)generate a job's summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				engine := s.newEngine(runCtx, jobsync.Hooks{})
				defer engine.Close()

				if _, err := engine.SelectJob(runCtx, args[0]); err != nil {
					return err
				}
				engine.CancelPolling()
				resolved := s.templates.Resolve(style)
				state, err := engine.GenerateSummary(runCtx, resolved)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Summary (%s) for %s:\n\n", summary.Label(resolved), args[0])
				fmt.Fprintln(out, strings.TrimSpace(state.Summary))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&style, "style", summary.DefaultStyle, "Summary style key")
	return cmd
}

func newSummaryDownloadCommand(ctx *commandContext) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a job's summary as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				data, err := s.client.SummaryMarkdown(runCtx, args[0])
				if err != nil {
					return err
				}
				path := strings.TrimSpace(target)
				if path == "" {
					job, err := s.client.GetJob(runCtx, args[0])
					if err != nil {
						return err
					}
					path = exportBaseName(job.Filename) + "_summary.md"
				}
				return writeOutputFile(cmd, path, data)
			})
		},
	}
	cmd.Flags().StringVarP(&target, "out", "O", "", "Destination file (- for stdout)")
	return cmd
}

func newSummaryStylesCommand(ctx *commandContext) *cobra.Command {
	stylesCmd := &cobra.Command{
		Use:   "styles",
		Short: "Manage summary prompt templates",
	}

	var output string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List summary styles",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(_ context.Context, s *session) error {
				templates := s.templates.All()
				if done, err := writeStructured(cmd, format, templates); done || err != nil {
					return err
				}
				rows := make([][]string, 0, len(templates))
				for _, tpl := range templates {
					rows = append(rows, []string{tpl.Style, summary.Label(tpl.Style), yesNo(summary.IsBuiltin(tpl.Style)), tpl.Prompt})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Style", "Label", "Built-in", "Prompt"}, rows, nil, 60))
				return nil
			})
		},
	}
	addOutputFlag(listCmd, &output)

	addCmd := &cobra.Command{
		Use:   "add <key> <prompt...>",
		Short: "Add a custom summary style",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				key, err := s.templates.Add(runCtx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added summary style %s (%s)\n", key, summary.Label(key))
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <prompt...>",
		Short: "Change the prompt of an existing style",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				if err := s.templates.SetPrompt(runCtx, args[0], strings.Join(args[1:], " ")); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated summary style %s\n", summary.NormalizeStyleKey(args[0]))
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a custom summary style",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				if err := s.templates.Delete(runCtx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted summary style %s\n", summary.NormalizeStyleKey(args[0]))
				return nil
			})
		},
	}

	stylesCmd.AddCommand(listCmd, addCmd, setCmd, deleteCmd)
	return stylesCmd
}
