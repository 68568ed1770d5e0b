package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"steno/internal/jobs"
	"steno/internal/view"
)

func newSpeakersCommand(ctx *commandContext) *cobra.Command {
	speakersCmd := &cobra.Command{
		Use:   "speakers",
		Short: "Rename diarized speakers per job",
	}
	speakersCmd.AddCommand(newSpeakersListCommand(ctx))
	speakersCmd.AddCommand(newSpeakersRenameCommand(ctx))
	speakersCmd.AddCommand(newSpeakersClearCommand(ctx))
	return speakersCmd
}

func newSpeakersListCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list <id>",
		Short: "Show a job's speakers and their display names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				job, err := s.client.GetJob(runCtx, args[0])
				if err != nil {
					return err
				}
				state := view.Compose(job, s.resolver().Resolve(runCtx, job), s.speakers, s.displayOptions(runCtx))
				if done, err := writeStructured(cmd, format, state.Legend); done || err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(state.Legend) == 0 {
					fmt.Fprintln(out, state.LegendStatus)
					return nil
				}
				fmt.Fprintln(out, renderLegendTable(state.Legend))
				return nil
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newSpeakersRenameCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rename <id> LABEL=Name...",
		Short: "Rename speakers (an empty name removes the override)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			edits, err := parseRenames(args[1:])
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				job, err := s.client.GetJob(runCtx, id)
				if err != nil {
					return err
				}
				labels := jobs.Speakers(job.Segments())
				if len(labels) == 0 {
					return fmt.Errorf("job %s has no diarized speakers", id)
				}

				s.speakers.BeginEditing(id)
				for _, edit := range edits {
					if !slices.Contains(labels, edit.label) {
						return fmt.Errorf("unknown speaker %q (known: %s)", edit.label, strings.Join(labels, ", "))
					}
					s.speakers.SetDraftValue(id, edit.label, edit.name)
				}

				out := cmd.OutOrStdout()
				if dryRun {
					rows := make([][]string, 0, len(labels))
					for _, label := range labels {
						rows = append(rows, []string{label, s.speakers.EditorValue(id, label)})
					}
					fmt.Fprintln(out, renderTable([]string{"Speaker", "Draft name"}, rows, nil, 0))
					fmt.Fprintln(out, "Dry run: nothing saved")
					s.speakers.DiscardDraft(id)
					return nil
				}

				if err := s.speakers.Apply(runCtx, id, labels); err != nil {
					return err
				}
				state := view.Compose(job, "", s.speakers, s.displayOptions(runCtx))
				fmt.Fprintln(out, renderLegendTable(state.Legend))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the resulting names without saving")
	return cmd
}

func newSpeakersClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Remove every speaker name override for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				if err := s.speakers.Clear(runCtx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared speaker names for %s\n", args[0])
				return nil
			})
		},
	}
}

type rename struct {
	label string
	name  string
}

func parseRenames(args []string) ([]rename, error) {
	out := make([]rename, 0, len(args))
	for _, arg := range args {
		label, name, ok := strings.Cut(arg, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("invalid rename %q (expected LABEL=Name)", arg)
		}
		out = append(out, rename{label: label, name: name})
	}
	return out, nil
}

func renderLegendTable(legend []view.LegendEntry) string {
	rows := make([][]string, 0, len(legend))
	for _, entry := range legend {
		rows = append(rows, []string{entry.RawLabel, entry.DisplayName})
	}
	return renderTable([]string{"Speaker", "Display name"}, rows, nil, 0)
}
